package pricing

import (
	"testing"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	table := Default()

	t.Run("exact match", func(t *testing.T) {
		t.Parallel()
		price, ok := table.Lookup("gpt-4o")
		require.True(t, ok)
		require.InDelta(t, 0.0000025, price.InputCostPerToken, 1e-12)
	})

	t.Run("strips provider prefix", func(t *testing.T) {
		t.Parallel()
		price, ok := table.Lookup("openai/gpt-4o-mini")
		require.True(t, ok)
		require.InDelta(t, 0.00000015, price.InputCostPerToken, 1e-12)
	})

	t.Run("longest prefix wins for versioned IDs", func(t *testing.T) {
		t.Parallel()

		// gpt-4o-2024-08-06 must resolve to gpt-4o, not partial-match junk.
		price, ok := table.Lookup("gpt-4o-2024-08-06")
		require.True(t, ok)
		require.InDelta(t, 0.0000025, price.InputCostPerToken, 1e-12)

		// claude date suffixes resolve to the family price.
		price, ok = table.Lookup("anthropic/claude-sonnet-4-20250514")
		require.True(t, ok)
		require.InDelta(t, 0.000003, price.InputCostPerToken, 1e-12)
	})

	t.Run("bedrock region-prefixed IDs", func(t *testing.T) {
		t.Parallel()
		price, ok := table.Lookup("bedrock/us.anthropic.claude-sonnet-4-20250514-v1:0")
		require.True(t, ok)
		require.InDelta(t, 0.000003, price.InputCostPerToken, 1e-12)
	})

	t.Run("unknown model", func(t *testing.T) {
		t.Parallel()
		_, ok := table.Lookup("totally-made-up-model")
		require.False(t, ok)
	})
}

func TestCost(t *testing.T) {
	t.Parallel()

	usage := litellm.Usage{
		InputTokens:  1000,
		OutputTokens: 500,
		TotalTokens:  1500,
	}

	t.Run("input plus output", func(t *testing.T) {
		t.Parallel()
		cost, ok := Cost("gpt-4o", usage)
		require.True(t, ok)
		require.InDelta(t, 1000*0.0000025+500*0.00001, cost, 1e-12)
	})

	t.Run("cache reads billed at the discounted rate", func(t *testing.T) {
		t.Parallel()
		cached := litellm.Usage{
			InputTokens:     1000,
			CacheReadTokens: 400,
			OutputTokens:    0,
		}
		cost, ok := Cost("gpt-4o", cached)
		require.True(t, ok)
		require.InDelta(t, 600*0.0000025+400*0.00000125, cost, 1e-12)
	})

	t.Run("unknown model costs zero and is flagged", func(t *testing.T) {
		t.Parallel()
		cost, ok := Cost("totally-made-up-model", usage)
		require.False(t, ok)
		require.Zero(t, cost)
	})
}

func TestImageAndQueryCost(t *testing.T) {
	t.Parallel()

	cost, ok := Default().ImageCost("dall-e-3", 3)
	require.True(t, ok)
	require.InDelta(t, 0.12, cost, 1e-9)

	cost, ok = Default().QueryCost("rerank-v3.5", 2)
	require.True(t, ok)
	require.InDelta(t, 0.004, cost, 1e-9)

	_, ok = Default().QueryCost("gpt-4o", 1)
	require.False(t, ok)
}

func TestSpendTracker(t *testing.T) {
	t.Parallel()

	tracker := NewSpendTracker()
	tracker.Record("key-a", "gpt-4o", litellm.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, 0.01)
	tracker.Record("key-a", "gpt-4o", litellm.Usage{InputTokens: 200, OutputTokens: 100, TotalTokens: 300}, 0.02)
	tracker.Record("key-a", "claude-sonnet-4", litellm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, 0.001)
	tracker.Record("key-b", "gpt-4o", litellm.Usage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2}, 0.0001)

	entries := tracker.Entries()
	require.Len(t, entries, 3)

	// Ordered by key then model.
	require.Equal(t, "key-a", entries[0].APIKey)
	require.Equal(t, "claude-sonnet-4", entries[0].Model)
	require.Equal(t, "gpt-4o", entries[1].Model)
	require.EqualValues(t, 2, entries[1].Requests)
	require.EqualValues(t, 300, entries[1].InputTokens)
	require.InDelta(t, 0.03, entries[1].Spend, 1e-9)

	require.InDelta(t, 0.031, tracker.TotalSpend("key-a"), 1e-9)
	require.InDelta(t, 0.0001, tracker.TotalSpend("key-b"), 1e-9)
	require.Zero(t, tracker.TotalSpend("key-c"))
}
