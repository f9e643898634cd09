// Package pricing computes the USD cost of model calls from an embedded
// price table and aggregates spend per API key and model.
package pricing

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	litellm "github.com/BerriAI/litellm-go"
)

//go:embed prices.json
var pricesJSON []byte

// ModelPrice is the per-unit USD pricing for one model.
type ModelPrice struct {
	InputCostPerToken     float64 `json:"input_cost_per_token,omitempty"`
	OutputCostPerToken    float64 `json:"output_cost_per_token,omitempty"`
	CacheReadCostPerToken float64 `json:"cache_read_cost_per_token,omitempty"`
	CostPerImage          float64 `json:"cost_per_image,omitempty"`
	CostPerQuery          float64 `json:"cost_per_query,omitempty"`
}

// Table resolves model IDs to prices. Lookup strips any provider prefix and
// falls back to the longest matching price-table prefix, so versioned IDs
// like "gpt-4o-2024-08-06" resolve to "gpt-4o".
type Table struct {
	prices map[string]ModelPrice
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the table embedded in the binary.
func Default() *Table {
	defaultTableOnce.Do(func() {
		table, err := NewTable(pricesJSON)
		if err != nil {
			// The embedded table is validated by tests; an unparsable one is
			// a build defect.
			panic("pricing: invalid embedded price table: " + err.Error())
		}
		defaultTable = table
	})
	return defaultTable
}

// NewTable parses a price table from JSON.
func NewTable(data []byte) (*Table, error) {
	var prices map[string]ModelPrice
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, err
	}
	return &Table{prices: prices}, nil
}

// Lookup finds the price for a model ID, trying the exact ID first, then the
// ID without its provider prefix, then the longest price-table key that
// prefixes either form.
func (t *Table) Lookup(modelID string) (ModelPrice, bool) {
	if price, ok := t.prices[modelID]; ok {
		return price, true
	}

	bare := modelID
	if _, after, ok := strings.Cut(modelID, "/"); ok {
		bare = after
		if price, ok := t.prices[bare]; ok {
			return price, true
		}
	}

	var bestKey string
	for key := range t.prices {
		if len(key) <= len(bestKey) {
			continue
		}
		if strings.HasPrefix(modelID, key) || strings.HasPrefix(bare, key) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return ModelPrice{}, false
	}
	return t.prices[bestKey], true
}

// Cost returns the USD cost of a call's token usage. Unknown models cost 0
// and report ok=false so callers can flag them.
func (t *Table) Cost(modelID string, usage litellm.Usage) (cost float64, ok bool) {
	price, ok := t.Lookup(modelID)
	if !ok {
		return 0, false
	}

	billableInput := usage.InputTokens - usage.CacheReadTokens
	if billableInput < 0 {
		billableInput = 0
	}
	cost = float64(billableInput)*price.InputCostPerToken +
		float64(usage.CacheReadTokens)*price.CacheReadCostPerToken +
		float64(usage.OutputTokens)*price.OutputCostPerToken
	return cost, true
}

// ImageCost returns the USD cost of generating n images.
func (t *Table) ImageCost(modelID string, n int) (float64, bool) {
	price, ok := t.Lookup(modelID)
	if !ok || price.CostPerImage == 0 {
		return 0, ok && price.CostPerImage != 0
	}
	return float64(n) * price.CostPerImage, true
}

// QueryCost returns the USD cost of n search queries (rerank billing).
func (t *Table) QueryCost(modelID string, n int) (float64, bool) {
	price, ok := t.Lookup(modelID)
	if !ok || price.CostPerQuery == 0 {
		return 0, ok && price.CostPerQuery != 0
	}
	return float64(n) * price.CostPerQuery, true
}

// Cost computes the cost of a call against the default table.
func Cost(modelID string, usage litellm.Usage) (float64, bool) {
	return Default().Cost(modelID, usage)
}
