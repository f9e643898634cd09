package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/pricing"
)

func TestKeyStore_Authorize(t *testing.T) {
	t.Parallel()

	spend := pricing.NewSpendTracker()
	store := NewKeyStore("sk-master", spend)

	t.Run("master key passes", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, store.Authorize("sk-master", "any-model"))
	})

	t.Run("missing key rejected", func(t *testing.T) {
		t.Parallel()
		err := store.Authorize("", "any-model")
		require.NotNil(t, err)
		require.Equal(t, http.StatusUnauthorized, err.Status)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		t.Parallel()
		err := store.Authorize("sk-nope", "any-model")
		require.NotNil(t, err)
		require.Equal(t, http.StatusUnauthorized, err.Status)
	})

	t.Run("model allow list", func(t *testing.T) {
		t.Parallel()
		info, err := store.Generate("scoped", "", nil, []string{"gpt-4o"})
		require.NoError(t, err)
		require.Nil(t, store.Authorize(info.Key, "gpt-4o"))

		authErr := store.Authorize(info.Key, "claude")
		require.NotNil(t, authErr)
		require.Equal(t, http.StatusForbidden, authErr.Status)
	})

	t.Run("budget enforcement", func(t *testing.T) {
		t.Parallel()
		info, err := store.Generate("budgeted", "", litellm.Opt(0.05), nil)
		require.NoError(t, err)
		require.Nil(t, store.Authorize(info.Key, "gpt-4o"))

		spend.Record(info.Key, "gpt-4o", litellm.Usage{TotalTokens: 1000}, 0.06)
		authErr := store.Authorize(info.Key, "gpt-4o")
		require.NotNil(t, authErr)
		require.Equal(t, http.StatusTooManyRequests, authErr.Status)
		require.Equal(t, "budget_exceeded", authErr.Code)
	})

	t.Run("model check outranks budget", func(t *testing.T) {
		t.Parallel()
		info, err := store.Generate("broke-and-scoped", "", litellm.Opt(0.01), []string{"gpt-4o"})
		require.NoError(t, err)
		spend.Record(info.Key, "gpt-4o", litellm.Usage{TotalTokens: 1000}, 0.02)

		// The middleware pass has no model yet; budget waits for the
		// model check.
		require.Nil(t, store.Authorize(info.Key, ""))

		authErr := store.Authorize(info.Key, "claude")
		require.NotNil(t, authErr)
		require.Equal(t, http.StatusForbidden, authErr.Status)

		authErr = store.Authorize(info.Key, "gpt-4o")
		require.NotNil(t, authErr)
		require.Equal(t, http.StatusTooManyRequests, authErr.Status)
	})
}

func TestKeyStore_Expiry(t *testing.T) {
	t.Parallel()

	store := NewKeyStore("sk-master", pricing.NewSpendTracker())
	current := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	info, err := store.Generate("short-lived", "24h", nil, nil)
	require.NoError(t, err)
	require.Nil(t, store.Authorize(info.Key, ""))

	current = current.Add(25 * time.Hour)
	authErr := store.Authorize(info.Key, "")
	require.NotNil(t, authErr)
	require.Contains(t, authErr.Message, "expired")
}

func TestParseKeyDuration(t *testing.T) {
	t.Parallel()

	d, err := parseKeyDuration("30d")
	require.NoError(t, err)
	require.Equal(t, 30*24*time.Hour, d)

	d, err = parseKeyDuration("90m")
	require.NoError(t, err)
	require.Equal(t, 90*time.Minute, d)

	_, err = parseKeyDuration("eventually")
	require.Error(t, err)

	_, err = parseKeyDuration("-4h")
	require.Error(t, err)
}

func TestKeyStore_NoMasterKeyRunsOpen(t *testing.T) {
	t.Parallel()

	store := NewKeyStore("", pricing.NewSpendTracker())
	require.Nil(t, store.Authorize("", "any"))
	require.Nil(t, store.Authorize("sk-whatever", "any"))
}
