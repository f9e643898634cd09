package pricing

import (
	"sort"
	"sync"
	"time"

	litellm "github.com/BerriAI/litellm-go"
)

// SpendEntry is the aggregate spend for one API key and model pair.
type SpendEntry struct {
	APIKey       string    `json:"api_key"`
	Model        string    `json:"model"`
	Requests     int64     `json:"requests"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	TotalTokens  int64     `json:"total_tokens"`
	Spend        float64   `json:"spend"`
	LastUpdated  time.Time `json:"last_updated"`
}

// SpendTracker aggregates usage and cost in memory, keyed by API key and
// model.
type SpendTracker struct {
	mu      sync.Mutex
	entries map[spendKey]*SpendEntry
	now     func() time.Time
}

type spendKey struct {
	apiKey string
	model  string
}

// NewSpendTracker creates an empty spend tracker.
func NewSpendTracker() *SpendTracker {
	return &SpendTracker{
		entries: make(map[spendKey]*SpendEntry),
		now:     time.Now,
	}
}

// Record adds one call's usage and cost to the aggregate for the key/model
// pair.
func (s *SpendTracker) Record(apiKey, model string, usage litellm.Usage, cost float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := spendKey{apiKey: apiKey, model: model}
	entry, ok := s.entries[key]
	if !ok {
		entry = &SpendEntry{APIKey: apiKey, Model: model}
		s.entries[key] = entry
	}
	entry.Requests++
	entry.InputTokens += usage.InputTokens
	entry.OutputTokens += usage.OutputTokens
	entry.TotalTokens += usage.TotalTokens
	entry.Spend += cost
	entry.LastUpdated = s.now()
}

// Entries returns a stable snapshot of all aggregates, ordered by API key
// then model.
func (s *SpendTracker) Entries() []SpendEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]SpendEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].APIKey != entries[j].APIKey {
			return entries[i].APIKey < entries[j].APIKey
		}
		return entries[i].Model < entries[j].Model
	})
	return entries
}

// TotalSpend returns the total spend recorded for an API key across all
// models.
func (s *SpendTracker) TotalSpend(apiKey string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for key, entry := range s.entries {
		if key.apiKey == apiKey {
			total += entry.Spend
		}
	}
	return total
}
