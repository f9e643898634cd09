package proxy

import (
	"crypto/subtle"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BerriAI/litellm-go/pricing"
)

// KeyInfo is one virtual API key minted via /key/generate.
type KeyInfo struct {
	Key       string
	Alias     string
	MaxBudget *float64
	Models    []string
	ExpiresAt time.Time // zero means no expiry
	CreatedAt time.Time
}

// KeyStore authorizes requests against the master key and in-memory virtual
// keys with optional model allow-lists and spend budgets.
type KeyStore struct {
	masterKey string
	spend     *pricing.SpendTracker
	now       func() time.Time

	mu   sync.RWMutex
	keys map[string]*KeyInfo
}

// NewKeyStore creates a store guarding access with masterKey. Budget checks
// read accumulated spend from the tracker.
func NewKeyStore(masterKey string, spend *pricing.SpendTracker) *KeyStore {
	return &KeyStore{
		masterKey: masterKey,
		spend:     spend,
		now:       time.Now,
		keys:      make(map[string]*KeyInfo),
	}
}

// Generate mints a virtual key. Duration accepts Go durations plus a "Nd"
// days form; empty means the key never expires.
func (s *KeyStore) Generate(alias, duration string, maxBudget *float64, models []string) (*KeyInfo, error) {
	var expiresAt time.Time
	if duration != "" {
		d, err := parseKeyDuration(duration)
		if err != nil {
			return nil, err
		}
		expiresAt = s.now().Add(d)
	}
	if maxBudget != nil && *maxBudget < 0 {
		return nil, fmt.Errorf("max_budget must not be negative")
	}

	info := &KeyInfo{
		Key:       "sk-" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Alias:     alias,
		MaxBudget: maxBudget,
		Models:    slices.Clone(models),
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.keys[info.Key] = info
	s.mu.Unlock()
	return info, nil
}

func parseKeyDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n * 24 * float64(time.Hour)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

// IsMaster reports whether key is the master key.
func (s *KeyStore) IsMaster(key string) bool {
	return s.masterKey != "" &&
		subtle.ConstantTimeCompare([]byte(key), []byte(s.masterKey)) == 1
}

// Authorize checks that key may call model. Master keys always pass; virtual
// keys must exist, not be expired, allow the model, and be under budget.
func (s *KeyStore) Authorize(key, model string) *apiError {
	if s.masterKey == "" {
		// No master key configured: the proxy runs open.
		return nil
	}
	if key == "" {
		return errUnauthorized("missing Authorization header")
	}
	if s.IsMaster(key) {
		return nil
	}

	s.mu.RLock()
	info, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return errUnauthorized("invalid API key")
	}
	if !info.ExpiresAt.IsZero() && s.now().After(info.ExpiresAt) {
		return errUnauthorized("API key has expired")
	}
	if model == "" {
		// Middleware pass: the model is not known yet. Budget is only
		// enforced once the model check has had its say, so a key that is
		// both over budget and not allowed a model gets the 403.
		return nil
	}
	if len(info.Models) > 0 && !slices.Contains(info.Models, model) {
		return errForbidden(fmt.Sprintf("API key is not allowed to call model %q", model))
	}
	if info.MaxBudget != nil && s.spend.TotalSpend(key) >= *info.MaxBudget {
		return errBudgetExceeded(fmt.Sprintf("API key exceeded its budget of $%g", *info.MaxBudget))
	}
	return nil
}
