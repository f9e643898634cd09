package litellm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultProviderName is assumed when a model ID carries no provider prefix.
const DefaultProviderName = "openai"

// ParseModelID splits a prefixed model identifier like "anthropic/claude-sonnet-4-5"
// into its provider slug and provider-native model name. IDs without a prefix
// resolve to the default provider. Model names may themselves contain slashes
// (e.g. "openrouter/meta-llama/llama-3-70b"); only the first segment is the
// provider.
func ParseModelID(modelID string) (provider, model string) {
	before, after, found := strings.Cut(modelID, "/")
	if !found {
		return DefaultProviderName, modelID
	}
	return before, after
}

// ProviderFactory lazily constructs a provider, typically reading credentials
// from the environment.
type ProviderFactory func() (Provider, error)

// Registry maps provider slugs to providers and routes prefixed model IDs to
// the right backend.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		providers: make(map[string]Provider),
	}
}

// Register installs a lazy provider factory under the given slug, replacing
// any previous registration.
func (r *Registry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	delete(r.providers, name)
}

// RegisterProvider installs an already-constructed provider.
func (r *Registry) RegisterProvider(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
	delete(r.factories, name)
}

// Provider returns the provider registered under name, constructing and
// caching it on first use.
func (r *Registry) Provider(name string) (Provider, error) {
	r.mu.RLock()
	if p, ok := r.providers[name]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &Error{
			Title:   "unknown provider",
			Message: fmt.Sprintf("no provider registered for %q", name),
		}
	}

	p, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to construct provider %q: %w", name, err)
	}

	r.mu.Lock()
	// another goroutine may have won the race; keep its instance
	if existing, ok := r.providers[name]; ok {
		p = existing
	} else {
		r.providers[name] = p
	}
	r.mu.Unlock()
	return p, nil
}

// Providers lists the registered provider slugs, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make(map[string]struct{}, len(r.factories)+len(r.providers))
	for name := range r.factories {
		names[name] = struct{}{}
	}
	for name := range r.providers {
		names[name] = struct{}{}
	}
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LanguageModel resolves a prefixed model ID to a language model.
func (r *Registry) LanguageModel(modelID string) (LanguageModel, error) {
	providerName, model := ParseModelID(modelID)
	provider, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return provider.LanguageModel(model)
}

// EmbeddingModel resolves a prefixed model ID to an embedding model.
func (r *Registry) EmbeddingModel(modelID string) (EmbeddingModel, error) {
	providerName, model := ParseModelID(modelID)
	provider, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	ep, ok := provider.(EmbeddingProvider)
	if !ok {
		return nil, &Error{
			Title:   "unsupported operation",
			Message: fmt.Sprintf("provider %q does not support embeddings", providerName),
		}
	}
	return ep.EmbeddingModel(model)
}

// ImageModel resolves a prefixed model ID to an image model.
func (r *Registry) ImageModel(modelID string) (ImageModel, error) {
	providerName, model := ParseModelID(modelID)
	provider, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	ip, ok := provider.(ImageProvider)
	if !ok {
		return nil, &Error{
			Title:   "unsupported operation",
			Message: fmt.Sprintf("provider %q does not support image generation", providerName),
		}
	}
	return ip.ImageModel(model)
}

// RerankModel resolves a prefixed model ID to a rerank model.
func (r *Registry) RerankModel(modelID string) (RerankModel, error) {
	providerName, model := ParseModelID(modelID)
	provider, err := r.Provider(providerName)
	if err != nil {
		return nil, err
	}
	rp, ok := provider.(RerankProvider)
	if !ok {
		return nil, &Error{
			Title:   "unsupported operation",
			Message: fmt.Sprintf("provider %q does not support reranking", providerName),
		}
	}
	return rp.RerankModel(model)
}

// DefaultRegistry is the registry used by the package-level call helpers.
// Provider packages self-register into it on import.
var DefaultRegistry = NewRegistry()

// Register installs a provider factory into the default registry.
func Register(name string, factory ProviderFactory) {
	DefaultRegistry.Register(name, factory)
}
