// Package router load-balances model calls across deployments. A deployment
// maps a public model group ("gpt-4o") to a provider-prefixed model ID
// ("azure/gpt-4o-eu") with optional RPM/TPM limits and a weight. Calls get
// retries with exponential backoff, per-deployment circuit-breaker cooldowns,
// and ordered fallbacks to other model groups, with a dedicated fallback map
// for context-window overflows.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	litellm "github.com/BerriAI/litellm-go"
)

// Config tunes retry, cooldown, and fallback behavior. The zero value is
// usable; New fills in defaults.
type Config struct {
	// Strategy selects deployments within a group. Defaults to simple-shuffle.
	Strategy Strategy
	// NumRetries is the number of retries after the first attempt.
	NumRetries int
	// Timeout bounds a whole call including retries and fallbacks. Zero
	// means no router-imposed deadline.
	Timeout time.Duration

	// RetryBackoffBase is the first retry delay; each retry doubles it up to
	// RetryBackoffMax. A rate-limited deployment's Retry-After wins over
	// the computed backoff.
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration

	// Fallbacks maps a model group to the groups tried, in order, after its
	// retries exhaust.
	Fallbacks map[string][]string
	// ContextWindowFallbacks is consulted instead of Fallbacks when the
	// failure was a context-window overflow, so oversized prompts can move
	// to a larger model rather than being retried against the same one.
	ContextWindowFallbacks map[string][]string

	// CooldownDuration is how long a tripped deployment stays out of
	// rotation. CooldownRatio is the failure ratio that trips it.
	CooldownDuration time.Duration
	CooldownRatio    float64
}

func (c Config) withDefaults() Config {
	if c.Strategy == "" {
		c.Strategy = StrategySimpleShuffle
	}
	if c.NumRetries < 0 {
		c.NumRetries = 0
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 500 * time.Millisecond
	}
	if c.RetryBackoffMax <= 0 {
		c.RetryBackoffMax = 30 * time.Second
	}
	if c.CooldownDuration <= 0 {
		c.CooldownDuration = time.Minute
	}
	if c.CooldownRatio <= 0 {
		c.CooldownRatio = 0.5
	}
	return c
}

// Router resolves model groups to deployments and runs calls with retries,
// cooldowns, and fallbacks. Model IDs that match no configured group are
// routed straight through the registry, still with retry handling.
type Router struct {
	cfg      Config
	registry *litellm.Registry

	mu     sync.RWMutex
	groups map[string][]*deployment
}

// New creates a router over the given registry. A nil registry uses
// litellm.DefaultRegistry.
func New(registry *litellm.Registry, cfg Config) (*Router, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Strategy.validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = litellm.DefaultRegistry
	}
	return &Router{
		cfg:      cfg,
		registry: registry,
		groups:   make(map[string][]*deployment),
	}, nil
}

// AddDeployment registers a deployment for its model group.
func (r *Router) AddDeployment(d Deployment) error {
	if err := d.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[d.ModelGroup] = append(r.groups[d.ModelGroup], newDeployment(d, r.cfg))
	return nil
}

// HasGroup reports whether any deployment is configured for the group.
func (r *Router) HasGroup(group string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group]) > 0
}

// ModelGroups lists the configured group names, sorted.
func (r *Router) ModelGroups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.groups))
	for group := range r.groups {
		out = append(out, group)
	}
	sort.Strings(out)
	return out
}

// Stats snapshots every deployment's counters, ordered by group then model.
func (r *Router) Stats() []DeploymentStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []DeploymentStats
	for _, deps := range r.groups {
		for _, dep := range deps {
			out = append(out, dep.stats())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModelGroup != out[j].ModelGroup {
			return out[i].ModelGroup < out[j].ModelGroup
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out
}

func (r *Router) deployments(group string) []*deployment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groups[group]
}

// Completion generates a response, load-balanced across the group's
// deployments.
func (r *Router) Completion(ctx context.Context, model string, call litellm.Call) (*litellm.Response, error) {
	var resp *litellm.Response
	err := r.execute(ctx, model, func(ctx context.Context, dep *deployment, modelID string) (litellm.Usage, error) {
		lm, err := r.registry.LanguageModel(modelID)
		if err != nil {
			return litellm.Usage{}, err
		}
		out, err := lm.Generate(ctx, call)
		if err != nil {
			return litellm.Usage{}, err
		}
		resp = out
		return out.Usage, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CompletionStream is the streaming variant of Completion. Retries and
// fallbacks apply to establishing the stream; token usage is folded into the
// deployment's counters when the stream finishes.
func (r *Router) CompletionStream(ctx context.Context, model string, call litellm.Call) (litellm.StreamResponse, error) {
	var stream litellm.StreamResponse
	err := r.execute(ctx, model, func(ctx context.Context, dep *deployment, modelID string) (litellm.Usage, error) {
		lm, err := r.registry.LanguageModel(modelID)
		if err != nil {
			return litellm.Usage{}, err
		}
		s, err := lm.Stream(ctx, call)
		if err != nil {
			return litellm.Usage{}, err
		}
		stream = wrapStream(dep, s)
		return litellm.Usage{}, nil
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Embedding generates embeddings, load-balanced across the group's
// deployments.
func (r *Router) Embedding(ctx context.Context, model string, call litellm.EmbeddingCall) (*litellm.EmbeddingResponse, error) {
	var resp *litellm.EmbeddingResponse
	err := r.execute(ctx, model, func(ctx context.Context, dep *deployment, modelID string) (litellm.Usage, error) {
		em, err := r.registry.EmbeddingModel(modelID)
		if err != nil {
			return litellm.Usage{}, err
		}
		out, err := em.Embed(ctx, call)
		if err != nil {
			return litellm.Usage{}, err
		}
		resp = out
		return out.Usage, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ImageGeneration generates images, load-balanced across the group's
// deployments.
func (r *Router) ImageGeneration(ctx context.Context, model string, call litellm.ImageCall) (*litellm.ImageResponse, error) {
	var resp *litellm.ImageResponse
	err := r.execute(ctx, model, func(ctx context.Context, dep *deployment, modelID string) (litellm.Usage, error) {
		im, err := r.registry.ImageModel(modelID)
		if err != nil {
			return litellm.Usage{}, err
		}
		out, err := im.GenerateImage(ctx, call)
		if err != nil {
			return litellm.Usage{}, err
		}
		resp = out
		return out.Usage, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Rerank scores documents against a query, load-balanced across the group's
// deployments.
func (r *Router) Rerank(ctx context.Context, model string, call litellm.RerankCall) (*litellm.RerankResponse, error) {
	var resp *litellm.RerankResponse
	err := r.execute(ctx, model, func(ctx context.Context, dep *deployment, modelID string) (litellm.Usage, error) {
		rm, err := r.registry.RerankModel(modelID)
		if err != nil {
			return litellm.Usage{}, err
		}
		out, err := rm.Rerank(ctx, call)
		if err != nil {
			return litellm.Usage{}, err
		}
		resp = out
		return out.Usage, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// operation runs one attempt against a resolved deployment. dep is nil when
// the model ID matched no configured group and routes directly.
type operation func(ctx context.Context, dep *deployment, modelID string) (litellm.Usage, error)

// execute walks the fallback chain starting at model, running each group
// with retries until one succeeds.
func (r *Router) execute(ctx context.Context, model string, op operation) error {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	groups := []string{model}
	tried := make(map[string]bool)
	var lastErr error

	for i := 0; i < len(groups); i++ {
		group := groups[i]
		if tried[group] {
			continue
		}
		tried[group] = true

		err := r.attemptGroup(ctx, group, op)
		if err == nil {
			return nil
		}
		lastErr = err

		if litellm.IsContextWindowExceededError(err) {
			groups = append(groups, r.cfg.ContextWindowFallbacks[group]...)
		} else {
			groups = append(groups, r.cfg.Fallbacks[group]...)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

// attemptGroup runs the call against one group with up to NumRetries
// retries. Non-retryable errors return immediately so fallbacks can run.
func (r *Router) attemptGroup(ctx context.Context, group string, op operation) error {
	deps := r.deployments(group)
	var lastErr error

	for attempt := 0; attempt <= r.cfg.NumRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, r.retryDelay(attempt, lastErr)); err != nil {
				return lastErr
			}
		}

		dep, modelID, err := r.pick(group, deps)
		if err != nil {
			lastErr = err
			continue
		}

		err = r.callDeployment(ctx, dep, modelID, op)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// pick chooses an available deployment for the group and consumes its RPM
// budget. Groups with no deployments route the raw ID through the registry.
func (r *Router) pick(group string, deps []*deployment) (*deployment, string, error) {
	if len(deps) == 0 {
		return nil, group, nil
	}

	candidates := make([]*deployment, 0, len(deps))
	for _, dep := range deps {
		if dep.available() {
			candidates = append(candidates, dep)
		}
	}

	for len(candidates) > 0 {
		dep := r.cfg.Strategy.pick(candidates)
		if dep.acquire() {
			return dep, dep.ModelID, nil
		}
		// Rate budget raced away between the availability check and the
		// acquire; drop this deployment and pick again.
		next := candidates[:0]
		for _, c := range candidates {
			if c != dep {
				next = append(next, c)
			}
		}
		candidates = next
	}

	return nil, "", &litellm.Error{
		Title:   "no deployments available",
		Message: fmt.Sprintf("all deployments for %q are cooling down or rate limited", group),
	}
}

func (r *Router) callDeployment(ctx context.Context, dep *deployment, modelID string, op operation) error {
	if dep == nil {
		_, err := op(ctx, nil, modelID)
		return err
	}

	dep.inflight.Add(1)
	start := time.Now()
	result, err := dep.breaker.Execute(func() (any, error) {
		usage, err := op(ctx, dep, modelID)
		if err != nil {
			return nil, err
		}
		return usage, nil
	})
	dep.inflight.Add(-1)

	if err != nil {
		dep.recordFailure()
		return err
	}
	dep.recordSuccess(result.(litellm.Usage), time.Since(start))
	return nil
}

// wrapStream forwards the stream and folds its final usage into the
// deployment's counters.
func wrapStream(dep *deployment, stream litellm.StreamResponse) litellm.StreamResponse {
	if dep == nil {
		return stream
	}
	return func(yield func(litellm.StreamPart) bool) {
		for part := range stream {
			if part.Type == litellm.StreamPartTypeFinish {
				dep.recordTokens(part.Usage)
			}
			if !yield(part) {
				return
			}
		}
	}
}
