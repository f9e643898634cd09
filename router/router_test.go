package router

import (
	"context"
	"sync"
	"testing"
	"time"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string

	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]func(call litellm.Call) (*litellm.Response, error)
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{
		name:     name,
		calls:    make(map[string]int),
		handlers: make(map[string]func(call litellm.Call) (*litellm.Response, error)),
	}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) LanguageModel(modelID string) (litellm.LanguageModel, error) {
	return &fakeModel{provider: p, id: modelID}, nil
}

func (p *fakeProvider) handle(modelID string, fn func(call litellm.Call) (*litellm.Response, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[modelID] = fn
}

func (p *fakeProvider) callCount(modelID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[modelID]
}

type fakeModel struct {
	provider *fakeProvider
	id       string
}

func (m *fakeModel) Provider() string { return m.provider.name }
func (m *fakeModel) Model() string    { return m.id }

func (m *fakeModel) Generate(_ context.Context, call litellm.Call) (*litellm.Response, error) {
	m.provider.mu.Lock()
	m.provider.calls[m.id]++
	handler := m.provider.handlers[m.id]
	m.provider.mu.Unlock()
	if handler == nil {
		return nil, &litellm.Error{Title: "no handler", Message: m.id}
	}
	return handler(call)
}

func (m *fakeModel) Stream(ctx context.Context, call litellm.Call) (litellm.StreamResponse, error) {
	resp, err := m.Generate(ctx, call)
	if err != nil {
		return nil, err
	}
	return func(yield func(litellm.StreamPart) bool) {
		if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextStart, ID: "0"}) {
			return
		}
		if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextDelta, ID: "0", Delta: resp.Content.Text()}) {
			return
		}
		if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextEnd, ID: "0"}) {
			return
		}
		yield(litellm.StreamPart{
			Type:         litellm.StreamPartTypeFinish,
			Usage:        resp.Usage,
			FinishReason: resp.FinishReason,
		})
	}, nil
}

func okResponse(text string) *litellm.Response {
	return &litellm.Response{
		Content:      litellm.ContentList{litellm.TextContent{Text: text}},
		Usage:        litellm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		FinishReason: litellm.FinishReasonStop,
	}
}

func serverError() *litellm.ProviderError {
	return &litellm.ProviderError{
		Title:      "internal server error",
		Message:    "upstream exploded",
		Provider:   "fake",
		StatusCode: 500,
	}
}

func newTestRouter(t *testing.T, cfg Config, deployments ...Deployment) (*Router, *fakeProvider) {
	t.Helper()
	provider := newFakeProvider("fake")
	registry := litellm.NewRegistry()
	registry.RegisterProvider("fake", provider)

	if cfg.RetryBackoffBase == 0 {
		cfg.RetryBackoffBase = time.Millisecond
	}
	r, err := New(registry, cfg)
	require.NoError(t, err)
	for _, d := range deployments {
		require.NoError(t, r.AddDeployment(d))
	}
	return r, provider
}

func testCall() litellm.Call {
	return litellm.Call{Prompt: litellm.Prompt{litellm.NewUserTextMessage("hi")}}
}

func TestCompletion_RoutesToDeployment(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{}, Deployment{ModelGroup: "gpt", ModelID: "fake/primary"})
	provider.handle("primary", func(litellm.Call) (*litellm.Response, error) {
		return okResponse("hello"), nil
	})

	resp, err := r.Completion(t.Context(), "gpt", testCall())
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Content.Text())

	stats := r.Stats()
	require.Len(t, stats, 1)
	require.EqualValues(t, 1, stats[0].Requests)
	require.EqualValues(t, 15, stats[0].TotalTokens)
	require.False(t, stats[0].CoolingDown)
}

func TestCompletion_RetriesRetryableErrors(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{NumRetries: 2},
		Deployment{ModelGroup: "gpt", ModelID: "fake/flaky"})

	var mu sync.Mutex
	attempts := 0
	provider.handle("flaky", func(litellm.Call) (*litellm.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return nil, serverError()
		}
		return okResponse("recovered"), nil
	})

	resp, err := r.Completion(t.Context(), "gpt", testCall())
	require.NoError(t, err)
	require.Equal(t, "recovered", resp.Content.Text())
	require.Equal(t, 2, provider.callCount("flaky"))
}

func TestCompletion_DoesNotRetryBadRequests(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{NumRetries: 3},
		Deployment{ModelGroup: "gpt", ModelID: "fake/picky"})
	provider.handle("picky", func(litellm.Call) (*litellm.Response, error) {
		return nil, &litellm.ProviderError{
			Title:      "bad request",
			Message:    "invalid tool schema",
			StatusCode: 400,
		}
	})

	_, err := r.Completion(t.Context(), "gpt", testCall())
	require.Error(t, err)
	require.Equal(t, 1, provider.callCount("picky"))
}

func TestCompletion_FallsBackToNextGroup(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{
		NumRetries: 0,
		Fallbacks:  map[string][]string{"gpt": {"claude"}},
	},
		Deployment{ModelGroup: "gpt", ModelID: "fake/down"},
		Deployment{ModelGroup: "claude", ModelID: "fake/backup"},
	)
	provider.handle("down", func(litellm.Call) (*litellm.Response, error) {
		return nil, serverError()
	})
	provider.handle("backup", func(litellm.Call) (*litellm.Response, error) {
		return okResponse("from backup"), nil
	})

	resp, err := r.Completion(t.Context(), "gpt", testCall())
	require.NoError(t, err)
	require.Equal(t, "from backup", resp.Content.Text())
	require.Equal(t, 1, provider.callCount("down"))
	require.Equal(t, 1, provider.callCount("backup"))
}

func TestCompletion_ContextWindowFallback(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{
		Fallbacks:              map[string][]string{"small": {"wrong"}},
		ContextWindowFallbacks: map[string][]string{"small": {"large"}},
	},
		Deployment{ModelGroup: "small", ModelID: "fake/small"},
		Deployment{ModelGroup: "large", ModelID: "fake/large"},
		Deployment{ModelGroup: "wrong", ModelID: "fake/wrong"},
	)
	provider.handle("small", func(litellm.Call) (*litellm.Response, error) {
		return nil, &litellm.ProviderError{
			Title:              "bad request",
			Message:            "prompt is too long",
			StatusCode:         400,
			ContextTooLargeErr: true,
			ContextMaxTokens:   8192,
			ContextUsedTokens:  9001,
		}
	})
	provider.handle("large", func(litellm.Call) (*litellm.Response, error) {
		return okResponse("fits here"), nil
	})

	resp, err := r.Completion(t.Context(), "small", testCall())
	require.NoError(t, err)
	require.Equal(t, "fits here", resp.Content.Text())
	require.Equal(t, 1, provider.callCount("large"))
	require.Zero(t, provider.callCount("wrong"))
}

func TestCompletion_UnconfiguredModelRoutesDirect(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{})
	provider.handle("gpt-4o", func(litellm.Call) (*litellm.Response, error) {
		return okResponse("direct"), nil
	})

	resp, err := r.Completion(t.Context(), "fake/gpt-4o", testCall())
	require.NoError(t, err)
	require.Equal(t, "direct", resp.Content.Text())
	require.Empty(t, r.Stats())
}

func TestCompletion_CooldownRemovesDeployment(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{NumRetries: 4},
		Deployment{ModelGroup: "gpt", ModelID: "fake/broken"})
	provider.handle("broken", func(litellm.Call) (*litellm.Response, error) {
		return nil, serverError()
	})

	_, err := r.Completion(t.Context(), "gpt", testCall())
	require.Error(t, err)

	// Three consecutive failures trip the breaker; the remaining retries
	// find no available deployment instead of hammering the backend.
	require.Equal(t, 3, provider.callCount("broken"))

	stats := r.Stats()
	require.Len(t, stats, 1)
	require.True(t, stats[0].CoolingDown)
	require.EqualValues(t, 3, stats[0].Failures)
}

func TestCompletion_RPMLimitExhausted(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{},
		Deployment{ModelGroup: "gpt", ModelID: "fake/limited", RPM: 2})
	provider.handle("limited", func(litellm.Call) (*litellm.Response, error) {
		return okResponse("ok"), nil
	})

	for range 2 {
		_, err := r.Completion(t.Context(), "gpt", testCall())
		require.NoError(t, err)
	}

	_, err := r.Completion(t.Context(), "gpt", testCall())
	require.ErrorContains(t, err, "cooling down or rate limited")
	require.Equal(t, 2, provider.callCount("limited"))
}

func TestCompletionStream_RecordsUsage(t *testing.T) {
	t.Parallel()

	r, provider := newTestRouter(t, Config{},
		Deployment{ModelGroup: "gpt", ModelID: "fake/stream"})
	provider.handle("stream", func(litellm.Call) (*litellm.Response, error) {
		return okResponse("streamed"), nil
	})

	stream, err := r.CompletionStream(t.Context(), "gpt", testCall())
	require.NoError(t, err)

	resp, err := litellm.AccumulateStream(stream)
	require.NoError(t, err)
	require.Equal(t, "streamed", resp.Content.Text())

	stats := r.Stats()
	require.Len(t, stats, 1)
	require.EqualValues(t, 15, stats[0].TotalTokens)
}

func TestRetryDelay_HonorsRetryAfter(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, Config{})
	rateLimited := &litellm.ProviderError{
		Title:           "rate limited",
		StatusCode:      429,
		ResponseHeaders: map[string]string{"retry-after": "7"},
	}
	require.Equal(t, 7*time.Second, r.retryDelay(1, rateLimited))

	backoff := r.retryDelay(1, serverError())
	require.Greater(t, backoff, time.Duration(0))
	require.LessOrEqual(t, backoff, r.cfg.RetryBackoffBase)
}

func TestRetryDelay_LargeAttemptStaysBounded(t *testing.T) {
	t.Parallel()

	r, err := New(litellm.NewRegistry(), Config{
		RetryBackoffBase: 30 * time.Second,
		RetryBackoffMax:  time.Minute,
	})
	require.NoError(t, err)

	for _, attempt := range []int{31, 40, 64, 1000} {
		delay := r.retryDelay(attempt, serverError())
		require.Greater(t, delay, time.Duration(0), "attempt %d", attempt)
		require.LessOrEqual(t, delay, r.cfg.RetryBackoffMax, "attempt %d", attempt)
	}
}

func TestNew_RejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := New(litellm.NewRegistry(), Config{Strategy: "round-robin"})
	require.ErrorContains(t, err, "unknown routing strategy")
}

func TestAddDeployment_Validation(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, Config{})
	require.ErrorContains(t, r.AddDeployment(Deployment{ModelID: "fake/x"}), "model group")
	require.ErrorContains(t, r.AddDeployment(Deployment{ModelGroup: "g"}), "model ID")
	require.NoError(t, r.AddDeployment(Deployment{ModelGroup: "g", ModelID: "fake/x"}))
	require.True(t, r.HasGroup("g"))
	require.Equal(t, []string{"g"}, r.ModelGroups())
}
