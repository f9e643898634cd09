package litellm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	provider string
	model    string
}

func (f fakeModel) Generate(context.Context, Call) (*Response, error) {
	return &Response{Content: ContentList{TextContent{Text: "ok"}}, FinishReason: FinishReasonStop}, nil
}

func (f fakeModel) Stream(context.Context, Call) (StreamResponse, error) {
	return func(yield func(StreamPart) bool) {
		yield(StreamPart{Type: StreamPartTypeFinish, FinishReason: FinishReasonStop})
	}, nil
}

func (f fakeModel) Provider() string { return f.provider }
func (f fakeModel) Model() string    { return f.model }

type fakeProvider struct {
	name string
}

func (f fakeProvider) Name() string { return f.name }

func (f fakeProvider) LanguageModel(modelID string) (LanguageModel, error) {
	return fakeModel{provider: f.name, model: modelID}, nil
}

func TestParseModelID(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		model    string
	}{
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"anthropic/claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5"},
		{"openrouter/meta-llama/llama-3-70b", "openrouter", "meta-llama/llama-3-70b"},
		{"gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"bedrock/anthropic.claude-sonnet-4-5-v1:0", "bedrock", "anthropic.claude-sonnet-4-5-v1:0"},
	}
	for _, tt := range tests {
		provider, model := ParseModelID(tt.in)
		require.Equal(t, tt.provider, provider, "provider for %q", tt.in)
		require.Equal(t, tt.model, model, "model for %q", tt.in)
	}
}

func TestRegistryResolvesPrefixedModel(t *testing.T) {
	r := NewRegistry()
	r.RegisterProvider("groq", fakeProvider{name: "groq"})

	model, err := r.LanguageModel("groq/llama-3.3-70b-versatile")
	require.NoError(t, err)
	require.Equal(t, "groq", model.Provider())
	require.Equal(t, "llama-3.3-70b-versatile", model.Model())
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.LanguageModel("nope/some-model")
	require.Error(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, "unknown provider", e.Title)
}

func TestRegistryLazyFactoryCachesProvider(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("openai", func() (Provider, error) {
		calls++
		return fakeProvider{name: "openai"}, nil
	})

	_, err := r.Provider("openai")
	require.NoError(t, err)
	_, err = r.Provider("openai")
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRegistryFactoryError(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", func() (Provider, error) {
		return nil, errors.New("missing api key")
	})

	_, err := r.Provider("broken")
	require.ErrorContains(t, err, "missing api key")
}

func TestRegistryCapabilityErrors(t *testing.T) {
	r := NewRegistry()
	r.RegisterProvider("textonly", fakeProvider{name: "textonly"})

	_, err := r.EmbeddingModel("textonly/some-model")
	require.ErrorContains(t, err, "does not support embeddings")

	_, err = r.ImageModel("textonly/some-model")
	require.ErrorContains(t, err, "does not support image generation")

	_, err = r.RerankModel("textonly/some-model")
	require.ErrorContains(t, err, "does not support reranking")
}

func TestRegistryProvidersSorted(t *testing.T) {
	r := NewRegistry()
	r.RegisterProvider("openai", fakeProvider{name: "openai"})
	r.Register("anthropic", func() (Provider, error) { return fakeProvider{name: "anthropic"}, nil })
	r.RegisterProvider("groq", fakeProvider{name: "groq"})

	require.Equal(t, []string{"anthropic", "groq", "openai"}, r.Providers())
}
