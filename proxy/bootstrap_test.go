package proxy

import (
	"testing"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/config"
	"github.com/stretchr/testify/require"
)

func TestBuildRouter_CompatVendorDefaultBaseURL(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		ModelList: []config.ModelEntry{
			{
				ModelName: "llama",
				LiteLLMParams: config.Params{
					Model:  "groq/llama-3.3-70b-versatile",
					APIKey: "gsk-test",
				},
			},
		},
	}

	registry := litellm.NewRegistry()
	rt, err := buildRouter(cfg, registry)
	require.NoError(t, err)
	require.True(t, rt.HasGroup("llama"))

	// The deployment got a scoped provider carrying groq's base URL.
	provider, err := registry.Provider("groq-0")
	require.NoError(t, err)
	require.Equal(t, "groq", provider.Name())
}

func TestBuildRouter_UnknownCompatSlugNeedsBase(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		ModelList: []config.ModelEntry{
			{
				ModelName: "local",
				LiteLLMParams: config.Params{
					Model:  "myserver/llama",
					APIKey: "unused",
				},
			},
		},
	}

	_, err := buildRouter(cfg, litellm.NewRegistry())
	require.ErrorContains(t, err, "needs an api_base")
}

func TestBuildRouter_SelfHostedEndpoint(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		ModelList: []config.ModelEntry{
			{
				ModelName: "local",
				LiteLLMParams: config.Params{
					Model:   "ollama/llama3.1",
					APIBase: "http://localhost:11434/v1",
				},
			},
		},
	}

	registry := litellm.NewRegistry()
	_, err := buildRouter(cfg, registry)
	require.NoError(t, err)

	provider, err := registry.Provider("ollama-0")
	require.NoError(t, err)
	require.Equal(t, "ollama", provider.Name())
}
