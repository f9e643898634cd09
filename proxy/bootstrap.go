package proxy

import (
	"fmt"
	"log/slog"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/config"
	"github.com/BerriAI/litellm-go/providers/anthropic"
	"github.com/BerriAI/litellm-go/providers/azure"
	"github.com/BerriAI/litellm-go/providers/cohere"
	"github.com/BerriAI/litellm-go/providers/google"
	"github.com/BerriAI/litellm-go/providers/openai"
	"github.com/BerriAI/litellm-go/providers/openaicompat"
	"github.com/BerriAI/litellm-go/providers/openrouter"
	"github.com/BerriAI/litellm-go/router"

	_ "github.com/BerriAI/litellm-go/providers/bedrock"
)

// buildRouter translates the model list into router deployments. Entries
// that carry explicit credentials get a dedicated provider instance
// registered under a scoped slug, so two deployments of the same provider
// can point at different accounts.
func buildRouter(cfg *config.Config, registry *litellm.Registry) (*router.Router, error) {
	rt, err := router.New(registry, cfg.RouterConfig())
	if err != nil {
		return nil, err
	}

	for i, entry := range cfg.ModelList {
		params := entry.LiteLLMParams
		dep := router.Deployment{
			ModelGroup: entry.ModelName,
			ModelID:    params.Model,
			RPM:        params.RPM,
			TPM:        params.TPM,
			Weight:     params.Weight,
		}

		if params.APIKey != "" || params.APIBase != "" || params.APIVersion != "" {
			providerName, model := litellm.ParseModelID(params.Model)
			scoped, err := buildProvider(providerName, params)
			if err != nil {
				return nil, fmt.Errorf("model_list[%d] (%s): %w", i, entry.ModelName, err)
			}
			if scoped == nil {
				slog.Warn("provider does not support per-deployment credentials; using environment configuration",
					"model", params.Model)
			} else {
				slug := fmt.Sprintf("%s-%d", providerName, i)
				registry.RegisterProvider(slug, scoped)
				dep.ModelID = slug + "/" + model
			}
		}

		if err := rt.AddDeployment(dep); err != nil {
			return nil, fmt.Errorf("model_list[%d] (%s): %w", i, entry.ModelName, err)
		}
	}
	return rt, nil
}

// buildProvider constructs a provider instance with deployment credentials.
// Returns nil for providers whose credentials only come from the
// environment.
func buildProvider(name string, params config.Params) (litellm.Provider, error) {
	switch name {
	case "openai":
		var opts []openai.Option
		if params.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(params.APIKey))
		}
		if params.APIBase != "" {
			opts = append(opts, openai.WithBaseURL(params.APIBase))
		}
		return openai.New(opts...), nil

	case "azure":
		var opts []azure.Option
		if params.APIKey != "" {
			opts = append(opts, azure.WithAPIKey(params.APIKey))
		}
		if params.APIBase != "" {
			opts = append(opts, azure.WithBaseURL(params.APIBase))
		}
		if params.APIVersion != "" {
			opts = append(opts, azure.WithAPIVersion(params.APIVersion))
		}
		return azure.New(opts...), nil

	case "anthropic":
		var opts []anthropic.Option
		if params.APIKey != "" {
			opts = append(opts, anthropic.WithAPIKey(params.APIKey))
		}
		if params.APIBase != "" {
			opts = append(opts, anthropic.WithBaseURL(params.APIBase))
		}
		return anthropic.New(opts...), nil

	case "gemini", "google", "vertex_ai":
		var opts []google.Option
		if params.APIKey != "" {
			opts = append(opts, google.WithAPIKey(params.APIKey))
		}
		if params.APIBase != "" {
			opts = append(opts, google.WithBaseURL(params.APIBase))
		}
		return google.New(opts...), nil

	case "openrouter":
		var opts []openrouter.Option
		if params.APIKey != "" {
			opts = append(opts, openrouter.WithAPIKey(params.APIKey))
		}
		if params.APIBase != "" {
			opts = append(opts, openrouter.WithBaseURL(params.APIBase))
		}
		return openrouter.New(opts...), nil

	case "cohere":
		var opts []cohere.Option
		if params.APIKey != "" {
			opts = append(opts, cohere.WithAPIKey(params.APIKey))
		}
		if params.APIBase != "" {
			opts = append(opts, cohere.WithBaseURL(params.APIBase))
		}
		return cohere.New(opts...), nil

	case "bedrock":
		// AWS credentials come from the default credential chain.
		return nil, nil

	default:
		// Known compat vendors (groq, xai, ...) carry their base URLs;
		// other slugs are self-hosted OpenAI-compatible endpoints (vLLM,
		// Ollama, LM Studio) and must say where they live.
		baseURL := params.APIBase
		if baseURL == "" {
			vendorURL, ok := openaicompat.VendorBaseURL(name)
			if !ok {
				return nil, fmt.Errorf("provider %q needs an api_base to be used as an OpenAI-compatible endpoint", name)
			}
			baseURL = vendorURL
		}
		opts := []openaicompat.Option{
			openaicompat.WithName(name),
			openaicompat.WithBaseURL(baseURL),
		}
		if params.APIKey != "" {
			opts = append(opts, openaicompat.WithAPIKey(params.APIKey))
		}
		return openaicompat.New(opts...), nil
	}
}
