// Package azure adapts Azure OpenAI deployments to the unified client.
package azure

import (
	"os"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/providers/openaicompat"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"
)

const (
	// Name is the provider slug.
	Name = "azure"

	defaultAPIVersion = "2025-01-01-preview"
)

func init() {
	litellm.Register(Name, func() (litellm.Provider, error) {
		opts := []Option{
			WithBaseURL(os.Getenv("AZURE_API_BASE")),
			WithAPIKey(os.Getenv("AZURE_API_KEY")),
		}
		if version := os.Getenv("AZURE_API_VERSION"); version != "" {
			opts = append(opts, WithAPIVersion(version))
		}
		return New(opts...), nil
	})
}

type options struct {
	baseURL    string
	apiKey     string
	apiVersion string

	openaiOptions []openaicompat.Option
}

// Option configures the provider.
type Option = func(*options)

// New creates an Azure OpenAI provider.
func New(opts ...Option) litellm.Provider {
	o := options{
		apiVersion: defaultAPIVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return openaicompat.New(
		append(
			o.openaiOptions,
			openaicompat.WithName(Name),
			openaicompat.WithSDKOptions(
				azure.WithEndpoint(o.baseURL, o.apiVersion),
				azure.WithAPIKey(o.apiKey),
			),
		)...,
	)
}

// WithBaseURL sets the Azure resource endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithHeaders adds default headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openaicompat.WithHeaders(headers))
	}
}

// WithAPIVersion overrides the Azure OpenAI API version.
func WithAPIVersion(version string) Option {
	return func(o *options) {
		o.apiVersion = version
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openaicompat.WithHTTPClient(client))
	}
}
