// Package openaicompat adapts OpenAI-compatible APIs to the unified client.
// It layers on the openai provider, adding handling for the
// reasoning_content extension many compatible backends use, and registers
// well-known compatible vendors (groq, xai, cerebras, deepseek, mistral)
// under their own slugs.
package openaicompat

import (
	"os"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/providers/openai"
	"github.com/openai/openai-go/v2/option"
)

// Name is the provider slug used when no vendor name is given.
const Name = "openai-compat"

type options struct {
	openaiOptions        []openai.Option
	languageModelOptions []openai.LanguageModelOption
	sdkOptions           []option.RequestOption
}

// Option configures the provider.
type Option = func(*options)

// New creates an OpenAI-compatible provider.
func New(opts ...Option) litellm.Provider {
	providerOptions := options{
		openaiOptions: []openai.Option{
			openai.WithName(Name),
		},
		languageModelOptions: []openai.LanguageModelOption{
			openai.WithLanguageModelPrepareCallFunc(PrepareCallFunc),
			openai.WithLanguageModelStreamExtraFunc(StreamExtraFunc),
			openai.WithLanguageModelExtraContentFunc(ExtraContentFunc),
		},
	}
	for _, o := range opts {
		o(&providerOptions)
	}

	providerOptions.openaiOptions = append(
		providerOptions.openaiOptions,
		openai.WithSDKOptions(providerOptions.sdkOptions...),
		openai.WithLanguageModelOptions(providerOptions.languageModelOptions...),
	)
	return openai.New(providerOptions.openaiOptions...)
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openai.WithBaseURL(url))
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openai.WithAPIKey(apiKey))
	}
}

// WithName sets the provider name reported by models.
func WithName(name string) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openai.WithName(name))
	}
}

// WithHeaders adds default headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openai.WithHeaders(headers))
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *options) {
		o.openaiOptions = append(o.openaiOptions, openai.WithHTTPClient(client))
	}
}

// WithSDKOptions appends raw openai-go request options.
func WithSDKOptions(opts ...option.RequestOption) Option {
	return func(o *options) {
		o.sdkOptions = append(o.sdkOptions, opts...)
	}
}

// WithLanguageModelOptions customizes the underlying language model hooks.
func WithLanguageModelOptions(opts ...openai.LanguageModelOption) Option {
	return func(o *options) {
		o.languageModelOptions = append(o.languageModelOptions, opts...)
	}
}

// WithUniqueToolCallIDs regenerates tool call IDs, for backends that reuse
// them across calls.
func WithUniqueToolCallIDs() Option {
	return func(o *options) {
		o.languageModelOptions = append(o.languageModelOptions, openai.WithLanguageUniqueToolCallIDs())
	}
}

type vendor struct {
	slug    string
	baseURL string
	envKey  string
}

var vendors = []vendor{
	{slug: "groq", baseURL: "https://api.groq.com/openai/v1", envKey: "GROQ_API_KEY"},
	{slug: "xai", baseURL: "https://api.x.ai/v1", envKey: "XAI_API_KEY"},
	{slug: "cerebras", baseURL: "https://api.cerebras.ai/v1", envKey: "CEREBRAS_API_KEY"},
	{slug: "deepseek", baseURL: "https://api.deepseek.com/v1", envKey: "DEEPSEEK_API_KEY"},
	{slug: "mistral", baseURL: "https://api.mistral.ai/v1", envKey: "MISTRAL_API_KEY"},
}

// VendorBaseURL reports the default base URL for a known vendor slug.
func VendorBaseURL(slug string) (string, bool) {
	for _, v := range vendors {
		if v.slug == slug {
			return v.baseURL, true
		}
	}
	return "", false
}

func init() {
	for _, v := range vendors {
		litellm.Register(v.slug, func() (litellm.Provider, error) {
			return New(
				WithName(v.slug),
				WithBaseURL(v.baseURL),
				WithAPIKey(os.Getenv(v.envKey)),
				WithUniqueToolCallIDs(),
			), nil
		})
	}
}
