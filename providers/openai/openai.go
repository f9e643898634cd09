// Package openai adapts OpenAI's API (and OpenAI-compatible backends) to the
// unified client. It provides language, embedding, and image models.
package openai

import (
	"cmp"
	"maps"
	"os"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	// Name is the provider slug.
	Name = "openai"
	// DefaultURL is the OpenAI API base URL.
	DefaultURL = "https://api.openai.com/v1"
)

func init() {
	litellm.Register(Name, func() (litellm.Provider, error) {
		return New(WithAPIKey(os.Getenv("OPENAI_API_KEY"))), nil
	})
}

type provider struct {
	options options
}

type options struct {
	baseURL              string
	apiKey               string
	organization         string
	project              string
	name                 string
	headers              map[string]string
	client               option.HTTPClient
	sdkOptions           []option.RequestOption
	languageModelOptions []LanguageModelOption
}

// Option configures the provider.
type Option = func(*options)

// New creates an OpenAI provider.
func New(opts ...Option) litellm.Provider {
	providerOptions := options{
		headers: map[string]string{},
	}
	for _, o := range opts {
		o(&providerOptions)
	}

	providerOptions.baseURL = cmp.Or(providerOptions.baseURL, DefaultURL)
	providerOptions.name = cmp.Or(providerOptions.name, Name)

	if providerOptions.organization != "" {
		providerOptions.headers["OpenAi-Organization"] = providerOptions.organization
	}
	if providerOptions.project != "" {
		providerOptions.headers["OpenAi-Project"] = providerOptions.project
	}

	return &provider{options: providerOptions}
}

// WithBaseURL sets the API base URL.
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

// WithOrganization sets the OpenAI organization header.
func WithOrganization(organization string) Option {
	return func(o *options) {
		o.organization = organization
	}
}

// WithProject sets the OpenAI project header.
func WithProject(project string) Option {
	return func(o *options) {
		o.project = project
	}
}

// WithName overrides the provider name reported by models. Used by
// OpenAI-compatible providers layered on this package.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithHeaders adds default headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		maps.Copy(o.headers, headers)
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithSDKOptions appends raw openai-go request options, applied after all
// other client options.
func WithSDKOptions(opts ...option.RequestOption) Option {
	return func(o *options) {
		o.sdkOptions = append(o.sdkOptions, opts...)
	}
}

// WithLanguageModelOptions customizes the language model hooks. Used by
// OpenAI-compatible providers layered on this package.
func WithLanguageModelOptions(opts ...LanguageModelOption) Option {
	return func(o *options) {
		o.languageModelOptions = append(o.languageModelOptions, opts...)
	}
}

func (o *provider) client() openai.Client {
	clientOptions := []option.RequestOption{}
	if o.options.apiKey != "" {
		clientOptions = append(clientOptions, option.WithAPIKey(o.options.apiKey))
	}
	if o.options.baseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(o.options.baseURL))
	}
	for key, value := range o.options.headers {
		clientOptions = append(clientOptions, option.WithHeader(key, value))
	}
	if o.options.client != nil {
		clientOptions = append(clientOptions, option.WithHTTPClient(o.options.client))
	}
	clientOptions = append(clientOptions, o.options.sdkOptions...)
	return openai.NewClient(clientOptions...)
}

// LanguageModel implements litellm.Provider.
func (o *provider) LanguageModel(modelID string) (litellm.LanguageModel, error) {
	return newLanguageModel(
		modelID,
		o.options.name,
		o.client(),
		o.options.languageModelOptions...,
	), nil
}

// EmbeddingModel implements litellm.EmbeddingProvider.
func (o *provider) EmbeddingModel(modelID string) (litellm.EmbeddingModel, error) {
	return embeddingModel{
		provider: o.options.name,
		modelID:  modelID,
		client:   o.client(),
	}, nil
}

// ImageModel implements litellm.ImageProvider.
func (o *provider) ImageModel(modelID string) (litellm.ImageModel, error) {
	return imageModel{
		provider: o.options.name,
		modelID:  modelID,
		client:   o.client(),
	}, nil
}

// Name implements litellm.Provider.
func (o *provider) Name() string {
	return o.options.name
}
