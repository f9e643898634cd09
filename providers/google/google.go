// Package google adapts Google's Gemini models, through either the Gemini
// API or Vertex AI, to the unified client interface.
package google

import (
	"context"
	"maps"
	"net/http"
	"os"

	litellm "github.com/BerriAI/litellm-go"
	"google.golang.org/genai"
)

// Name is the provider options key for Google-specific settings.
const Name = "google"

func init() {
	litellm.Register("gemini", func() (litellm.Provider, error) {
		return New(
			WithName("gemini"),
			WithAPIKey(os.Getenv("GEMINI_API_KEY")),
		), nil
	})
	litellm.Register("vertex_ai", func() (litellm.Provider, error) {
		return New(
			WithName("vertex_ai"),
			WithVertex(os.Getenv("VERTEXAI_PROJECT"), os.Getenv("VERTEXAI_LOCATION")),
		), nil
	})
}

type options struct {
	apiKey   string
	baseURL  string
	name     string
	vertex   bool
	project  string
	location string
	headers  map[string]string
	client   *http.Client
	creds    credentialsProvider
}

// Option configures the Google provider.
type Option = func(*options)

type provider struct {
	options options
}

// New creates a Google provider. The default backend is the Gemini API;
// WithVertex switches to Vertex AI.
func New(opts ...Option) litellm.Provider {
	options := options{
		headers: map[string]string{},
		name:    Name,
	}
	for _, o := range opts {
		o(&options)
	}
	return &provider{options: options}
}

// WithAPIKey sets the Gemini API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithName overrides the provider name reported on models.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithVertex routes requests through Vertex AI for the given project and
// location, authenticating via application default credentials unless
// WithTokenSource is also set.
func WithVertex(project, location string) Option {
	return func(o *options) {
		o.vertex = true
		o.project = project
		o.location = location
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		maps.Copy(o.headers, headers)
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// Name implements litellm.Provider.
func (g *provider) Name() string {
	return g.options.name
}

// LanguageModel implements litellm.Provider.
func (g *provider) LanguageModel(modelID string) (litellm.LanguageModel, error) {
	cc := &genai.ClientConfig{
		HTTPClient: g.options.client,
	}
	if g.options.vertex {
		cc.Backend = genai.BackendVertexAI
		cc.Project = g.options.project
		cc.Location = g.options.location
		if g.options.creds != nil {
			creds, err := g.options.creds()
			if err != nil {
				return nil, err
			}
			cc.Credentials = creds
		}
	} else {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = g.options.apiKey
	}
	if g.options.baseURL != "" {
		cc.HTTPOptions.BaseURL = g.options.baseURL
	}
	if len(g.options.headers) > 0 {
		cc.HTTPOptions.Headers = http.Header{}
		for k, v := range g.options.headers {
			cc.HTTPOptions.Headers.Set(k, v)
		}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, err
	}
	return &languageModel{
		modelID:  modelID,
		provider: g.options.name,
		client:   client,
	}, nil
}
