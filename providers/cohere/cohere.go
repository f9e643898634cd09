// Package cohere provides embedding and rerank models backed by the Cohere
// v2 API. Cohere has no Go SDK, so requests are built directly on net/http.
package cohere

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	litellm "github.com/BerriAI/litellm-go"
)

const (
	// Name is the slug of the Cohere provider.
	Name = "cohere"
	// DefaultURL is the Cohere API endpoint.
	DefaultURL = "https://api.cohere.com"
)

func init() {
	litellm.Register(Name, func() (litellm.Provider, error) {
		return New(
			WithAPIKey(os.Getenv("COHERE_API_KEY")),
		), nil
	})
}

type options struct {
	baseURL string
	apiKey  string
	headers map[string]string
	client  *http.Client
}

// Option configures the Cohere provider.
type Option = func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(baseURL, "/")
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

type provider struct {
	options options
}

// New creates a Cohere provider.
func New(opts ...Option) litellm.Provider {
	options := options{
		baseURL: DefaultURL,
		headers: map[string]string{},
	}
	for _, o := range opts {
		o(&options)
	}
	if options.client == nil {
		options.client = newHTTPClient()
	}
	return &provider{options: options}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 120 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		Timeout: 120 * time.Second,
	}
}

// Name implements litellm.Provider.
func (*provider) Name() string {
	return Name
}

// LanguageModel implements litellm.Provider. Cohere is wired for embeddings
// and reranking only.
func (*provider) LanguageModel(modelID string) (litellm.LanguageModel, error) {
	return nil, &litellm.Error{
		Title:   "unsupported operation",
		Message: "cohere models are available for embeddings and reranking only",
	}
}

// EmbeddingModel implements litellm.EmbeddingProvider.
func (p *provider) EmbeddingModel(modelID string) (litellm.EmbeddingModel, error) {
	return &embeddingModel{modelID: modelID, options: p.options}, nil
}

// RerankModel implements litellm.RerankProvider.
func (p *provider) RerankModel(modelID string) (litellm.RerankModel, error) {
	return &rerankModel{modelID: modelID, options: p.options}, nil
}

func (o options) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
}

// errorFromResponse turns a non-2xx Cohere response into a ProviderError.
func errorFromResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &litellm.ProviderError{
			Title:      litellm.ErrorTitleForStatusCode(resp.StatusCode),
			Message:    fmt.Sprintf("failed to read error response body: %v", err),
			Cause:      err,
			Provider:   Name,
			StatusCode: resp.StatusCode,
		}
	}

	var envelope struct {
		Message string `json:"message"`
	}
	message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Message != "" {
		message = envelope.Message
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[strings.ToLower(key)] = resp.Header.Get(key)
	}

	return &litellm.ProviderError{
		Title:           litellm.ErrorTitleForStatusCode(resp.StatusCode),
		Message:         message,
		Provider:        Name,
		StatusCode:      resp.StatusCode,
		ResponseBody:    body,
		ResponseHeaders: headers,
	}
}
