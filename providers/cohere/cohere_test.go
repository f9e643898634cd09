package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/stretchr/testify/require"
)

func TestRerank(t *testing.T) {
	t.Parallel()

	var requestBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/rerank", r.URL.Path)
		require.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&requestBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "rerank-1",
			"results": []any{
				map[string]any{"index": 2, "relevance_score": 0.98},
				map[string]any{"index": 0, "relevance_score": 0.32},
			},
			"meta": map[string]any{
				"billed_units": map[string]any{"search_units": 1},
			},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL))
	rerankProvider, ok := provider.(litellm.RerankProvider)
	require.True(t, ok)

	model, err := rerankProvider.RerankModel("rerank-v3.5")
	require.NoError(t, err)

	topN := int64(2)
	documents := []string{"about dogs", "about planes", "about cats"}
	response, err := model.Rerank(context.Background(), litellm.RerankCall{
		Query:           "what do cats eat",
		Documents:       documents,
		TopN:            &topN,
		ReturnDocuments: true,
	})
	require.NoError(t, err)
	require.Equal(t, "rerank-v3.5", response.Model)
	require.Len(t, response.Results, 2)
	require.Equal(t, 2, response.Results[0].Index)
	require.InDelta(t, 0.98, response.Results[0].RelevanceScore, 0.001)
	require.Equal(t, "about cats", response.Results[0].Document)
	require.Equal(t, "about dogs", response.Results[1].Document)

	require.Equal(t, "rerank-v3.5", requestBody["model"])
	require.Equal(t, "what do cats eat", requestBody["query"])
	require.Equal(t, float64(2), requestBody["top_n"])
}

func TestRerank_Validation(t *testing.T) {
	t.Parallel()

	provider := New(WithAPIKey("test-api-key"))
	model, err := provider.(litellm.RerankProvider).RerankModel("rerank-v3.5")
	require.NoError(t, err)

	_, err = model.Rerank(context.Background(), litellm.RerankCall{
		Query: "no documents",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one document")
}

func TestRerank_ErrorResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "rate limit exceeded",
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL))
	model, err := provider.(litellm.RerankProvider).RerankModel("rerank-v3.5")
	require.NoError(t, err)

	_, err = model.Rerank(context.Background(), litellm.RerankCall{
		Query:     "q",
		Documents: []string{"d"},
	})
	require.Error(t, err)

	var providerErr *litellm.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	require.Equal(t, "rate limit exceeded", providerErr.Message)
	require.True(t, providerErr.Retryable())
	require.Equal(t, float64(7), providerErr.RetryAfter().Seconds())
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	var requestBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/embed", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&requestBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "embed-1",
			"embeddings": map[string]any{
				"float": []any{
					[]any{0.1, 0.2, 0.3},
					[]any{0.4, 0.5, 0.6},
				},
			},
			"meta": map[string]any{
				"billed_units": map[string]any{"input_tokens": 12},
			},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL))
	model, err := provider.(litellm.EmbeddingProvider).EmbeddingModel("embed-v4.0")
	require.NoError(t, err)

	response, err := model.Embed(context.Background(), litellm.EmbeddingCall{
		Inputs: []string{"hello", "world"},
		ProviderOptions: NewProviderOptions(&ProviderOptions{
			InputType: "search_query",
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "embed-v4.0", response.Model)
	require.Len(t, response.Embeddings, 2)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, response.Embeddings[0].Vector)
	require.Equal(t, 1, response.Embeddings[1].Index)
	require.Equal(t, int64(12), response.Usage.InputTokens)

	require.Equal(t, "search_query", requestBody["input_type"])
	require.Equal(t, []any{"hello", "world"}, requestBody["texts"])
	require.Equal(t, []any{"float"}, requestBody["embedding_types"])
}

func TestLanguageModelUnsupported(t *testing.T) {
	t.Parallel()

	provider := New(WithAPIKey("test-api-key"))
	_, err := provider.LanguageModel("command-r")
	require.Error(t, err)
	require.Contains(t, err.Error(), "embeddings and reranking only")
}
