package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	var requestBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&requestBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o",
			"choices": []any{
				map[string]any{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": "Hi there!",
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     9,
				"completion_tokens": 3,
				"total_tokens":      12,
			},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL))
	model, err := provider.LanguageModel("gpt-4o")
	require.NoError(t, err)

	response, err := model.Generate(context.Background(), litellm.Call{
		Prompt: litellm.Prompt{
			litellm.NewSystemMessage("Be brief."),
			litellm.NewUserTextMessage("Say hi."),
		},
		Temperature: litellm.Opt(0.2),
	})
	require.NoError(t, err)
	require.Equal(t, "Hi there!", response.Content.Text())
	require.Equal(t, litellm.FinishReasonStop, response.FinishReason)
	require.Equal(t, int64(9), response.Usage.InputTokens)
	require.Equal(t, int64(3), response.Usage.OutputTokens)
	require.Equal(t, int64(12), response.Usage.TotalTokens)

	require.Equal(t, "gpt-4o", requestBody["model"])
	require.InDelta(t, 0.2, requestBody["temperature"].(float64), 0.0001)
	messages := requestBody["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestGenerate_ToolCalls(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-2",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o",
			"choices": []any{
				map[string]any{
					"index": 0,
					"message": map[string]any{
						"role": "assistant",
						"tool_calls": []any{
							map[string]any{
								"id":   "call_abc",
								"type": "function",
								"function": map[string]any{
									"name":      "get_weather",
									"arguments": `{"city":"Berlin"}`,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
			"usage": map[string]any{"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL))
	model, err := provider.LanguageModel("gpt-4o")
	require.NoError(t, err)

	response, err := model.Generate(context.Background(), litellm.Call{
		Prompt: litellm.Prompt{litellm.NewUserTextMessage("Weather in Berlin?")},
		Tools: []litellm.Tool{
			litellm.FunctionTool{
				Name:        "get_weather",
				Description: "Look up the weather for a city.",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"city": map[string]any{"type": "string"}},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, litellm.FinishReasonToolCalls, response.FinishReason)

	calls := response.Content.ToolCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "call_abc", calls[0].ToolCallID)
	require.Equal(t, "get_weather", calls[0].ToolName)
	require.JSONEq(t, `{"city":"Berlin"}`, calls[0].Input)
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	var requestBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&requestBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []any{
				map[string]any{"object": "embedding", "index": 0, "embedding": []float64{0.1, 0.2, 0.3}},
				map[string]any{"object": "embedding", "index": 1, "embedding": []float64{0.4, 0.5, 0.6}},
			},
			"usage": map[string]any{"prompt_tokens": 8, "total_tokens": 8},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL)).(litellm.EmbeddingProvider)
	model, err := provider.EmbeddingModel("text-embedding-3-small")
	require.NoError(t, err)

	response, err := model.Embed(context.Background(), litellm.EmbeddingCall{
		Inputs: []string{"first", "second"},
	})
	require.NoError(t, err)
	require.Len(t, response.Embeddings, 2)
	require.Equal(t, 1, response.Embeddings[1].Index)
	require.InDelta(t, 0.4, response.Embeddings[1].Vector[0], 0.0001)
	require.Equal(t, int64(8), response.Usage.InputTokens)

	require.Equal(t, "text-embedding-3-small", requestBody["model"])
	require.Equal(t, []any{"first", "second"}, requestBody["input"])
}

func TestGenerateImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images/generations", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []any{
				map[string]any{"url": "https://img.example/1.png", "revised_prompt": "a small dog"},
			},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL)).(litellm.ImageProvider)
	model, err := provider.ImageModel("dall-e-3")
	require.NoError(t, err)

	response, err := model.GenerateImage(context.Background(), litellm.ImageCall{
		Prompt: "a small dog",
		Size:   litellm.Opt("1024x1024"),
	})
	require.NoError(t, err)
	require.Equal(t, "dall-e-3", response.Model)
	require.Len(t, response.Images, 1)
	require.Equal(t, "https://img.example/1.png", response.Images[0].URL)
	require.Equal(t, "a small dog", response.Images[0].RevisedPrompt)
}

func TestGenerate_RateLimitError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	// The SDK retries 429s on its own; turn that off so the test sees the
	// first response.
	provider := New(
		WithAPIKey("test-api-key"),
		WithBaseURL(server.URL),
		WithSDKOptions(option.WithMaxRetries(0)),
	)
	model, err := provider.LanguageModel("gpt-4o")
	require.NoError(t, err)

	_, err = model.Generate(context.Background(), litellm.Call{
		Prompt: litellm.Prompt{litellm.NewUserTextMessage("hi")},
	})
	require.Error(t, err)
	require.True(t, litellm.IsRateLimitError(err))
	require.True(t, litellm.IsRetryable(err))

	var providerErr *litellm.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
}

func TestProviderName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "openai", New().Name())
	require.Equal(t, "custom", New(WithName("custom")).Name())
}
