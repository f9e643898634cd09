package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGooglePrompt(t *testing.T) {
	t.Parallel()

	t.Run("system messages become a system instruction", func(t *testing.T) {
		t.Parallel()

		systemInstruction, contents, warnings := toGooglePrompt(litellm.Prompt{
			litellm.NewSystemMessage("Be brief."),
			litellm.NewUserTextMessage("Hi"),
		})
		require.Empty(t, warnings)
		require.NotNil(t, systemInstruction)
		require.Equal(t, "Be brief.", systemInstruction.Parts[0].Text)
		require.Len(t, contents, 1)
		require.Equal(t, genai.RoleUser, contents[0].Role)
	})

	t.Run("late system messages are skipped", func(t *testing.T) {
		t.Parallel()

		systemInstruction, contents, _ := toGooglePrompt(litellm.Prompt{
			litellm.NewSystemMessage("First."),
			litellm.NewUserTextMessage("Hi"),
			litellm.NewSystemMessage("Second."),
		})
		require.NotNil(t, systemInstruction)
		require.Equal(t, "First.", systemInstruction.Parts[0].Text)
		require.Len(t, contents, 1)
	})

	t.Run("assistant messages map to the model role", func(t *testing.T) {
		t.Parallel()

		_, contents, _ := toGooglePrompt(litellm.Prompt{
			litellm.NewUserTextMessage("Hi"),
			litellm.NewAssistantTextMessage("Hello!"),
		})
		require.Len(t, contents, 2)
		require.Equal(t, genai.RoleModel, contents[1].Role)
	})

	t.Run("tool results become function responses", func(t *testing.T) {
		t.Parallel()

		_, contents, _ := toGooglePrompt(litellm.Prompt{
			{
				Role: litellm.MessageRoleAssistant,
				Content: []litellm.MessagePart{
					litellm.ToolCallPart{
						ToolCallID: "call_1",
						ToolName:   "get_weather",
						Input:      `{"city":"Paris"}`,
					},
				},
			},
			litellm.NewToolResultMessage("call_1", "", `{"temp": 21}`, false),
		})
		require.Len(t, contents, 2)

		response := contents[1].Parts[0].FunctionResponse
		require.NotNil(t, response)
		require.Equal(t, "call_1", response.ID)
		require.Equal(t, "get_weather", response.Name, "tool name should be recovered from the matching tool call")
		require.Equal(t, `{"temp": 21}`, response.Response["result"])
	})

	t.Run("inline image data", func(t *testing.T) {
		t.Parallel()

		_, contents, _ := toGooglePrompt(litellm.Prompt{
			litellm.NewUserMessage(
				litellm.TextPart{Text: "What is this?"},
				litellm.FilePart{MediaType: "image/png", Data: []byte{0x89, 0x50}},
			),
		})
		require.Len(t, contents[0].Parts, 2)
		require.NotNil(t, contents[0].Parts[1].InlineData)
		require.Equal(t, "image/png", contents[0].Parts[1].InlineData.MIMEType)
	})
}

func TestPrepareParams_GemmaFoldsSystemMessage(t *testing.T) {
	t.Parallel()

	model := &languageModel{modelID: "gemma-3-27b-it", provider: Name}
	config, contents, _, err := model.prepareParams(litellm.Call{
		Prompt: litellm.Prompt{
			litellm.NewSystemMessage("Be brief."),
			litellm.NewUserTextMessage("Hi"),
		},
	})
	require.NoError(t, err)
	require.Nil(t, config.SystemInstruction)
	require.Len(t, contents, 1)
	require.True(t, strings.HasPrefix(contents[0].Parts[0].Text, "Be brief."))
}

func TestToGoogleTools(t *testing.T) {
	t.Parallel()

	weatherTool := litellm.FunctionTool{
		Name:        "get_weather",
		Description: "Get the weather for a city",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string", "description": "City name"},
				"days": map[string]any{"type": "integer"},
			},
			"required": []any{"city"},
		},
	}

	t.Run("converts function declarations", func(t *testing.T) {
		t.Parallel()

		tools, _, warnings := toGoogleTools([]litellm.Tool{weatherTool}, nil)
		require.Empty(t, warnings)
		require.Len(t, tools, 1)
		require.Equal(t, "get_weather", tools[0].Name)
		require.Equal(t, genai.TypeObject, tools[0].Parameters.Type)
		require.Equal(t, []string{"city"}, tools[0].Parameters.Required)
		require.Equal(t, genai.TypeString, tools[0].Parameters.Properties["city"].Type)
		require.Equal(t, "City name", tools[0].Parameters.Properties["city"].Description)
		require.Equal(t, genai.TypeInteger, tools[0].Parameters.Properties["days"].Type)
	})

	t.Run("auto tool choice", func(t *testing.T) {
		t.Parallel()

		choice := litellm.ToolChoiceAuto
		_, toolConfig, _ := toGoogleTools([]litellm.Tool{weatherTool}, &choice)
		require.Equal(t, genai.FunctionCallingConfigModeAuto, toolConfig.FunctionCallingConfig.Mode)
	})

	t.Run("specific tool choice", func(t *testing.T) {
		t.Parallel()

		_, toolConfig, _ := toGoogleTools([]litellm.Tool{weatherTool}, litellm.SpecificToolChoice("get_weather"))
		require.Equal(t, genai.FunctionCallingConfigModeAny, toolConfig.FunctionCallingConfig.Mode)
		require.Equal(t, []string{"get_weather"}, toolConfig.FunctionCallingConfig.AllowedFunctionNames)
	})
}

func TestParseContextTooLargeError(t *testing.T) {
	t.Parallel()

	providerErr := &litellm.ProviderError{}
	parseContextTooLargeError(
		"The input token count (1500000) exceeds the maximum number of tokens allowed (1048576).",
		providerErr,
	)
	require.True(t, providerErr.ContextTooLargeErr)
	require.Equal(t, 1500000, providerErr.ContextUsedTokens)
	require.Equal(t, 1048576, providerErr.ContextMaxTokens)

	unrelated := &litellm.ProviderError{}
	parseContextTooLargeError("API key not valid", unrelated)
	require.False(t, unrelated.ContextTooLargeErr)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	var requestBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&requestBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role": "model",
						"parts": []any{
							map[string]any{"text": "Bonjour"},
						},
					},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     7,
				"candidatesTokenCount": 2,
				"totalTokenCount":      9,
			},
		})
	}))
	defer server.Close()

	provider := New(WithAPIKey("test-api-key"), WithBaseURL(server.URL))
	model, err := provider.LanguageModel("gemini-2.5-flash")
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", model.Model())
	require.Equal(t, Name, model.Provider())

	response, err := model.Generate(context.Background(), litellm.Call{
		Prompt: litellm.Prompt{litellm.NewUserTextMessage("Say hello in French")},
	})
	require.NoError(t, err)
	require.Equal(t, "Bonjour", response.Content.Text())
	require.Equal(t, litellm.FinishReasonStop, response.FinishReason)
	require.Equal(t, int64(7), response.Usage.InputTokens)
	require.Equal(t, int64(2), response.Usage.OutputTokens)
	require.Equal(t, int64(9), response.Usage.TotalTokens)

	contents, ok := requestBody["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
}

func TestMapFinishReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reason genai.FinishReason
		want   litellm.FinishReason
	}{
		{genai.FinishReasonStop, litellm.FinishReasonStop},
		{genai.FinishReasonMaxTokens, litellm.FinishReasonLength},
		{genai.FinishReasonSafety, litellm.FinishReasonContentFilter},
		{genai.FinishReasonRecitation, litellm.FinishReasonError},
		{genai.FinishReason("SOMETHING_ELSE"), litellm.FinishReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, mapFinishReason(tt.reason))
		})
	}
}
