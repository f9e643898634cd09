package proxy

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/proxy/openaiapi"
)

func chatRequest(t *testing.T, body string) *openaiapi.ChatCompletionRequest {
	t.Helper()
	var req openaiapi.ChatCompletionRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestCallFromChatRequest_Messages(t *testing.T) {
	t.Parallel()

	req := chatRequest(t, `{
		"model": "gpt-test",
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": "what is the capital of france?"},
			{"role": "assistant", "content": "let me check", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{\"q\":\"france\"}"}}
			]},
			{"role": "tool", "tool_call_id": "call_1", "name": "lookup", "content": "Paris"}
		]
	}`)

	call, err := callFromChatRequest(req)
	require.NoError(t, err)
	require.Len(t, call.Prompt, 4)

	require.Equal(t, litellm.MessageRoleSystem, call.Prompt[0].Role)
	require.Equal(t, litellm.MessageRoleUser, call.Prompt[1].Role)

	assistant := call.Prompt[2]
	require.Equal(t, litellm.MessageRoleAssistant, assistant.Role)
	require.Len(t, assistant.Content, 2)
	toolCall, ok := litellm.AsPartType[litellm.ToolCallPart](assistant.Content[1])
	require.True(t, ok)
	require.Equal(t, "call_1", toolCall.ToolCallID)
	require.Equal(t, "lookup", toolCall.ToolName)

	tool := call.Prompt[3]
	require.Equal(t, litellm.MessageRoleTool, tool.Role)
	result, ok := litellm.AsPartType[litellm.ToolResultPart](tool.Content[0])
	require.True(t, ok)
	require.Equal(t, "Paris", result.Output)
}

func TestCallFromChatRequest_MultimodalContent(t *testing.T) {
	t.Parallel()

	pixel := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})
	req := chatRequest(t, `{
		"model": "gpt-test",
		"messages": [{"role": "user", "content": [
			{"type": "text", "text": "what is in this image?"},
			{"type": "image_url", "image_url": {"url": "data:image/png;base64,`+pixel+`"}},
			{"type": "image_url", "image_url": {"url": "https://example.com/cat.jpg"}}
		]}]
	}`)

	call, err := callFromChatRequest(req)
	require.NoError(t, err)
	require.Len(t, call.Prompt, 1)
	require.Len(t, call.Prompt[0].Content, 3)

	inline, ok := litellm.AsPartType[litellm.FilePart](call.Prompt[0].Content[1])
	require.True(t, ok)
	require.Equal(t, "image/png", inline.MediaType)
	require.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, inline.Data)

	remote, ok := litellm.AsPartType[litellm.FilePart](call.Prompt[0].Content[2])
	require.True(t, ok)
	require.Equal(t, "https://example.com/cat.jpg", remote.URL)
	require.Empty(t, remote.Data)
}

func TestCallFromChatRequest_Params(t *testing.T) {
	t.Parallel()

	req := chatRequest(t, `{
		"model": "gpt-test",
		"messages": [{"role": "user", "content": "hi"}],
		"max_completion_tokens": 512,
		"temperature": 0.2,
		"top_p": 0.9,
		"seed": 42,
		"stop": ["END", "STOP"],
		"response_format": {"type": "json_object"}
	}`)

	call, err := callFromChatRequest(req)
	require.NoError(t, err)
	require.EqualValues(t, 512, *call.MaxOutputTokens)
	require.InDelta(t, 0.2, *call.Temperature, 1e-9)
	require.InDelta(t, 0.9, *call.TopP, 1e-9)
	require.EqualValues(t, 42, *call.Seed)
	require.Equal(t, []string{"END", "STOP"}, call.StopSequences)
	require.Equal(t, litellm.ResponseFormatTypeJSON, call.ResponseFormat.Type)
}

func TestToolChoiceFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want litellm.ToolChoice
	}{
		{name: "auto", raw: `"auto"`, want: litellm.ToolChoiceAuto},
		{name: "required maps to auto", raw: `"required"`, want: litellm.ToolChoiceAuto},
		{name: "none", raw: `"none"`, want: litellm.ToolChoiceNone},
		{name: "specific function", raw: `{"type":"function","function":{"name":"get_weather"}}`, want: litellm.ToolChoice("get_weather")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			choice, err := toolChoiceFromRequest(json.RawMessage(tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.want, *choice)
		})
	}

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		_, err := toolChoiceFromRequest(json.RawMessage(`"sometimes"`))
		require.Error(t, err)
	})
}

func TestCallFromChatRequest_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty messages", func(t *testing.T) {
		t.Parallel()
		_, err := callFromChatRequest(chatRequest(t, `{"model": "m", "messages": []}`))
		require.ErrorContains(t, err, "must not be empty")
	})

	t.Run("unsupported role", func(t *testing.T) {
		t.Parallel()
		_, err := callFromChatRequest(chatRequest(t, `{"model": "m", "messages": [{"role": "narrator", "content": "x"}]}`))
		require.ErrorContains(t, err, `unsupported role "narrator"`)
	})

	t.Run("unsupported tool type", func(t *testing.T) {
		t.Parallel()
		_, err := callFromChatRequest(chatRequest(t, `{
			"model": "m",
			"messages": [{"role": "user", "content": "x"}],
			"tools": [{"type": "web_search", "function": {"name": "x"}}]
		}`))
		require.ErrorContains(t, err, "unsupported tool type")
	})
}

func TestChatResponseFromCore(t *testing.T) {
	t.Parallel()

	resp := chatResponseFromCore("gpt-test", &litellm.Response{
		Content: litellm.ContentList{
			litellm.ReasoningContent{Text: "thinking it over"},
			litellm.TextContent{Text: "the answer"},
		},
		Usage:        litellm.Usage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120, CacheReadTokens: 40},
		FinishReason: litellm.FinishReasonStop,
	})

	require.Equal(t, "gpt-test", resp.Model)
	require.Equal(t, "the answer", *resp.Choices[0].Message.Content)
	require.Equal(t, "thinking it over", resp.Choices[0].Message.ReasoningContent)
	require.EqualValues(t, 100, resp.Usage.PromptTokens)
	require.NotNil(t, resp.Usage.PromptTokensDetails)
	require.EqualValues(t, 40, resp.Usage.PromptTokensDetails.CachedTokens)
}

func TestStreamTranslator_ToolCalls(t *testing.T) {
	t.Parallel()

	translator := newStreamTranslator("gpt-test", false)

	start := translator.chunk(litellm.StreamPart{
		Type:         litellm.StreamPartTypeToolInputStart,
		ID:           "call_1",
		ToolCallName: "get_weather",
	})
	require.NotNil(t, start)
	require.Equal(t, "assistant", start.Choices[0].Delta.Role)
	require.Equal(t, "call_1", start.Choices[0].Delta.ToolCalls[0].ID)
	require.Equal(t, "get_weather", start.Choices[0].Delta.ToolCalls[0].Function.Name)

	delta := translator.chunk(litellm.StreamPart{
		Type:  litellm.StreamPartTypeToolInputDelta,
		ID:    "call_1",
		Delta: `{"city":`,
	})
	require.NotNil(t, delta)
	require.Equal(t, 0, delta.Choices[0].Delta.ToolCalls[0].Index)
	require.Equal(t, `{"city":`, delta.Choices[0].Delta.ToolCalls[0].Function.Arguments)

	// Block boundaries produce no frames.
	require.Nil(t, translator.chunk(litellm.StreamPart{Type: litellm.StreamPartTypeToolInputEnd, ID: "call_1"}))

	translator.chunk(litellm.StreamPart{
		Type:         litellm.StreamPartTypeFinish,
		FinishReason: litellm.FinishReasonToolCalls,
	})
	final := translator.finishChunk()
	require.Equal(t, "tool_calls", *final.Choices[0].FinishReason)
	require.Nil(t, final.Usage)
}
