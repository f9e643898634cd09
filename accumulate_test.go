package litellm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func streamOf(parts ...StreamPart) StreamResponse {
	return func(yield func(StreamPart) bool) {
		for _, p := range parts {
			if !yield(p) {
				return
			}
		}
	}
}

func TestAccumulateStreamText(t *testing.T) {
	resp, err := AccumulateStream(streamOf(
		StreamPart{Type: StreamPartTypeTextStart, ID: "0"},
		StreamPart{Type: StreamPartTypeTextDelta, ID: "0", Delta: "Hello, "},
		StreamPart{Type: StreamPartTypeTextDelta, ID: "0", Delta: "world"},
		StreamPart{Type: StreamPartTypeTextEnd, ID: "0"},
		StreamPart{
			Type:         StreamPartTypeFinish,
			FinishReason: FinishReasonStop,
			Usage:        Usage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5},
		},
	))
	require.NoError(t, err)
	require.Equal(t, "Hello, world", resp.Content.Text())
	require.Equal(t, FinishReasonStop, resp.FinishReason)
	require.Equal(t, int64(5), resp.Usage.TotalTokens)
}

func TestAccumulateStreamReasoningBeforeText(t *testing.T) {
	resp, err := AccumulateStream(streamOf(
		StreamPart{Type: StreamPartTypeReasoningStart, ID: "r"},
		StreamPart{Type: StreamPartTypeReasoningDelta, ID: "r", Delta: "thinking..."},
		StreamPart{Type: StreamPartTypeReasoningEnd, ID: "r"},
		StreamPart{Type: StreamPartTypeTextDelta, ID: "0", Delta: "answer"},
		StreamPart{Type: StreamPartTypeFinish, FinishReason: FinishReasonStop},
	))
	require.NoError(t, err)
	require.Len(t, resp.Content, 2)
	require.Equal(t, ContentTypeReasoning, resp.Content[0].ContentType())
	require.Equal(t, "thinking...", resp.Content.Reasoning())
	require.Equal(t, "answer", resp.Content.Text())
}

func TestAccumulateStreamToolCall(t *testing.T) {
	resp, err := AccumulateStream(streamOf(
		StreamPart{Type: StreamPartTypeToolInputStart, ID: "call_1", ToolCallName: "get_weather"},
		StreamPart{Type: StreamPartTypeToolInputDelta, ID: "call_1", Delta: `{"city":`},
		StreamPart{Type: StreamPartTypeToolInputDelta, ID: "call_1", Delta: `"Paris"}`},
		StreamPart{Type: StreamPartTypeToolInputEnd, ID: "call_1"},
		StreamPart{
			Type:          StreamPartTypeToolCall,
			ID:            "call_1",
			ToolCallName:  "get_weather",
			ToolCallInput: `{"city":"Paris"}`,
		},
		StreamPart{Type: StreamPartTypeFinish, FinishReason: FinishReasonToolCalls},
	))
	require.NoError(t, err)
	calls := resp.Content.ToolCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "call_1", calls[0].ToolCallID)
	require.Equal(t, "get_weather", calls[0].ToolName)
	require.JSONEq(t, `{"city":"Paris"}`, calls[0].Input)
	require.Equal(t, FinishReasonToolCalls, resp.FinishReason)
}

func TestAccumulateStreamError(t *testing.T) {
	boom := errors.New("boom")
	_, err := AccumulateStream(streamOf(
		StreamPart{Type: StreamPartTypeTextDelta, ID: "0", Delta: "partial"},
		StreamPart{Type: StreamPartTypeError, Error: boom},
	))
	require.ErrorIs(t, err, boom)
}

func TestRepairToolInput(t *testing.T) {
	require.Equal(t, "{}", RepairToolInput(""))
	require.Equal(t, `{"a":1}`, RepairToolInput(`{"a":1}`))
	// truncated JSON gets repaired into something parseable
	require.JSONEq(t, `{"a":1}`, RepairToolInput(`{"a":1`))
}
