package proxy

import (
	"time"

	"github.com/google/uuid"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/proxy/openaiapi"
)

// streamTranslator turns core stream parts into OpenAI chat completion
// chunks. One translator serves one response; all chunks share its ID.
type streamTranslator struct {
	id           string
	model        string
	created      int64
	includeUsage bool

	sentRole  bool
	toolIndex map[string]int
	usage     litellm.Usage
	finish    litellm.FinishReason
}

func newStreamTranslator(model string, includeUsage bool) *streamTranslator {
	return &streamTranslator{
		id:           "chatcmpl-" + uuid.NewString(),
		model:        model,
		created:      time.Now().Unix(),
		includeUsage: includeUsage,
		toolIndex:    make(map[string]int),
	}
}

func (t *streamTranslator) newChunk(delta openaiapi.ChunkDelta, finishReason *string) *openaiapi.ChatCompletionChunk {
	if !t.sentRole {
		delta.Role = "assistant"
		t.sentRole = true
	}
	return &openaiapi.ChatCompletionChunk{
		ID:      t.id,
		Object:  "chat.completion.chunk",
		Created: t.created,
		Model:   t.model,
		Choices: []openaiapi.ChunkChoice{{Delta: delta, FinishReason: finishReason}},
	}
}

// chunk translates one stream part. Parts that carry no wire content (block
// boundaries, warnings) return nil.
func (t *streamTranslator) chunk(part litellm.StreamPart) *openaiapi.ChatCompletionChunk {
	switch part.Type {
	case litellm.StreamPartTypeTextDelta:
		if part.Delta == "" {
			return nil
		}
		return t.newChunk(openaiapi.ChunkDelta{Content: part.Delta}, nil)

	case litellm.StreamPartTypeReasoningDelta:
		if part.Delta == "" {
			return nil
		}
		return t.newChunk(openaiapi.ChunkDelta{ReasoningContent: part.Delta}, nil)

	case litellm.StreamPartTypeToolInputStart:
		index := len(t.toolIndex)
		t.toolIndex[part.ID] = index
		return t.newChunk(openaiapi.ChunkDelta{ToolCalls: []openaiapi.ToolCallDelta{{
			Index:    index,
			ID:       part.ID,
			Type:     "function",
			Function: openaiapi.FunctionCall{Name: part.ToolCallName},
		}}}, nil)

	case litellm.StreamPartTypeToolInputDelta:
		index, ok := t.toolIndex[part.ID]
		if !ok || part.Delta == "" {
			return nil
		}
		return t.newChunk(openaiapi.ChunkDelta{ToolCalls: []openaiapi.ToolCallDelta{{
			Index:    index,
			Function: openaiapi.FunctionCall{Arguments: part.Delta},
		}}}, nil)

	case litellm.StreamPartTypeFinish:
		t.usage = part.Usage
		t.finish = part.FinishReason
		return nil

	default:
		return nil
	}
}

// finishChunk is the terminal chunk carrying the finish reason and, when
// requested, the usage block.
func (t *streamTranslator) finishChunk() *openaiapi.ChatCompletionChunk {
	reason := finishReasonToWire(t.finish)
	chunk := t.newChunk(openaiapi.ChunkDelta{}, &reason)
	if t.includeUsage {
		chunk.Usage = usageToWire(t.usage)
	}
	return chunk
}
