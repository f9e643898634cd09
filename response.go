package litellm

import "iter"

// FinishReason reports why generation stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
	FinishReasonUnknown       FinishReason = "unknown"
)

// Usage reports token consumption for a call.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	ReasoningTokens  int64 `json:"reasoning_tokens,omitempty"`
	CacheReadTokens  int64 `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens int64 `json:"cache_write_tokens,omitempty"`
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:      u.InputTokens + other.InputTokens,
		OutputTokens:     u.OutputTokens + other.OutputTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
		ReasoningTokens:  u.ReasoningTokens + other.ReasoningTokens,
		CacheReadTokens:  u.CacheReadTokens + other.CacheReadTokens,
		CacheWriteTokens: u.CacheWriteTokens + other.CacheWriteTokens,
	}
}

// ContentType identifies the kind of a response content block.
type ContentType string

const (
	ContentTypeText      ContentType = "text"
	ContentTypeReasoning ContentType = "reasoning"
	ContentTypeToolCall  ContentType = "tool_call"
	ContentTypeSource    ContentType = "source"
)

// Content is one block of model output.
type Content interface {
	ContentType() ContentType
}

// TextContent is generated text.
type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) ContentType() ContentType { return ContentTypeText }

// ReasoningContent is model reasoning text, when the provider exposes it.
type ReasoningContent struct {
	Text string `json:"text"`

	ProviderMetadata ProviderMetadata `json:"provider_metadata,omitempty"`
}

func (ReasoningContent) ContentType() ContentType { return ContentTypeReasoning }

// ToolCallContent is a tool invocation requested by the model.
type ToolCallContent struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	// Input is the raw JSON argument payload.
	Input string `json:"input"`
	// ProviderExecuted is true when the provider ran the tool itself.
	ProviderExecuted bool `json:"provider_executed,omitempty"`
}

func (ToolCallContent) ContentType() ContentType { return ContentTypeToolCall }

// SourceType identifies the origin kind of a citation.
type SourceType string

const SourceTypeURL SourceType = "url"

// SourceContent is a citation attached to the response.
type SourceContent struct {
	SourceType SourceType `json:"source_type"`
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Title      string     `json:"title,omitempty"`
}

func (SourceContent) ContentType() ContentType { return ContentTypeSource }

// ContentList is the ordered output blocks of a response.
type ContentList []Content

// Text concatenates all text blocks.
func (c ContentList) Text() string {
	var out string
	for _, block := range c {
		if t, ok := block.(TextContent); ok {
			out += t.Text
		}
	}
	return out
}

// Reasoning concatenates all reasoning blocks.
func (c ContentList) Reasoning() string {
	var out string
	for _, block := range c {
		if r, ok := block.(ReasoningContent); ok {
			out += r.Text
		}
	}
	return out
}

// ToolCalls returns all tool call blocks.
func (c ContentList) ToolCalls() []ToolCallContent {
	var calls []ToolCallContent
	for _, block := range c {
		if tc, ok := block.(ToolCallContent); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// Response is a completed language model generation.
type Response struct {
	Content      ContentList  `json:"content"`
	Usage        Usage        `json:"usage"`
	FinishReason FinishReason `json:"finish_reason"`

	Warnings         []CallWarning    `json:"warnings,omitempty"`
	ProviderMetadata ProviderMetadata `json:"provider_metadata,omitempty"`
}

// StreamPartType identifies the kind of a stream part.
type StreamPartType string

const (
	StreamPartTypeWarnings       StreamPartType = "warnings"
	StreamPartTypeTextStart      StreamPartType = "text_start"
	StreamPartTypeTextDelta      StreamPartType = "text_delta"
	StreamPartTypeTextEnd        StreamPartType = "text_end"
	StreamPartTypeReasoningStart StreamPartType = "reasoning_start"
	StreamPartTypeReasoningDelta StreamPartType = "reasoning_delta"
	StreamPartTypeReasoningEnd   StreamPartType = "reasoning_end"
	StreamPartTypeToolInputStart StreamPartType = "tool_input_start"
	StreamPartTypeToolInputDelta StreamPartType = "tool_input_delta"
	StreamPartTypeToolInputEnd   StreamPartType = "tool_input_end"
	StreamPartTypeToolCall       StreamPartType = "tool_call"
	StreamPartTypeSource         StreamPartType = "source"
	StreamPartTypeFinish         StreamPartType = "finish"
	StreamPartTypeError          StreamPartType = "error"
)

// StreamPart is one event of a streaming generation.
type StreamPart struct {
	Type StreamPartType `json:"type"`
	// ID correlates start/delta/end parts of the same block.
	ID    string `json:"id,omitempty"`
	Delta string `json:"delta,omitempty"`

	ToolCallName  string `json:"tool_call_name,omitempty"`
	ToolCallInput string `json:"tool_call_input,omitempty"`

	SourceType SourceType `json:"source_type,omitempty"`
	URL        string     `json:"url,omitempty"`
	Title      string     `json:"title,omitempty"`

	Usage        Usage        `json:"usage,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`

	Warnings         []CallWarning    `json:"warnings,omitempty"`
	ProviderMetadata ProviderMetadata `json:"provider_metadata,omitempty"`
	Error            error            `json:"-"`
}

// StreamResponse is a push-style sequence of stream parts. Iteration stops
// when the consumer returns false from yield.
type StreamResponse = iter.Seq[StreamPart]
