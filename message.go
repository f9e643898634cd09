package litellm

// MessageRole identifies the author of a prompt message.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// Prompt is the ordered conversation sent to a language model.
type Prompt []Message

// Message is a single conversation turn made of typed parts.
type Message struct {
	Role    MessageRole   `json:"role"`
	Content []MessagePart `json:"content"`
}

// PartType identifies the kind of a message part.
type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeReasoning  PartType = "reasoning"
	PartTypeFile       PartType = "file"
	PartTypeToolCall   PartType = "tool_call"
	PartTypeToolResult PartType = "tool_result"
)

// MessagePart is one piece of a message's content.
type MessagePart interface {
	PartType() PartType
}

// TextPart is plain text content.
type TextPart struct {
	Text string `json:"text"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

func (TextPart) PartType() PartType { return PartTypeText }

// ReasoningPart is assistant reasoning fed back into the conversation so
// providers that sign thinking blocks can verify them.
type ReasoningPart struct {
	Text string `json:"text"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

func (ReasoningPart) PartType() PartType { return PartTypeReasoning }

// FilePart is binary content (image, audio, PDF) with a media type.
type FilePart struct {
	MediaType string `json:"media_type"`
	Filename  string `json:"filename,omitempty"`
	Data      []byte `json:"data"`
	// URL is set instead of Data when the file is referenced remotely.
	URL string `json:"url,omitempty"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

func (FilePart) PartType() PartType { return PartTypeFile }

// ToolCallPart records an assistant tool invocation in the conversation.
type ToolCallPart struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	// Input is the raw JSON argument payload.
	Input string `json:"input"`
}

func (ToolCallPart) PartType() PartType { return PartTypeToolCall }

// ToolResultPart carries the output of a previously issued tool call.
type ToolResultPart struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name,omitempty"`
	Output     string `json:"output"`
	IsError    bool   `json:"is_error,omitempty"`
}

func (ToolResultPart) PartType() PartType { return PartTypeToolResult }

// AsPartType narrows a MessagePart to a concrete part type.
func AsPartType[T MessagePart](p MessagePart) (T, bool) {
	v, ok := p.(T)
	return v, ok
}

// NewSystemMessage builds a system message from text.
func NewSystemMessage(text string) Message {
	return Message{Role: MessageRoleSystem, Content: []MessagePart{TextPart{Text: text}}}
}

// NewUserMessage builds a user message from one or more parts. Plain strings
// become text parts.
func NewUserMessage(parts ...MessagePart) Message {
	return Message{Role: MessageRoleUser, Content: parts}
}

// NewUserTextMessage builds a user message with a single text part.
func NewUserTextMessage(text string) Message {
	return Message{Role: MessageRoleUser, Content: []MessagePart{TextPart{Text: text}}}
}

// NewAssistantTextMessage builds an assistant message with a single text part.
func NewAssistantTextMessage(text string) Message {
	return Message{Role: MessageRoleAssistant, Content: []MessagePart{TextPart{Text: text}}}
}

// NewToolResultMessage builds a tool message carrying one tool result.
func NewToolResultMessage(toolCallID, toolName, output string, isError bool) Message {
	return Message{Role: MessageRoleTool, Content: []MessagePart{ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Output:     output,
		IsError:    isError,
	}}}
}
