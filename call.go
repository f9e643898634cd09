package litellm

// ToolChoice controls how the model may use tools. The zero value lets the
// provider decide; ToolChoiceAuto and ToolChoiceNone are special, any other
// value names a specific tool that must be called.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// SpecificToolChoice forces the model to call the named tool.
func SpecificToolChoice(name string) *ToolChoice {
	tc := ToolChoice(name)
	return &tc
}

// ResponseFormatType selects the shape of the model output.
type ResponseFormatType string

const (
	ResponseFormatTypeText       ResponseFormatType = "text"
	ResponseFormatTypeJSON       ResponseFormatType = "json_object"
	ResponseFormatTypeJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat asks the model for structured output.
type ResponseFormat struct {
	Type ResponseFormatType `json:"type"`
	// Name and Schema are used when Type is json_schema.
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// Call is a unified language model request. Sampling parameters are pointers
// so providers can distinguish "unset" from zero values.
type Call struct {
	Prompt Prompt `json:"prompt"`

	MaxOutputTokens  *int64   `json:"max_output_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	TopK             *int64   `json:"top_k,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	StopSequences    []string `json:"stop_sequences,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`

	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

// CallWarningType identifies why a warning was attached to a response.
type CallWarningType string

const (
	CallWarningTypeUnsupportedSetting CallWarningType = "unsupported-setting"
	CallWarningTypeUnsupportedTool    CallWarningType = "unsupported-tool"
	CallWarningTypeOther              CallWarningType = "other"
)

// CallWarning reports a request setting the provider silently dropped or
// adjusted instead of failing the call.
type CallWarning struct {
	Type    CallWarningType `json:"type"`
	Setting string          `json:"setting,omitempty"`
	Tool    Tool            `json:"tool,omitempty"`
	Details string          `json:"details,omitempty"`
	Message string          `json:"message,omitempty"`
}
