// Package anthropic adapts Anthropic's Messages API to the unified client.
// It also backs Claude models served through AWS Bedrock via WithBedrock.
package anthropic

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"

	litellm "github.com/BerriAI/litellm-go"
	anthropicsdk "github.com/charmbracelet/anthropic-sdk-go"
	"github.com/charmbracelet/anthropic-sdk-go/bedrock"
	"github.com/charmbracelet/anthropic-sdk-go/option"
	"github.com/charmbracelet/anthropic-sdk-go/packages/param"
	xjson "github.com/charmbracelet/x/json"
)

const (
	// Name is the provider slug.
	Name = "anthropic"
	// DefaultURL is the Anthropic API base URL.
	DefaultURL = "https://api.anthropic.com"

	defaultMaxTokens = int64(4096)
)

func init() {
	litellm.Register(Name, func() (litellm.Provider, error) {
		return New(WithAPIKey(os.Getenv("ANTHROPIC_API_KEY"))), nil
	})
}

type options struct {
	baseURL    string
	apiKey     string
	name       string
	useBedrock bool
	headers    map[string]string
	client     option.HTTPClient
	sdkOptions []option.RequestOption
}

// Option configures the provider.
type Option = func(*options)

type provider struct {
	options options
}

// New creates an Anthropic provider.
func New(opts ...Option) litellm.Provider {
	providerOptions := options{
		headers: map[string]string{},
	}
	for _, o := range opts {
		o(&providerOptions)
	}
	providerOptions.name = cmp.Or(providerOptions.name, Name)
	return &provider{options: providerOptions}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithName overrides the provider name reported by models.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBedrock routes requests through AWS Bedrock instead of the Anthropic
// API. With an API key set, it is used as a Bedrock bearer token; otherwise
// the default AWS credential chain applies.
func WithBedrock() Option {
	return func(o *options) {
		o.useBedrock = true
	}
}

// WithHeaders adds default headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		maps.Copy(o.headers, headers)
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithSDKOptions appends raw anthropic-sdk-go request options.
func WithSDKOptions(opts ...option.RequestOption) Option {
	return func(o *options) {
		o.sdkOptions = append(o.sdkOptions, opts...)
	}
}

func (p *provider) client() (anthropicsdk.Client, error) {
	clientOptions := []option.RequestOption{}
	if p.options.useBedrock {
		if p.options.apiKey != "" {
			clientOptions = append(clientOptions, bedrock.WithConfig(bedrockBasicAuthConfig(p.options.apiKey)))
		} else {
			clientOptions = append(clientOptions, bedrock.WithLoadDefaultConfig(context.Background()))
		}
	} else if p.options.apiKey != "" {
		clientOptions = append(clientOptions, option.WithAPIKey(p.options.apiKey))
	}
	if p.options.baseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(p.options.baseURL))
	}
	for key, value := range p.options.headers {
		clientOptions = append(clientOptions, option.WithHeader(key, value))
	}
	if p.options.client != nil {
		clientOptions = append(clientOptions, option.WithHTTPClient(p.options.client))
	}
	clientOptions = append(clientOptions, p.options.sdkOptions...)
	return anthropicsdk.NewClient(clientOptions...), nil
}

// Name implements litellm.Provider.
func (p *provider) Name() string {
	return p.options.name
}

// LanguageModel implements litellm.Provider.
func (p *provider) LanguageModel(modelID string) (litellm.LanguageModel, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}
	if p.options.useBedrock {
		modelID = bedrockPrefixModelWithRegion(modelID)
	}
	return languageModel{
		modelID:  modelID,
		provider: p.options.name,
		client:   client,
	}, nil
}

type languageModel struct {
	modelID  string
	provider string
	client   anthropicsdk.Client
}

// Model implements litellm.LanguageModel.
func (l languageModel) Model() string {
	return l.modelID
}

// Provider implements litellm.LanguageModel.
func (l languageModel) Provider() string {
	return l.provider
}

func (l languageModel) prepareParams(call litellm.Call) (*anthropicsdk.MessageNewParams, []litellm.CallWarning, error) {
	providerOptions := &ProviderOptions{}
	if v, ok := call.ProviderOptions[Name]; ok {
		providerOptions, ok = v.(*ProviderOptions)
		if !ok {
			return nil, nil, litellm.NewInvalidArgumentError("providerOptions", "anthropic provider options should be *anthropic.ProviderOptions", nil)
		}
	}

	sendReasoning := true
	if providerOptions.SendReasoning != nil {
		sendReasoning = *providerOptions.SendReasoning
	}

	systemBlocks, messages, warnings := toPrompt(call.Prompt, sendReasoning)

	maxTokens := defaultMaxTokens
	if call.MaxOutputTokens != nil {
		maxTokens = *call.MaxOutputTokens
	}

	params := &anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(l.modelID),
		MaxTokens: maxTokens,
		Messages:  messages,
		System:    systemBlocks,
	}

	if call.Temperature != nil {
		params.Temperature = param.NewOpt(*call.Temperature)
	}
	if call.TopP != nil {
		params.TopP = param.NewOpt(*call.TopP)
	}
	if call.TopK != nil {
		params.TopK = param.NewOpt(*call.TopK)
	}
	if len(call.StopSequences) > 0 {
		params.StopSequences = call.StopSequences
	}
	if call.FrequencyPenalty != nil {
		warnings = append(warnings, litellm.CallWarning{
			Type:    litellm.CallWarningTypeUnsupportedSetting,
			Setting: "frequency_penalty",
		})
	}
	if call.PresencePenalty != nil {
		warnings = append(warnings, litellm.CallWarning{
			Type:    litellm.CallWarningTypeUnsupportedSetting,
			Setting: "presence_penalty",
		})
	}
	if call.ResponseFormat != nil && call.ResponseFormat.Type != litellm.ResponseFormatTypeText {
		warnings = append(warnings, litellm.CallWarning{
			Type:    litellm.CallWarningTypeUnsupportedSetting,
			Setting: "response_format",
			Details: "JSON response format is not supported; constrain output via tool use instead",
		})
	}

	if providerOptions.Thinking != nil {
		params.Thinking = anthropicsdk.ThinkingConfigParamUnion{
			OfEnabled: &anthropicsdk.ThinkingConfigEnabledParam{
				BudgetTokens: providerOptions.Thinking.BudgetTokens,
			},
		}
	}

	if providerOptions.Effort != nil {
		switch *providerOptions.Effort {
		case EffortLow, EffortMedium, EffortHigh, EffortMax:
			params.SetExtraFields(map[string]any{
				"output_config": map[string]any{
					"effort": string(*providerOptions.Effort),
				},
			})
		default:
			return nil, nil, litellm.NewInvalidArgumentError("effort", "effort must be one of: low, medium, high, max", nil)
		}
	}

	if len(call.Tools) > 0 {
		tools, toolChoice, toolWarnings := toAnthropicTools(call.Tools, call.ToolChoice, providerOptions.DisableParallelToolUse)
		params.Tools = tools
		if toolChoice != nil {
			params.ToolChoice = *toolChoice
		}
		warnings = append(warnings, toolWarnings...)
	}

	return params, warnings, nil
}

// Generate implements litellm.LanguageModel.
func (l languageModel) Generate(ctx context.Context, call litellm.Call) (*litellm.Response, error) {
	params, warnings, err := l.prepareParams(call)
	if err != nil {
		return nil, err
	}

	message, err := l.client.Messages.New(ctx, *params)
	if err != nil {
		return nil, toProviderErr(err, l.provider)
	}

	var content litellm.ContentList
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			content = append(content, litellm.TextContent{Text: block.Text})
		case "thinking":
			content = append(content, litellm.ReasoningContent{
				Text: block.Thinking,
				ProviderMetadata: litellm.ProviderMetadata{
					Name: &ReasoningOptionMetadata{
						Signature: block.Signature,
					},
				},
			})
		case "redacted_thinking":
			content = append(content, litellm.ReasoningContent{
				Text: "",
				ProviderMetadata: litellm.ProviderMetadata{
					Name: &ReasoningOptionMetadata{
						RedactedData: block.Data,
					},
				},
			})
		case "tool_use":
			content = append(content, litellm.ToolCallContent{
				ToolCallID: block.ID,
				ToolName:   block.Name,
				Input:      string(block.Input),
			})
		}
	}

	return &litellm.Response{
		Content:      content,
		Usage:        toUsage(message.Usage),
		FinishReason: mapFinishReason(string(message.StopReason)),
		Warnings:     warnings,
	}, nil
}

// Stream implements litellm.LanguageModel.
func (l languageModel) Stream(ctx context.Context, call litellm.Call) (litellm.StreamResponse, error) {
	params, warnings, err := l.prepareParams(call)
	if err != nil {
		return nil, err
	}

	stream := l.client.Messages.NewStreaming(ctx, *params)

	return func(yield func(litellm.StreamPart) bool) {
		if len(warnings) > 0 {
			if !yield(litellm.StreamPart{
				Type:     litellm.StreamPartTypeWarnings,
				Warnings: warnings,
			}) {
				return
			}
		}

		var usage litellm.Usage
		finishReason := litellm.FinishReasonUnknown
		blockTypes := make(map[int64]string)
		toolCallIDs := make(map[int64]string)
		toolCallNames := make(map[int64]string)
		toolCallInputs := make(map[int64]string)

		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "message_start":
				usage = toUsage(event.Message.Usage)
			case "content_block_start":
				blockID := fmt.Sprintf("%d", event.Index)
				switch event.ContentBlock.Type {
				case "text":
					blockTypes[event.Index] = "text"
					if !yield(litellm.StreamPart{
						Type: litellm.StreamPartTypeTextStart,
						ID:   blockID,
					}) {
						return
					}
				case "thinking", "redacted_thinking":
					blockTypes[event.Index] = "reasoning"
					if !yield(litellm.StreamPart{
						Type: litellm.StreamPartTypeReasoningStart,
						ID:   blockID,
					}) {
						return
					}
				case "tool_use":
					blockTypes[event.Index] = "tool_use"
					toolCallIDs[event.Index] = event.ContentBlock.ID
					toolCallNames[event.Index] = event.ContentBlock.Name
					toolCallInputs[event.Index] = ""
					if !yield(litellm.StreamPart{
						Type:         litellm.StreamPartTypeToolInputStart,
						ID:           event.ContentBlock.ID,
						ToolCallName: event.ContentBlock.Name,
					}) {
						return
					}
				}
			case "content_block_delta":
				blockID := fmt.Sprintf("%d", event.Index)
				switch event.Delta.Type {
				case "text_delta":
					if !yield(litellm.StreamPart{
						Type:  litellm.StreamPartTypeTextDelta,
						ID:    blockID,
						Delta: event.Delta.Text,
					}) {
						return
					}
				case "thinking_delta":
					if !yield(litellm.StreamPart{
						Type:  litellm.StreamPartTypeReasoningDelta,
						ID:    blockID,
						Delta: event.Delta.Thinking,
					}) {
						return
					}
				case "signature_delta":
					if !yield(litellm.StreamPart{
						Type:  litellm.StreamPartTypeReasoningDelta,
						ID:    blockID,
						Delta: "",
						ProviderMetadata: litellm.ProviderMetadata{
							Name: &ReasoningOptionMetadata{
								Signature: event.Delta.Signature,
							},
						},
					}) {
						return
					}
				case "input_json_delta":
					toolCallInputs[event.Index] += event.Delta.PartialJSON
					if !yield(litellm.StreamPart{
						Type:  litellm.StreamPartTypeToolInputDelta,
						ID:    toolCallIDs[event.Index],
						Delta: event.Delta.PartialJSON,
					}) {
						return
					}
				}
			case "content_block_stop":
				blockID := fmt.Sprintf("%d", event.Index)
				switch blockTypes[event.Index] {
				case "text":
					if !yield(litellm.StreamPart{
						Type: litellm.StreamPartTypeTextEnd,
						ID:   blockID,
					}) {
						return
					}
				case "reasoning":
					if !yield(litellm.StreamPart{
						Type: litellm.StreamPartTypeReasoningEnd,
						ID:   blockID,
					}) {
						return
					}
				case "tool_use":
					input := toolCallInputs[event.Index]
					if input == "" {
						input = "{}"
					}
					if !yield(litellm.StreamPart{
						Type: litellm.StreamPartTypeToolInputEnd,
						ID:   toolCallIDs[event.Index],
					}) {
						return
					}
					if !yield(litellm.StreamPart{
						Type:          litellm.StreamPartTypeToolCall,
						ID:            toolCallIDs[event.Index],
						ToolCallName:  toolCallNames[event.Index],
						ToolCallInput: input,
					}) {
						return
					}
				}
				delete(blockTypes, event.Index)
			case "message_delta":
				if event.Delta.StopReason != "" {
					finishReason = mapFinishReason(string(event.Delta.StopReason))
				}
				usage.OutputTokens = event.Usage.OutputTokens
				usage.TotalTokens = usage.InputTokens + usage.OutputTokens
			}
		}

		if err := stream.Err(); err != nil {
			yield(litellm.StreamPart{
				Type:  litellm.StreamPartTypeError,
				Error: toProviderErr(err, l.provider),
			})
			return
		}

		yield(litellm.StreamPart{
			Type:         litellm.StreamPartTypeFinish,
			Usage:        usage,
			FinishReason: finishReason,
		})
	}, nil
}

func toUsage(usage anthropicsdk.Usage) litellm.Usage {
	return litellm.Usage{
		InputTokens:      usage.InputTokens,
		OutputTokens:     usage.OutputTokens,
		TotalTokens:      usage.InputTokens + usage.OutputTokens,
		CacheReadTokens:  usage.CacheReadInputTokens,
		CacheWriteTokens: usage.CacheCreationInputTokens,
	}
}

func mapFinishReason(stopReason string) litellm.FinishReason {
	switch stopReason {
	case "end_turn", "stop_sequence", "pause_turn":
		return litellm.FinishReasonStop
	case "max_tokens":
		return litellm.FinishReasonLength
	case "tool_use":
		return litellm.FinishReasonToolCalls
	case "refusal":
		return litellm.FinishReasonContentFilter
	default:
		return litellm.FinishReasonUnknown
	}
}

func toAnthropicTools(tools []litellm.Tool, toolChoice *litellm.ToolChoice, disableParallelToolUse *bool) ([]anthropicsdk.ToolUnionParam, *anthropicsdk.ToolChoiceUnionParam, []litellm.CallWarning) {
	var anthropicTools []anthropicsdk.ToolUnionParam
	var warnings []litellm.CallWarning

	for _, tool := range tools {
		ft, ok := tool.(litellm.FunctionTool)
		if !ok {
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedTool,
				Tool:    tool,
				Message: "tool is not supported",
			})
			continue
		}
		properties := ft.InputSchema["properties"]
		var required []string
		if r, ok := ft.InputSchema["required"].([]any); ok {
			for _, v := range r {
				if s, ok := v.(string); ok {
					required = append(required, s)
				}
			}
		}
		anthropicTools = append(anthropicTools, anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        ft.Name,
				Description: param.NewOpt(ft.Description),
				InputSchema: anthropicsdk.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	var parallel param.Opt[bool]
	if disableParallelToolUse != nil {
		parallel = param.NewOpt(*disableParallelToolUse)
	}

	if toolChoice == nil {
		if disableParallelToolUse != nil {
			return anthropicTools, &anthropicsdk.ToolChoiceUnionParam{
				OfAuto: &anthropicsdk.ToolChoiceAutoParam{DisableParallelToolUse: parallel},
			}, warnings
		}
		return anthropicTools, nil, warnings
	}

	var choice anthropicsdk.ToolChoiceUnionParam
	switch *toolChoice {
	case litellm.ToolChoiceAuto:
		choice = anthropicsdk.ToolChoiceUnionParam{
			OfAuto: &anthropicsdk.ToolChoiceAutoParam{DisableParallelToolUse: parallel},
		}
	case litellm.ToolChoiceNone:
		choice = anthropicsdk.ToolChoiceUnionParam{
			OfNone: &anthropicsdk.ToolChoiceNoneParam{},
		}
	default:
		choice = anthropicsdk.ToolChoiceUnionParam{
			OfTool: &anthropicsdk.ToolChoiceToolParam{
				Name:                   string(*toolChoice),
				DisableParallelToolUse: parallel,
			},
		}
	}
	return anthropicTools, &choice, warnings
}

func toPrompt(prompt litellm.Prompt, sendReasoning bool) ([]anthropicsdk.TextBlockParam, []anthropicsdk.MessageParam, []litellm.CallWarning) {
	var systemBlocks []anthropicsdk.TextBlockParam
	var messages []anthropicsdk.MessageParam
	var warnings []litellm.CallWarning

	for _, msg := range prompt {
		switch msg.Role {
		case litellm.MessageRoleSystem:
			for _, c := range msg.Content {
				textPart, ok := litellm.AsPartType[litellm.TextPart](c)
				if !ok {
					warnings = append(warnings, litellm.CallWarning{
						Type:    litellm.CallWarningTypeOther,
						Message: "system prompt can only have text content",
					})
					continue
				}
				if strings.TrimSpace(textPart.Text) == "" {
					continue
				}
				systemBlocks = append(systemBlocks, anthropicsdk.TextBlockParam{Text: textPart.Text})
			}
		case litellm.MessageRoleUser:
			var blocks []anthropicsdk.ContentBlockParamUnion
			for _, c := range msg.Content {
				switch c.PartType() {
				case litellm.PartTypeText:
					textPart, _ := litellm.AsPartType[litellm.TextPart](c)
					blocks = append(blocks, anthropicsdk.NewTextBlock(textPart.Text))
				case litellm.PartTypeFile:
					filePart, _ := litellm.AsPartType[litellm.FilePart](c)
					if !strings.HasPrefix(filePart.MediaType, "image/") {
						warnings = append(warnings, litellm.CallWarning{
							Type:    litellm.CallWarningTypeOther,
							Message: fmt.Sprintf("file part media type %s not supported", filePart.MediaType),
						})
						continue
					}
					blocks = append(blocks, anthropicsdk.NewImageBlockBase64(filePart.MediaType, base64Encode(filePart.Data)))
				}
			}
			if len(blocks) == 0 {
				warnings = append(warnings, litellm.CallWarning{
					Type:    litellm.CallWarningTypeOther,
					Message: "dropping empty user message: it has neither user-facing content nor tool results",
				})
				continue
			}
			messages = append(messages, anthropicsdk.NewUserMessage(blocks...))
		case litellm.MessageRoleAssistant:
			var blocks []anthropicsdk.ContentBlockParamUnion
			for _, c := range msg.Content {
				switch c.PartType() {
				case litellm.PartTypeText:
					textPart, _ := litellm.AsPartType[litellm.TextPart](c)
					blocks = append(blocks, anthropicsdk.NewTextBlock(textPart.Text))
				case litellm.PartTypeReasoning:
					if !sendReasoning {
						warnings = append(warnings, litellm.CallWarning{
							Type:    litellm.CallWarningTypeOther,
							Message: "sending reasoning content is disabled for this model",
						})
						continue
					}
					reasoningPart, _ := litellm.AsPartType[litellm.ReasoningPart](c)
					metadata, ok := reasoningPart.ProviderOptions[Name].(*ReasoningOptionMetadata)
					if !ok {
						warnings = append(warnings, litellm.CallWarning{
							Type:    litellm.CallWarningTypeOther,
							Message: "reasoning content without signature metadata is not sent back",
						})
						continue
					}
					if metadata.RedactedData != "" {
						blocks = append(blocks, anthropicsdk.ContentBlockParamUnion{
							OfRedactedThinking: &anthropicsdk.RedactedThinkingBlockParam{
								Data: metadata.RedactedData,
							},
						})
					} else {
						blocks = append(blocks, anthropicsdk.ContentBlockParamUnion{
							OfThinking: &anthropicsdk.ThinkingBlockParam{
								Thinking:  reasoningPart.Text,
								Signature: metadata.Signature,
							},
						})
					}
				case litellm.PartTypeToolCall:
					toolCallPart, _ := litellm.AsPartType[litellm.ToolCallPart](c)
					if !xjson.IsValid(toolCallPart.Input) {
						continue
					}
					blocks = append(blocks, anthropicsdk.ContentBlockParamUnion{
						OfToolUse: &anthropicsdk.ToolUseBlockParam{
							ID:    toolCallPart.ToolCallID,
							Name:  toolCallPart.ToolName,
							Input: json.RawMessage(toolCallPart.Input),
						},
					})
				}
			}
			if !hasVisibleAssistantContent(blocks) {
				warnings = append(warnings, litellm.CallWarning{
					Type:    litellm.CallWarningTypeOther,
					Message: "dropping empty assistant message: it has neither user-facing content nor tool calls",
				})
				continue
			}
			messages = append(messages, anthropicsdk.NewAssistantMessage(blocks...))
		case litellm.MessageRoleTool:
			var blocks []anthropicsdk.ContentBlockParamUnion
			for _, c := range msg.Content {
				toolResultPart, ok := litellm.AsPartType[litellm.ToolResultPart](c)
				if !ok {
					warnings = append(warnings, litellm.CallWarning{
						Type:    litellm.CallWarningTypeOther,
						Message: "tool message can only have tool result content",
					})
					continue
				}
				blocks = append(blocks, anthropicsdk.ContentBlockParamUnion{
					OfToolResult: &anthropicsdk.ToolResultBlockParam{
						ToolUseID: toolResultPart.ToolCallID,
						IsError:   param.NewOpt(toolResultPart.IsError),
						Content: []anthropicsdk.ToolResultBlockParamContentUnion{{
							OfText: &anthropicsdk.TextBlockParam{Text: toolResultPart.Output},
						}},
					},
				})
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropicsdk.NewUserMessage(blocks...))
		}
	}

	return systemBlocks, messages, warnings
}

func hasVisibleAssistantContent(blocks []anthropicsdk.ContentBlockParamUnion) bool {
	for _, b := range blocks {
		if b.OfText != nil || b.OfToolUse != nil {
			return true
		}
	}
	return false
}
