package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	litellm "github.com/BerriAI/litellm-go"
	xjson "github.com/charmbracelet/x/json"
	"github.com/google/uuid"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"
)

type languageModel struct {
	provider                   string
	modelID                    string
	client                     openai.Client
	uniqueToolCallIDs          bool
	generateIDFunc             LanguageModelGenerateIDFunc
	prepareCallFunc            LanguageModelPrepareCallFunc
	mapFinishReasonFunc        LanguageModelMapFinishReasonFunc
	extraContentFunc           LanguageModelExtraContentFunc
	usageFunc                  LanguageModelUsageFunc
	streamUsageFunc            LanguageModelStreamUsageFunc
	streamExtraFunc            LanguageModelStreamExtraFunc
	streamProviderMetadataFunc LanguageModelStreamProviderMetadataFunc
}

// LanguageModelOption customizes a language model's hooks.
type LanguageModelOption = func(*languageModel)

// WithLanguageModelPrepareCallFunc overrides the request preparation hook.
func WithLanguageModelPrepareCallFunc(fn LanguageModelPrepareCallFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.prepareCallFunc = fn
	}
}

// WithLanguageModelMapFinishReasonFunc overrides the finish reason mapping hook.
func WithLanguageModelMapFinishReasonFunc(fn LanguageModelMapFinishReasonFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.mapFinishReasonFunc = fn
	}
}

// WithLanguageModelExtraContentFunc adds extra response content extraction.
func WithLanguageModelExtraContentFunc(fn LanguageModelExtraContentFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.extraContentFunc = fn
	}
}

// WithLanguageModelStreamExtraFunc adds extra stream part extraction.
func WithLanguageModelStreamExtraFunc(fn LanguageModelStreamExtraFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.streamExtraFunc = fn
	}
}

// WithLanguageModelUsageFunc overrides usage extraction.
func WithLanguageModelUsageFunc(fn LanguageModelUsageFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.usageFunc = fn
	}
}

// WithLanguageModelStreamUsageFunc overrides streaming usage extraction.
func WithLanguageModelStreamUsageFunc(fn LanguageModelStreamUsageFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.streamUsageFunc = fn
	}
}

// WithLanguageUniqueToolCallIDs regenerates tool call IDs so they are unique
// even when the provider reuses IDs across calls.
func WithLanguageUniqueToolCallIDs() LanguageModelOption {
	return func(l *languageModel) {
		l.uniqueToolCallIDs = true
	}
}

// WithLanguageModelGenerateIDFunc overrides tool call ID generation.
func WithLanguageModelGenerateIDFunc(fn LanguageModelGenerateIDFunc) LanguageModelOption {
	return func(l *languageModel) {
		l.generateIDFunc = fn
	}
}

func newLanguageModel(modelID string, provider string, client openai.Client, opts ...LanguageModelOption) languageModel {
	model := languageModel{
		modelID:                    modelID,
		provider:                   provider,
		client:                     client,
		generateIDFunc:             DefaultGenerateID,
		prepareCallFunc:            DefaultPrepareCallFunc,
		mapFinishReasonFunc:        DefaultMapFinishReasonFunc,
		usageFunc:                  DefaultUsageFunc,
		streamUsageFunc:            DefaultStreamUsageFunc,
		streamProviderMetadataFunc: DefaultStreamProviderMetadataFunc,
	}

	for _, o := range opts {
		o(&model)
	}
	return model
}

type streamToolCall struct {
	id          string
	name        string
	arguments   string
	hasFinished bool
}

// Model implements litellm.LanguageModel.
func (o languageModel) Model() string {
	return o.modelID
}

// Provider implements litellm.LanguageModel.
func (o languageModel) Provider() string {
	return o.provider
}

func (o languageModel) prepareParams(call litellm.Call) (*openai.ChatCompletionNewParams, []litellm.CallWarning, error) {
	params := &openai.ChatCompletionNewParams{}
	messages, warnings := toPrompt(call.Prompt)
	if call.TopK != nil {
		warnings = append(warnings, litellm.CallWarning{
			Type:    litellm.CallWarningTypeUnsupportedSetting,
			Setting: "top_k",
		})
	}

	if call.MaxOutputTokens != nil {
		params.MaxTokens = param.NewOpt(*call.MaxOutputTokens)
	}
	if call.Temperature != nil {
		params.Temperature = param.NewOpt(*call.Temperature)
	}
	if call.TopP != nil {
		params.TopP = param.NewOpt(*call.TopP)
	}
	if call.FrequencyPenalty != nil {
		params.FrequencyPenalty = param.NewOpt(*call.FrequencyPenalty)
	}
	if call.PresencePenalty != nil {
		params.PresencePenalty = param.NewOpt(*call.PresencePenalty)
	}
	if call.Seed != nil {
		params.Seed = param.NewOpt(*call.Seed)
	}
	if len(call.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: call.StopSequences,
		}
	}

	if call.ResponseFormat != nil {
		switch call.ResponseFormat.Type {
		case litellm.ResponseFormatTypeJSON:
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			}
		case litellm.ResponseFormatTypeJSONSchema:
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
					JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   call.ResponseFormat.Name,
						Schema: call.ResponseFormat.Schema,
					},
				},
			}
		}
	}

	if isReasoningModel(o.modelID) {
		// reasoning models reject sampling controls
		// see https://platform.openai.com/docs/guides/reasoning#limitations
		if call.Temperature != nil {
			params.Temperature = param.Opt[float64]{}
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedSetting,
				Setting: "temperature",
				Details: "temperature is not supported for reasoning models",
			})
		}
		if call.TopP != nil {
			params.TopP = param.Opt[float64]{}
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedSetting,
				Setting: "top_p",
				Details: "top_p is not supported for reasoning models",
			})
		}
		if call.FrequencyPenalty != nil {
			params.FrequencyPenalty = param.Opt[float64]{}
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedSetting,
				Setting: "frequency_penalty",
				Details: "frequency_penalty is not supported for reasoning models",
			})
		}
		if call.PresencePenalty != nil {
			params.PresencePenalty = param.Opt[float64]{}
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedSetting,
				Setting: "presence_penalty",
				Details: "presence_penalty is not supported for reasoning models",
			})
		}

		// reasoning models use max_completion_tokens instead of max_tokens
		if call.MaxOutputTokens != nil {
			if !params.MaxCompletionTokens.Valid() {
				params.MaxCompletionTokens = param.NewOpt(*call.MaxOutputTokens)
			}
			params.MaxTokens = param.Opt[int64]{}
		}
	}

	if isSearchPreviewModel(o.modelID) {
		if call.Temperature != nil {
			params.Temperature = param.Opt[float64]{}
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedSetting,
				Setting: "temperature",
				Details: "temperature is not supported for the search preview models and has been removed.",
			})
		}
	}

	optionsWarnings, err := o.prepareCallFunc(o, params, call)
	if err != nil {
		return nil, nil, err
	}

	if len(optionsWarnings) > 0 {
		warnings = append(warnings, optionsWarnings...)
	}

	params.Messages = messages
	params.Model = o.modelID

	if len(call.Tools) > 0 {
		tools, toolChoice, toolWarnings := toOpenAITools(call.Tools, call.ToolChoice)
		params.Tools = tools
		if toolChoice != nil {
			params.ToolChoice = *toolChoice
		}
		warnings = append(warnings, toolWarnings...)
	}
	return params, warnings, nil
}

// Generate implements litellm.LanguageModel.
func (o languageModel) Generate(ctx context.Context, call litellm.Call) (*litellm.Response, error) {
	params, warnings, err := o.prepareParams(call)
	if err != nil {
		return nil, err
	}
	response, err := o.client.Chat.Completions.New(ctx, *params)
	if err != nil {
		return nil, toProviderErr(err, o.provider)
	}

	if len(response.Choices) == 0 {
		return nil, errors.New("no response generated")
	}
	choice := response.Choices[0]
	content := make(litellm.ContentList, 0, 1+len(choice.Message.ToolCalls)+len(choice.Message.Annotations))
	if text := choice.Message.Content; text != "" {
		content = append(content, litellm.TextContent{
			Text: text,
		})
	}
	if o.extraContentFunc != nil {
		content = append(content, o.extraContentFunc(choice)...)
	}
	for _, tc := range choice.Message.ToolCalls {
		toolCallID := tc.ID
		if toolCallID == "" || o.uniqueToolCallIDs {
			toolCallID = o.generateIDFunc()
		}
		content = append(content, litellm.ToolCallContent{
			ToolCallID: toolCallID,
			ToolName:   tc.Function.Name,
			Input:      tc.Function.Arguments,
		})
	}
	for _, annotation := range choice.Message.Annotations {
		if annotation.Type == "url_citation" {
			content = append(content, litellm.SourceContent{
				SourceType: litellm.SourceTypeURL,
				ID:         uuid.NewString(),
				URL:        annotation.URLCitation.URL,
				Title:      annotation.URLCitation.Title,
			})
		}
	}

	usage, providerMetadata := o.usageFunc(*response)

	return &litellm.Response{
		Content:      content,
		Usage:        usage,
		FinishReason: o.mapFinishReasonFunc(string(choice.FinishReason)),
		ProviderMetadata: litellm.ProviderMetadata{
			Name: providerMetadata,
		},
		Warnings: warnings,
	}, nil
}

// Stream implements litellm.LanguageModel.
func (o languageModel) Stream(ctx context.Context, call litellm.Call) (litellm.StreamResponse, error) {
	params, warnings, err := o.prepareParams(call)
	if err != nil {
		return nil, err
	}

	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, *params)
	isActiveText := false
	toolCalls := make(map[int64]streamToolCall)

	providerMetadata := litellm.ProviderMetadata{
		Name: &ProviderMetadata{},
	}
	acc := openai.ChatCompletionAccumulator{}
	extraContext := make(map[string]any)
	var usage litellm.Usage
	return func(yield func(litellm.StreamPart) bool) {
		if len(warnings) > 0 {
			if !yield(litellm.StreamPart{
				Type:     litellm.StreamPartTypeWarnings,
				Warnings: warnings,
			}) {
				return
			}
		}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			usage, providerMetadata = o.streamUsageFunc(chunk, extraContext, providerMetadata)
			if len(chunk.Choices) == 0 {
				continue
			}
			for _, choice := range chunk.Choices {
				switch {
				case choice.Delta.Content != "":
					if !isActiveText {
						isActiveText = true
						if !yield(litellm.StreamPart{
							Type: litellm.StreamPartTypeTextStart,
							ID:   "0",
						}) {
							return
						}
					}
					if !yield(litellm.StreamPart{
						Type:  litellm.StreamPartTypeTextDelta,
						ID:    "0",
						Delta: choice.Delta.Content,
					}) {
						return
					}
				case len(choice.Delta.ToolCalls) > 0:
					if isActiveText {
						isActiveText = false
						if !yield(litellm.StreamPart{
							Type: litellm.StreamPartTypeTextEnd,
							ID:   "0",
						}) {
							return
						}
					}

					for _, toolCallDelta := range choice.Delta.ToolCalls {
						existingToolCall, started := toolCalls[toolCallDelta.Index]
						if started {
							if existingToolCall.hasFinished {
								continue
							}
							if toolCallDelta.Function.Arguments != "" {
								existingToolCall.arguments += toolCallDelta.Function.Arguments
							}
							if !yield(litellm.StreamPart{
								Type:  litellm.StreamPartTypeToolInputDelta,
								ID:    existingToolCall.id,
								Delta: toolCallDelta.Function.Arguments,
							}) {
								return
							}
							toolCalls[toolCallDelta.Index] = existingToolCall
							if xjson.IsValid(existingToolCall.arguments) {
								if !yield(litellm.StreamPart{
									Type: litellm.StreamPartTypeToolInputEnd,
									ID:   existingToolCall.id,
								}) {
									return
								}

								if !yield(litellm.StreamPart{
									Type:          litellm.StreamPartTypeToolCall,
									ID:            existingToolCall.id,
									ToolCallName:  existingToolCall.name,
									ToolCallInput: existingToolCall.arguments,
								}) {
									return
								}
								existingToolCall.hasFinished = true
								toolCalls[toolCallDelta.Index] = existingToolCall
							}
							continue
						}

						var deltaErr error
						if toolCallDelta.Type != "function" {
							deltaErr = litellm.NewInvalidArgumentError("tool_call", "expected 'function' type", nil)
						}
						if toolCallDelta.ID == "" {
							deltaErr = litellm.NewInvalidArgumentError("tool_call", "expected 'id' to be a string", nil)
						}
						if toolCallDelta.Function.Name == "" {
							deltaErr = litellm.NewInvalidArgumentError("tool_call", "expected 'function.name' to be a string", nil)
						}
						if deltaErr != nil {
							yield(litellm.StreamPart{
								Type:  litellm.StreamPartTypeError,
								Error: deltaErr,
							})
							return
						}

						// some compatible providers reuse tool call IDs; the
						// upstream only matches the ID against the eventual
						// result, so regenerating is safe
						if o.uniqueToolCallIDs {
							toolCallDelta.ID = o.generateIDFunc()
						}

						if !yield(litellm.StreamPart{
							Type:         litellm.StreamPartTypeToolInputStart,
							ID:           toolCallDelta.ID,
							ToolCallName: toolCallDelta.Function.Name,
						}) {
							return
						}
						toolCalls[toolCallDelta.Index] = streamToolCall{
							id:        toolCallDelta.ID,
							name:      toolCallDelta.Function.Name,
							arguments: toolCallDelta.Function.Arguments,
						}

						exTc := toolCalls[toolCallDelta.Index]
						if exTc.arguments != "" {
							if !yield(litellm.StreamPart{
								Type:  litellm.StreamPartTypeToolInputDelta,
								ID:    exTc.id,
								Delta: exTc.arguments,
							}) {
								return
							}
							if xjson.IsValid(exTc.arguments) {
								if !yield(litellm.StreamPart{
									Type: litellm.StreamPartTypeToolInputEnd,
									ID:   exTc.id,
								}) {
									return
								}

								if !yield(litellm.StreamPart{
									Type:          litellm.StreamPartTypeToolCall,
									ID:            exTc.id,
									ToolCallName:  exTc.name,
									ToolCallInput: exTc.arguments,
								}) {
									return
								}
								exTc.hasFinished = true
								toolCalls[toolCallDelta.Index] = exTc
							}
						}
					}
				}

				if o.streamExtraFunc != nil {
					updatedContext, shouldContinue := o.streamExtraFunc(chunk, yield, extraContext)
					if !shouldContinue {
						return
					}
					extraContext = updatedContext
				}
			}

			for _, choice := range chunk.Choices {
				for _, annotation := range parseAnnotationsFromDelta(choice.Delta) {
					if annotation.Type != "url_citation" {
						continue
					}
					if !yield(litellm.StreamPart{
						Type:       litellm.StreamPartTypeSource,
						ID:         uuid.NewString(),
						SourceType: litellm.SourceTypeURL,
						URL:        annotation.URLCitation.URL,
						Title:      annotation.URLCitation.Title,
					}) {
						return
					}
				}
			}
		}
		err := stream.Err()
		if err != nil && !errors.Is(err, io.EOF) {
			yield(litellm.StreamPart{
				Type:  litellm.StreamPartTypeError,
				Error: toProviderErr(err, o.provider),
			})
			return
		}

		if isActiveText {
			if !yield(litellm.StreamPart{
				Type: litellm.StreamPartTypeTextEnd,
				ID:   "0",
			}) {
				return
			}
		}

		finishReason := litellm.FinishReasonUnknown
		if len(acc.Choices) > 0 {
			choice := acc.Choices[0]
			providerMetadata = o.streamProviderMetadataFunc(choice, providerMetadata)
			finishReason = o.mapFinishReasonFunc(string(choice.FinishReason))

			for _, annotation := range choice.Message.Annotations {
				if annotation.Type != "url_citation" {
					continue
				}
				if !yield(litellm.StreamPart{
					Type:       litellm.StreamPartTypeSource,
					ID:         acc.ID,
					SourceType: litellm.SourceTypeURL,
					URL:        annotation.URLCitation.URL,
					Title:      annotation.URLCitation.Title,
				}) {
					return
				}
			}
		}
		yield(litellm.StreamPart{
			Type:             litellm.StreamPartTypeFinish,
			Usage:            usage,
			FinishReason:     finishReason,
			ProviderMetadata: providerMetadata,
		})
	}, nil
}

func isReasoningModel(modelID string) bool {
	return strings.HasPrefix(modelID, "o") || strings.HasPrefix(modelID, "gpt-5")
}

func isSearchPreviewModel(modelID string) bool {
	return strings.Contains(modelID, "search-preview")
}

func supportsFlexProcessing(modelID string) bool {
	return strings.HasPrefix(modelID, "o3") || strings.HasPrefix(modelID, "o4-mini") || strings.HasPrefix(modelID, "gpt-5")
}

func supportsPriorityProcessing(modelID string) bool {
	return strings.HasPrefix(modelID, "gpt-4") || strings.HasPrefix(modelID, "gpt-5") ||
		strings.HasPrefix(modelID, "o3") || strings.HasPrefix(modelID, "o4-mini")
}

func toOpenAITools(tools []litellm.Tool, toolChoice *litellm.ToolChoice) (openAITools []openai.ChatCompletionToolUnionParam, openAIToolChoice *openai.ChatCompletionToolChoiceOptionUnionParam, warnings []litellm.CallWarning) {
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
		openAITools = append(openAITools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        ft.Name,
					Description: param.NewOpt(ft.Description),
					Parameters:  openai.FunctionParameters(ft.InputSchema),
					Strict:      param.NewOpt(false),
				},
				Type: "function",
			},
		})
	}
	if toolChoice == nil {
		return openAITools, openAIToolChoice, warnings
	}

	switch *toolChoice {
	case litellm.ToolChoiceAuto:
		openAIToolChoice = &openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt("auto"),
		}
	case litellm.ToolChoiceNone:
		openAIToolChoice = &openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt("none"),
		}
	default:
		openAIToolChoice = &openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Type: "function",
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: string(*toolChoice),
				},
			},
		}
	}
	return openAITools, openAIToolChoice, warnings
}

func toPrompt(prompt litellm.Prompt) ([]openai.ChatCompletionMessageParamUnion, []litellm.CallWarning) {
	var messages []openai.ChatCompletionMessageParamUnion
	var warnings []litellm.CallWarning
	for _, msg := range prompt {
		switch msg.Role {
		case litellm.MessageRoleSystem:
			var systemPromptParts []string
			for _, c := range msg.Content {
				textPart, ok := litellm.AsPartType[litellm.TextPart](c)
				if !ok {
					warnings = append(warnings, litellm.CallWarning{
						Type:    litellm.CallWarningTypeOther,
						Message: "system prompt can only have text content",
					})
					continue
				}
				if strings.TrimSpace(textPart.Text) != "" {
					systemPromptParts = append(systemPromptParts, textPart.Text)
				}
			}
			if len(systemPromptParts) == 0 {
				warnings = append(warnings, litellm.CallWarning{
					Type:    litellm.CallWarningTypeOther,
					Message: "system prompt has no text parts",
				})
				continue
			}
			messages = append(messages, openai.SystemMessage(strings.Join(systemPromptParts, "\n")))
		case litellm.MessageRoleUser:
			// simple user message, just text content
			if len(msg.Content) == 1 && msg.Content[0].PartType() == litellm.PartTypeText {
				textPart, _ := litellm.AsPartType[litellm.TextPart](msg.Content[0])
				messages = append(messages, openai.UserMessage(textPart.Text))
				continue
			}
			var content []openai.ChatCompletionContentPartUnionParam
			for _, c := range msg.Content {
				switch c.PartType() {
				case litellm.PartTypeText:
					textPart, _ := litellm.AsPartType[litellm.TextPart](c)
					content = append(content, openai.ChatCompletionContentPartUnionParam{
						OfText: &openai.ChatCompletionContentPartTextParam{
							Text: textPart.Text,
						},
					})
				case litellm.PartTypeFile:
					filePart, ok := litellm.AsPartType[litellm.FilePart](c)
					if !ok {
						continue
					}
					filePartContent, fileWarnings := toFilePart(filePart, len(content))
					warnings = append(warnings, fileWarnings...)
					if filePartContent != nil {
						content = append(content, *filePartContent)
					}
				}
			}
			messages = append(messages, openai.UserMessage(content))
		case litellm.MessageRoleAssistant:
			if len(msg.Content) == 1 && msg.Content[0].PartType() == litellm.PartTypeText {
				textPart, _ := litellm.AsPartType[litellm.TextPart](msg.Content[0])
				messages = append(messages, openai.AssistantMessage(textPart.Text))
				continue
			}
			assistantMsg := openai.ChatCompletionAssistantMessageParam{
				Role: "assistant",
			}
			for _, c := range msg.Content {
				switch c.PartType() {
				case litellm.PartTypeText:
					textPart, _ := litellm.AsPartType[litellm.TextPart](c)
					assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: param.NewOpt(textPart.Text),
					}
				case litellm.PartTypeToolCall:
					toolCallPart, _ := litellm.AsPartType[litellm.ToolCallPart](c)
					assistantMsg.ToolCalls = append(assistantMsg.ToolCalls,
						openai.ChatCompletionMessageToolCallUnionParam{
							OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
								ID:   toolCallPart.ToolCallID,
								Type: "function",
								Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
									Name:      toolCallPart.ToolName,
									Arguments: toolCallPart.Input,
								},
							},
						})
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &assistantMsg,
			})
		case litellm.MessageRoleTool:
			for _, c := range msg.Content {
				toolResultPart, ok := litellm.AsPartType[litellm.ToolResultPart](c)
				if !ok {
					warnings = append(warnings, litellm.CallWarning{
						Type:    litellm.CallWarningTypeOther,
						Message: "tool message can only have tool result content",
					})
					continue
				}
				messages = append(messages, openai.ToolMessage(toolResultPart.Output, toolResultPart.ToolCallID))
			}
		}
	}
	return messages, warnings
}

func toFilePart(filePart litellm.FilePart, index int) (*openai.ChatCompletionContentPartUnionParam, []litellm.CallWarning) {
	switch {
	case strings.HasPrefix(filePart.MediaType, "image/"):
		data := filePart.URL
		if data == "" {
			base64Encoded := base64.StdEncoding.EncodeToString(filePart.Data)
			data = "data:" + filePart.MediaType + ";base64," + base64Encoded
		}
		imageURL := openai.ChatCompletionContentPartImageImageURLParam{URL: data}

		if providerOptions, ok := filePart.ProviderOptions[Name]; ok {
			if detail, ok := providerOptions.(*ProviderFileOptions); ok {
				imageURL.Detail = detail.ImageDetail
			}
		}

		imageBlock := openai.ChatCompletionContentPartImageParam{ImageURL: imageURL}
		return &openai.ChatCompletionContentPartUnionParam{OfImageURL: &imageBlock}, nil

	case filePart.MediaType == "audio/wav":
		base64Encoded := base64.StdEncoding.EncodeToString(filePart.Data)
		audioBlock := openai.ChatCompletionContentPartInputAudioParam{
			InputAudio: openai.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   base64Encoded,
				Format: "wav",
			},
		}
		return &openai.ChatCompletionContentPartUnionParam{OfInputAudio: &audioBlock}, nil

	case filePart.MediaType == "audio/mpeg" || filePart.MediaType == "audio/mp3":
		base64Encoded := base64.StdEncoding.EncodeToString(filePart.Data)
		audioBlock := openai.ChatCompletionContentPartInputAudioParam{
			InputAudio: openai.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   base64Encoded,
				Format: "mp3",
			},
		}
		return &openai.ChatCompletionContentPartUnionParam{OfInputAudio: &audioBlock}, nil

	case filePart.MediaType == "application/pdf":
		dataStr := string(filePart.Data)

		// a payload starting with "file-" is an uploaded file ID, not bytes
		if strings.HasPrefix(dataStr, "file-") {
			fileBlock := openai.ChatCompletionContentPartFileParam{
				File: openai.ChatCompletionContentPartFileFileParam{
					FileID: param.NewOpt(dataStr),
				},
			}
			return &openai.ChatCompletionContentPartUnionParam{OfFile: &fileBlock}, nil
		}

		base64Encoded := base64.StdEncoding.EncodeToString(filePart.Data)
		data := "data:application/pdf;base64," + base64Encoded

		filename := filePart.Filename
		if filename == "" {
			filename = fmt.Sprintf("part-%d.pdf", index)
		}

		fileBlock := openai.ChatCompletionContentPartFileParam{
			File: openai.ChatCompletionContentPartFileFileParam{
				Filename: param.NewOpt(filename),
				FileData: param.NewOpt(data),
			},
		}
		return &openai.ChatCompletionContentPartUnionParam{OfFile: &fileBlock}, nil

	default:
		return nil, []litellm.CallWarning{{
			Type:    litellm.CallWarningTypeOther,
			Message: fmt.Sprintf("file part media type %s not supported", filePart.MediaType),
		}}
	}
}

// parseAnnotationsFromDelta parses annotations from the raw JSON of a delta,
// which the SDK's typed delta does not surface.
func parseAnnotationsFromDelta(delta openai.ChatCompletionChunkChoiceDelta) []openai.ChatCompletionMessageAnnotation {
	var annotations []openai.ChatCompletionMessageAnnotation

	var deltaData map[string]any
	if err := json.Unmarshal([]byte(delta.RawJSON()), &deltaData); err != nil {
		return annotations
	}

	annotationsData, ok := deltaData["annotations"].([]any)
	if !ok {
		return annotations
	}
	for _, annotationData := range annotationsData {
		annotationMap, ok := annotationData.(map[string]any)
		if !ok {
			continue
		}
		annotationType, _ := annotationMap["type"].(string)
		if annotationType != "url_citation" {
			continue
		}
		urlCitationData, ok := annotationMap["url_citation"].(map[string]any)
		if !ok {
			continue
		}
		url, _ := urlCitationData["url"].(string)
		title, _ := urlCitationData["title"].(string)
		annotations = append(annotations, openai.ChatCompletionMessageAnnotation{
			Type: "url_citation",
			URLCitation: openai.ChatCompletionMessageAnnotationURLCitation{
				URL:   url,
				Title: title,
			},
		})
	}

	return annotations
}
