package bedrock

import (
	"encoding/json"
	"fmt"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// converseRequest is the shared shape of ConverseInput and ConverseStreamInput.
type converseRequest struct {
	messages         []types.Message
	system           []types.SystemContentBlock
	inferenceConfig  *types.InferenceConfiguration
	additionalFields document.Interface
	toolConfig       *types.ToolConfiguration
}

func (m *languageModel) prepareConverse(call litellm.Call) (*converseRequest, []litellm.CallWarning, error) {
	var warnings []litellm.CallWarning

	messages, systemBlocks, err := convertMessages(call.Prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("bedrock: failed to convert messages: %w", err)
	}

	inferenceConfig := &types.InferenceConfiguration{}
	if call.MaxOutputTokens != nil {
		inferenceConfig.MaxTokens = aws.Int32(int32(*call.MaxOutputTokens))
	}
	if call.Temperature != nil {
		inferenceConfig.Temperature = aws.Float32(float32(*call.Temperature))
	}
	if call.TopP != nil {
		inferenceConfig.TopP = aws.Float32(float32(*call.TopP))
	}
	if len(call.StopSequences) > 0 {
		inferenceConfig.StopSequences = call.StopSequences
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
	if call.Seed != nil {
		warnings = append(warnings, litellm.CallWarning{
			Type:    litellm.CallWarningTypeUnsupportedSetting,
			Setting: "seed",
		})
	}
	if call.ResponseFormat != nil && call.ResponseFormat.Type != litellm.ResponseFormatTypeText {
		warnings = append(warnings, litellm.CallWarning{
			Type:    litellm.CallWarningTypeUnsupportedSetting,
			Setting: "response_format",
			Details: "the Converse API does not enforce structured output; constrain output via tool use instead",
		})
	}

	additionalFieldsMap := map[string]any{}
	if call.TopK != nil {
		additionalFieldsMap["top_k"] = *call.TopK
	}

	if providerOptions, ok := call.ProviderOptions[Name].(*ProviderOptions); ok && providerOptions != nil {
		if providerOptions.Thinking != nil {
			additionalFieldsMap["thinking"] = map[string]any{
				"type":          "enabled",
				"budget_tokens": providerOptions.Thinking.BudgetTokens,
			}
		}
		for key, value := range providerOptions.AdditionalModelRequestFields {
			additionalFieldsMap[key] = value
		}
	}

	var additionalFields document.Interface
	if len(additionalFieldsMap) > 0 {
		additionalFields = document.NewLazyDocument(additionalFieldsMap)
	}

	request := &converseRequest{
		messages:        messages,
		inferenceConfig: inferenceConfig,
	}
	if len(systemBlocks) > 0 {
		request.system = systemBlocks
	}
	request.additionalFields = additionalFields

	if len(call.Tools) > 0 {
		toolConfig, toolWarnings := convertTools(call.Tools, call.ToolChoice)
		request.toolConfig = toolConfig
		warnings = append(warnings, toolWarnings...)
	}

	return request, warnings, nil
}

func (m *languageModel) prepareConverseRequest(call litellm.Call) (*bedrockruntime.ConverseInput, []litellm.CallWarning, error) {
	request, warnings, err := m.prepareConverse(call)
	if err != nil {
		return nil, nil, err
	}
	return &bedrockruntime.ConverseInput{
		ModelId:                      aws.String(m.modelID),
		Messages:                     request.messages,
		System:                       request.system,
		InferenceConfig:              request.inferenceConfig,
		AdditionalModelRequestFields: request.additionalFields,
		ToolConfig:                   request.toolConfig,
	}, warnings, nil
}

func (m *languageModel) prepareConverseStreamRequest(call litellm.Call) (*bedrockruntime.ConverseStreamInput, []litellm.CallWarning, error) {
	request, warnings, err := m.prepareConverse(call)
	if err != nil {
		return nil, nil, err
	}
	return &bedrockruntime.ConverseStreamInput{
		ModelId:                      aws.String(m.modelID),
		Messages:                     request.messages,
		System:                       request.system,
		InferenceConfig:              request.inferenceConfig,
		AdditionalModelRequestFields: request.additionalFields,
		ToolConfig:                   request.toolConfig,
	}, warnings, nil
}

// convertMessages maps the unified prompt onto Converse messages and system
// blocks. Tool results ride in user messages, as the Converse API requires.
func convertMessages(prompt litellm.Prompt) ([]types.Message, []types.SystemContentBlock, error) {
	var messages []types.Message
	var systemBlocks []types.SystemContentBlock

	for _, msg := range prompt {
		switch msg.Role {
		case litellm.MessageRoleSystem:
			for _, part := range msg.Content {
				if textPart, ok := litellm.AsPartType[litellm.TextPart](part); ok {
					systemBlocks = append(systemBlocks, &types.SystemContentBlockMemberText{
						Value: textPart.Text,
					})
				}
			}

		case litellm.MessageRoleUser, litellm.MessageRoleAssistant:
			contentBlocks, err := convertMessageContent(msg.Content)
			if err != nil {
				return nil, nil, err
			}
			if len(contentBlocks) == 0 {
				continue
			}

			role := types.ConversationRoleUser
			if msg.Role == litellm.MessageRoleAssistant {
				role = types.ConversationRoleAssistant
			}
			messages = append(messages, types.Message{
				Role:    role,
				Content: contentBlocks,
			})

		case litellm.MessageRoleTool:
			contentBlocks, err := convertMessageContent(msg.Content)
			if err != nil {
				return nil, nil, err
			}
			if len(contentBlocks) == 0 {
				continue
			}
			messages = append(messages, types.Message{
				Role:    types.ConversationRoleUser,
				Content: contentBlocks,
			})
		}
	}

	return messages, systemBlocks, nil
}

func convertMessageContent(content []litellm.MessagePart) ([]types.ContentBlock, error) {
	var blocks []types.ContentBlock

	for _, part := range content {
		switch part.PartType() {
		case litellm.PartTypeText:
			if textPart, ok := litellm.AsPartType[litellm.TextPart](part); ok {
				blocks = append(blocks, &types.ContentBlockMemberText{
					Value: textPart.Text,
				})
			}

		case litellm.PartTypeFile:
			if filePart, ok := litellm.AsPartType[litellm.FilePart](part); ok {
				if !isImageMediaType(filePart.MediaType) {
					// Non-image files are not supported by the Converse API.
					continue
				}
				imageBlock, err := convertImagePart(filePart)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, imageBlock)
			}

		case litellm.PartTypeToolCall:
			if toolCallPart, ok := litellm.AsPartType[litellm.ToolCallPart](part); ok {
				toolUseBlock, err := convertToolCall(toolCallPart)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, toolUseBlock)
			}

		case litellm.PartTypeToolResult:
			if toolResultPart, ok := litellm.AsPartType[litellm.ToolResultPart](part); ok {
				blocks = append(blocks, convertToolResult(toolResultPart))
			}
		}
	}

	return blocks, nil
}

func isImageMediaType(mediaType string) bool {
	switch mediaType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func convertImagePart(filePart litellm.FilePart) (types.ContentBlock, error) {
	var format types.ImageFormat
	switch filePart.MediaType {
	case "image/jpeg", "image/jpg":
		format = types.ImageFormatJpeg
	case "image/png":
		format = types.ImageFormatPng
	case "image/gif":
		format = types.ImageFormatGif
	case "image/webp":
		format = types.ImageFormatWebp
	default:
		return nil, fmt.Errorf("bedrock: unsupported image media type: %s", filePart.MediaType)
	}

	return &types.ContentBlockMemberImage{
		Value: types.ImageBlock{
			Format: format,
			Source: &types.ImageSourceMemberBytes{
				Value: filePart.Data,
			},
		},
	}, nil
}

func convertToolCall(toolCallPart litellm.ToolCallPart) (types.ContentBlock, error) {
	var inputMap map[string]any
	if err := json.Unmarshal([]byte(toolCallPart.Input), &inputMap); err != nil {
		return nil, fmt.Errorf("bedrock: failed to parse tool call input: %w", err)
	}

	return &types.ContentBlockMemberToolUse{
		Value: types.ToolUseBlock{
			ToolUseId: aws.String(toolCallPart.ToolCallID),
			Name:      aws.String(toolCallPart.ToolName),
			Input:     document.NewLazyDocument(inputMap),
		},
	}, nil
}

func convertToolResult(toolResultPart litellm.ToolResultPart) types.ContentBlock {
	status := types.ToolResultStatusSuccess
	if toolResultPart.IsError {
		status = types.ToolResultStatusError
	}

	return &types.ContentBlockMemberToolResult{
		Value: types.ToolResultBlock{
			ToolUseId: aws.String(toolResultPart.ToolCallID),
			Status:    status,
			Content: []types.ToolResultContentBlock{
				&types.ToolResultContentBlockMemberText{
					Value: toolResultPart.Output,
				},
			},
		},
	}
}

func convertTools(tools []litellm.Tool, toolChoice *litellm.ToolChoice) (*types.ToolConfiguration, []litellm.CallWarning) {
	var warnings []litellm.CallWarning
	var toolSpecs []types.Tool

	for _, tool := range tools {
		funcTool, ok := tool.(litellm.FunctionTool)
		if !ok {
			warnings = append(warnings, litellm.CallWarning{
				Type:    litellm.CallWarningTypeUnsupportedTool,
				Tool:    tool,
				Message: fmt.Sprintf("tool %s is not supported by the Converse API", tool.ToolName()),
			})
			continue
		}

		toolSpecs = append(toolSpecs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(funcTool.Name),
				Description: aws.String(funcTool.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(funcTool.InputSchema),
				},
			},
		})
	}

	if len(toolSpecs) == 0 {
		return nil, warnings
	}

	toolConfig := &types.ToolConfiguration{
		Tools: toolSpecs,
	}

	if toolChoice != nil {
		switch *toolChoice {
		case litellm.ToolChoiceAuto:
			toolConfig.ToolChoice = &types.ToolChoiceMemberAuto{
				Value: types.AutoToolChoice{},
			}
		case litellm.ToolChoiceNone:
			// The Converse API has no "none" choice; omit the tools instead.
			return nil, warnings
		default:
			toolConfig.ToolChoice = &types.ToolChoiceMemberTool{
				Value: types.SpecificToolChoice{
					Name: aws.String(string(*toolChoice)),
				},
			}
		}
	}

	return toolConfig, warnings
}

func (m *languageModel) convertConverseResponse(output *bedrockruntime.ConverseOutput, warnings []litellm.CallWarning) (*litellm.Response, error) {
	if output == nil {
		return nil, fmt.Errorf("bedrock: converse output is nil")
	}

	var content litellm.ContentList
	if outputMessage, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range outputMessage.Value.Content {
			converted, err := convertContentBlock(block)
			if err != nil {
				return nil, err
			}
			if converted != nil {
				content = append(content, converted)
			}
		}
	}

	return &litellm.Response{
		Content:      content,
		FinishReason: convertStopReason(output.StopReason),
		Usage:        convertTokenUsage(output.Usage),
		Warnings:     warnings,
	}, nil
}

func convertContentBlock(block types.ContentBlock) (litellm.Content, error) {
	switch b := block.(type) {
	case *types.ContentBlockMemberText:
		return litellm.TextContent{
			Text: b.Value,
		}, nil

	case *types.ContentBlockMemberReasoningContent:
		if reasoningText, ok := b.Value.(*types.ReasoningContentBlockMemberReasoningText); ok {
			return litellm.ReasoningContent{
				Text: aws.ToString(reasoningText.Value.Text),
			}, nil
		}
		return nil, nil

	case *types.ContentBlockMemberToolUse:
		inputBytes, err := b.Value.Input.MarshalSmithyDocument()
		if err != nil {
			return nil, fmt.Errorf("bedrock: failed to marshal tool input: %w", err)
		}
		return litellm.ToolCallContent{
			ToolCallID: aws.ToString(b.Value.ToolUseId),
			ToolName:   aws.ToString(b.Value.Name),
			Input:      string(inputBytes),
		}, nil

	default:
		return nil, nil
	}
}

func convertTokenUsage(tokenUsage *types.TokenUsage) litellm.Usage {
	var usage litellm.Usage
	if tokenUsage == nil {
		return usage
	}
	if tokenUsage.InputTokens != nil {
		usage.InputTokens = int64(*tokenUsage.InputTokens)
	}
	if tokenUsage.OutputTokens != nil {
		usage.OutputTokens = int64(*tokenUsage.OutputTokens)
	}
	if tokenUsage.TotalTokens != nil {
		usage.TotalTokens = int64(*tokenUsage.TotalTokens)
	}
	if tokenUsage.CacheReadInputTokens != nil {
		usage.CacheReadTokens = int64(*tokenUsage.CacheReadInputTokens)
	}
	if tokenUsage.CacheWriteInputTokens != nil {
		usage.CacheWriteTokens = int64(*tokenUsage.CacheWriteInputTokens)
	}
	return usage
}

func convertStopReason(stopReason types.StopReason) litellm.FinishReason {
	switch stopReason {
	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		return litellm.FinishReasonStop
	case types.StopReasonMaxTokens:
		return litellm.FinishReasonLength
	case types.StopReasonToolUse:
		return litellm.FinishReasonToolCalls
	case types.StopReasonContentFiltered, types.StopReasonGuardrailIntervened:
		return litellm.FinishReasonContentFilter
	default:
		return litellm.FinishReasonUnknown
	}
}
