package google

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

type languageModel struct {
	provider string
	modelID  string
	client   *genai.Client
}

var _ litellm.LanguageModel = &languageModel{}

// Model implements litellm.LanguageModel.
func (g *languageModel) Model() string {
	return g.modelID
}

// Provider implements litellm.LanguageModel.
func (g *languageModel) Provider() string {
	return g.provider
}

func (g *languageModel) prepareParams(call litellm.Call) (*genai.GenerateContentConfig, []*genai.Content, []litellm.CallWarning, error) {
	config := &genai.GenerateContentConfig{}
	providerOptions := &ProviderOptions{}
	if v, ok := call.ProviderOptions[Name].(*ProviderOptions); ok {
		providerOptions = v
	}

	systemInstruction, contents, warnings := toGooglePrompt(call.Prompt)

	// Gemma models reject a system instruction; fold it into the first user
	// message instead.
	isGemmaModel := strings.HasPrefix(strings.ToLower(g.modelID), "gemma-")
	if isGemmaModel && systemInstruction != nil && len(systemInstruction.Parts) > 0 {
		if len(contents) > 0 && contents[0].Role == genai.RoleUser {
			var systemParts []string
			for _, sp := range systemInstruction.Parts {
				systemParts = append(systemParts, sp.Text)
			}
			contents[0].Parts = append([]*genai.Part{
				{Text: strings.Join(systemParts, "\n") + "\n\n"},
			}, contents[0].Parts...)
			systemInstruction = nil
		}
	}
	config.SystemInstruction = systemInstruction

	if call.MaxOutputTokens != nil {
		config.MaxOutputTokens = int32(*call.MaxOutputTokens)
	}
	if call.Temperature != nil {
		tmp := float32(*call.Temperature)
		config.Temperature = &tmp
	}
	if call.TopK != nil {
		tmp := float32(*call.TopK)
		config.TopK = &tmp
	}
	if call.TopP != nil {
		tmp := float32(*call.TopP)
		config.TopP = &tmp
	}
	if call.FrequencyPenalty != nil {
		tmp := float32(*call.FrequencyPenalty)
		config.FrequencyPenalty = &tmp
	}
	if call.PresencePenalty != nil {
		tmp := float32(*call.PresencePenalty)
		config.PresencePenalty = &tmp
	}
	if call.Seed != nil {
		tmp := int32(*call.Seed)
		config.Seed = &tmp
	}
	if len(call.StopSequences) > 0 {
		config.StopSequences = call.StopSequences
	}

	if call.ResponseFormat != nil {
		switch call.ResponseFormat.Type {
		case litellm.ResponseFormatTypeJSON:
			config.ResponseMIMEType = "application/json"
		case litellm.ResponseFormatTypeJSONSchema:
			config.ResponseMIMEType = "application/json"
			config.ResponseJsonSchema = call.ResponseFormat.Schema
		}
	}

	if providerOptions.ThinkingConfig != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{}
		if providerOptions.ThinkingConfig.IncludeThoughts != nil {
			config.ThinkingConfig.IncludeThoughts = *providerOptions.ThinkingConfig.IncludeThoughts
		}
		if providerOptions.ThinkingConfig.ThinkingBudget != nil {
			tmp := int32(*providerOptions.ThinkingConfig.ThinkingBudget)
			config.ThinkingConfig.ThinkingBudget = &tmp
		}
	}
	for _, safetySetting := range providerOptions.SafetySettings {
		config.SafetySettings = append(config.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(safetySetting.Category),
			Threshold: genai.HarmBlockThreshold(safetySetting.Threshold),
		})
	}
	if providerOptions.CachedContent != "" {
		config.CachedContent = providerOptions.CachedContent
	}

	if len(call.Tools) > 0 {
		tools, toolChoice, toolWarnings := toGoogleTools(call.Tools, call.ToolChoice)
		config.ToolConfig = toolChoice
		config.Tools = append(config.Tools, &genai.Tool{
			FunctionDeclarations: tools,
		})
		warnings = append(warnings, toolWarnings...)
	}

	return config, contents, warnings, nil
}

func toGooglePrompt(prompt litellm.Prompt) (*genai.Content, []*genai.Content, []litellm.CallWarning) {
	var systemInstruction *genai.Content
	var contents []*genai.Content
	var warnings []litellm.CallWarning

	finishedSystemBlock := false
	for _, msg := range prompt {
		switch msg.Role {
		case litellm.MessageRoleSystem:
			// System messages after the first user/assistant turn are skipped.
			if finishedSystemBlock {
				continue
			}
			finishedSystemBlock = true

			var systemMessages []string
			for _, part := range msg.Content {
				text, ok := litellm.AsPartType[litellm.TextPart](part)
				if !ok || text.Text == "" {
					continue
				}
				systemMessages = append(systemMessages, text.Text)
			}
			if len(systemMessages) > 0 {
				systemInstruction = &genai.Content{
					Parts: []*genai.Part{
						{Text: strings.Join(systemMessages, "\n")},
					},
				}
			}

		case litellm.MessageRoleUser:
			var parts []*genai.Part
			for _, part := range msg.Content {
				switch part.PartType() {
				case litellm.PartTypeText:
					text, ok := litellm.AsPartType[litellm.TextPart](part)
					if !ok || text.Text == "" {
						continue
					}
					parts = append(parts, &genai.Part{Text: text.Text})
				case litellm.PartTypeFile:
					file, ok := litellm.AsPartType[litellm.FilePart](part)
					if !ok {
						continue
					}
					if file.URL != "" {
						parts = append(parts, &genai.Part{
							FileData: &genai.FileData{
								FileURI:  file.URL,
								MIMEType: file.MediaType,
							},
						})
						continue
					}
					parts = append(parts, &genai.Part{
						InlineData: &genai.Blob{
							Data:     file.Data,
							MIMEType: file.MediaType,
						},
					})
				}
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{
					Role:  genai.RoleUser,
					Parts: parts,
				})
			}

		case litellm.MessageRoleAssistant:
			var parts []*genai.Part
			for _, part := range msg.Content {
				switch part.PartType() {
				case litellm.PartTypeText:
					text, ok := litellm.AsPartType[litellm.TextPart](part)
					if !ok || text.Text == "" {
						continue
					}
					parts = append(parts, &genai.Part{Text: text.Text})
				case litellm.PartTypeToolCall:
					toolCall, ok := litellm.AsPartType[litellm.ToolCallPart](part)
					if !ok {
						continue
					}
					var args map[string]any
					if err := json.Unmarshal([]byte(toolCall.Input), &args); err != nil {
						continue
					}
					parts = append(parts, &genai.Part{
						FunctionCall: &genai.FunctionCall{
							ID:   toolCall.ToolCallID,
							Name: toolCall.ToolName,
							Args: args,
						},
					})
				}
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{
					Role:  genai.RoleModel,
					Parts: parts,
				})
			}

		case litellm.MessageRoleTool:
			var parts []*genai.Part
			for _, part := range msg.Content {
				result, ok := litellm.AsPartType[litellm.ToolResultPart](part)
				if !ok {
					continue
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       result.ToolCallID,
						Name:     cmp.Or(result.ToolName, findToolName(prompt, result.ToolCallID)),
						Response: map[string]any{"result": result.Output},
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{
					Role:  genai.RoleUser,
					Parts: parts,
				})
			}
		}
	}
	return systemInstruction, contents, warnings
}

// findToolName recovers the function name for a tool result whose part did
// not carry one, by scanning earlier assistant tool calls.
func findToolName(prompt litellm.Prompt, toolCallID string) string {
	for _, m := range prompt {
		if m.Role != litellm.MessageRoleAssistant {
			continue
		}
		for _, part := range m.Content {
			tc, ok := litellm.AsPartType[litellm.ToolCallPart](part)
			if ok && tc.ToolCallID == toolCallID {
				return tc.ToolName
			}
		}
	}
	return ""
}

// Generate implements litellm.LanguageModel.
func (g *languageModel) Generate(ctx context.Context, call litellm.Call) (*litellm.Response, error) {
	config, contents, warnings, err := g.prepareParams(call)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, errors.New("google: no messages to send")
	}

	response, err := g.client.Models.GenerateContent(ctx, g.modelID, contents, config)
	if err != nil {
		return nil, toProviderErr(err, g.provider)
	}

	return mapResponse(response, warnings)
}

// Stream implements litellm.LanguageModel.
func (g *languageModel) Stream(ctx context.Context, call litellm.Call) (litellm.StreamResponse, error) {
	config, contents, warnings, err := g.prepareParams(call)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, errors.New("google: no messages to send")
	}

	return func(yield func(litellm.StreamPart) bool) {
		if !yield(litellm.StreamPart{
			Type:     litellm.StreamPartTypeWarnings,
			Warnings: warnings,
		}) {
			return
		}

		var (
			isActiveText      bool
			isActiveReasoning bool
			hasToolCalls      bool
			usage             litellm.Usage
			finishReason      = litellm.FinishReasonUnknown
		)

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.modelID, contents, config) {
			if err != nil {
				yield(litellm.StreamPart{
					Type:  litellm.StreamPartTypeError,
					Error: toProviderErr(err, g.provider),
				})
				return
			}

			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				candidate := resp.Candidates[0]
				for _, part := range candidate.Content.Parts {
					switch {
					case part.Text != "" && part.Thought:
						if isActiveText {
							isActiveText = false
							if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextEnd, ID: "0"}) {
								return
							}
						}
						if !isActiveReasoning {
							isActiveReasoning = true
							if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeReasoningStart, ID: "reasoning"}) {
								return
							}
						}
						if !yield(litellm.StreamPart{
							Type:  litellm.StreamPartTypeReasoningDelta,
							ID:    "reasoning",
							Delta: part.Text,
						}) {
							return
						}

					case part.Text != "":
						if isActiveReasoning {
							isActiveReasoning = false
							if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeReasoningEnd, ID: "reasoning"}) {
								return
							}
						}
						if !isActiveText {
							isActiveText = true
							if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextStart, ID: "0"}) {
								return
							}
						}
						if !yield(litellm.StreamPart{
							Type:  litellm.StreamPartTypeTextDelta,
							ID:    "0",
							Delta: part.Text,
						}) {
							return
						}

					case part.FunctionCall != nil:
						if isActiveText {
							isActiveText = false
							if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextEnd, ID: "0"}) {
								return
							}
						}
						if isActiveReasoning {
							isActiveReasoning = false
							if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeReasoningEnd, ID: "reasoning"}) {
								return
							}
						}

						toolCallID := cmp.Or(part.FunctionCall.ID, part.FunctionCall.Name, uuid.NewString())
						args, err := json.Marshal(part.FunctionCall.Args)
						if err != nil {
							yield(litellm.StreamPart{Type: litellm.StreamPartTypeError, Error: err})
							return
						}

						if !yield(litellm.StreamPart{
							Type:         litellm.StreamPartTypeToolInputStart,
							ID:           toolCallID,
							ToolCallName: part.FunctionCall.Name,
						}) {
							return
						}
						if !yield(litellm.StreamPart{
							Type:  litellm.StreamPartTypeToolInputDelta,
							ID:    toolCallID,
							Delta: string(args),
						}) {
							return
						}
						if !yield(litellm.StreamPart{
							Type: litellm.StreamPartTypeToolInputEnd,
							ID:   toolCallID,
						}) {
							return
						}
						if !yield(litellm.StreamPart{
							Type:          litellm.StreamPartTypeToolCall,
							ID:            toolCallID,
							ToolCallName:  part.FunctionCall.Name,
							ToolCallInput: string(args),
						}) {
							return
						}
						hasToolCalls = true
					}
				}

				if candidate.FinishReason != "" {
					finishReason = mapFinishReason(candidate.FinishReason)
				}
			}

			if resp.UsageMetadata != nil {
				usage = mapUsage(resp.UsageMetadata)
			}
		}

		if isActiveText {
			if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeTextEnd, ID: "0"}) {
				return
			}
		}
		if isActiveReasoning {
			if !yield(litellm.StreamPart{Type: litellm.StreamPartTypeReasoningEnd, ID: "reasoning"}) {
				return
			}
		}

		if hasToolCalls {
			finishReason = litellm.FinishReasonToolCalls
		} else if finishReason == litellm.FinishReasonUnknown {
			finishReason = litellm.FinishReasonStop
		}

		yield(litellm.StreamPart{
			Type:         litellm.StreamPartTypeFinish,
			Usage:        usage,
			FinishReason: finishReason,
		})
	}, nil
}

func toGoogleTools(tools []litellm.Tool, toolChoice *litellm.ToolChoice) (googleTools []*genai.FunctionDeclaration, googleToolChoice *genai.ToolConfig, warnings []litellm.CallWarning) {
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

		var required []string
		var properties map[string]any
		if props, ok := ft.InputSchema["properties"]; ok {
			properties, _ = props.(map[string]any)
		}
		if req, ok := ft.InputSchema["required"]; ok {
			switch reqVal := req.(type) {
			case []string:
				required = reqVal
			case []any:
				for _, r := range reqVal {
					if s, ok := r.(string); ok {
						required = append(required, s)
					}
				}
			}
		}
		googleTools = append(googleTools, &genai.FunctionDeclaration{
			Name:        ft.Name,
			Description: ft.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: convertSchemaProperties(properties),
				Required:   required,
			},
		})
	}

	if toolChoice == nil {
		return
	}
	switch *toolChoice {
	case litellm.ToolChoiceAuto:
		googleToolChoice = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	case litellm.ToolChoiceNone:
		googleToolChoice = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeNone,
			},
		}
	default:
		googleToolChoice = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{string(*toolChoice)},
			},
		}
	}
	return
}

func convertSchemaProperties(parameters map[string]any) map[string]*genai.Schema {
	properties := make(map[string]*genai.Schema)
	for name, param := range parameters {
		properties[name] = convertToSchema(param)
	}
	return properties
}

func convertToSchema(param any) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeString}

	paramMap, ok := param.(map[string]any)
	if !ok {
		return schema
	}

	if desc, ok := paramMap["description"].(string); ok {
		schema.Description = desc
	}

	typeStr, ok := paramMap["type"].(string)
	if !ok {
		return schema
	}
	schema.Type = mapJSONTypeToGoogle(typeStr)

	switch typeStr {
	case "array":
		if items, ok := paramMap["items"].(map[string]any); ok {
			schema.Items = convertToSchema(items)
		}
	case "object":
		if props, ok := paramMap["properties"].(map[string]any); ok {
			schema.Properties = convertSchemaProperties(props)
		}
	}

	return schema
}

func mapJSONTypeToGoogle(jsonType string) genai.Type {
	switch jsonType {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func mapResponse(response *genai.GenerateContentResponse, warnings []litellm.CallWarning) (*litellm.Response, error) {
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, errors.New("google: no response from model")
	}

	var (
		content      litellm.ContentList
		hasToolCalls bool
		candidate    = response.Candidates[0]
	)

	for _, part := range candidate.Content.Parts {
		switch {
		case part.Text != "" && part.Thought:
			content = append(content, litellm.ReasoningContent{Text: part.Text})
		case part.Text != "":
			content = append(content, litellm.TextContent{Text: part.Text})
		case part.FunctionCall != nil:
			input, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, err
			}
			content = append(content, litellm.ToolCallContent{
				ToolCallID: cmp.Or(part.FunctionCall.ID, part.FunctionCall.Name),
				ToolName:   part.FunctionCall.Name,
				Input:      string(input),
			})
			hasToolCalls = true
		default:
			return nil, fmt.Errorf("google: unsupported response part")
		}
	}

	finishReason := mapFinishReason(candidate.FinishReason)
	if hasToolCalls {
		finishReason = litellm.FinishReasonToolCalls
	}

	return &litellm.Response{
		Content:      content,
		Usage:        mapUsage(response.UsageMetadata),
		FinishReason: finishReason,
		Warnings:     warnings,
	}, nil
}

func mapFinishReason(reason genai.FinishReason) litellm.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return litellm.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return litellm.FinishReasonLength
	case genai.FinishReasonSafety,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII,
		genai.FinishReasonImageSafety:
		return litellm.FinishReasonContentFilter
	case genai.FinishReasonRecitation,
		genai.FinishReasonLanguage,
		genai.FinishReasonMalformedFunctionCall:
		return litellm.FinishReasonError
	default:
		return litellm.FinishReasonUnknown
	}
}

func mapUsage(usage *genai.GenerateContentResponseUsageMetadata) litellm.Usage {
	if usage == nil {
		return litellm.Usage{}
	}
	return litellm.Usage{
		InputTokens:     int64(usage.PromptTokenCount),
		OutputTokens:    int64(usage.CandidatesTokenCount),
		TotalTokens:     int64(usage.TotalTokenCount),
		ReasoningTokens: int64(usage.ThoughtsTokenCount),
		CacheReadTokens: int64(usage.CachedContentTokenCount),
	}
}
