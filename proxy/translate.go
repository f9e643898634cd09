package proxy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/proxy/openaiapi"
)

// callFromChatRequest translates an OpenAI chat request into a core Call.
func callFromChatRequest(req *openaiapi.ChatCompletionRequest) (litellm.Call, error) {
	prompt, err := promptFromMessages(req.Messages)
	if err != nil {
		return litellm.Call{}, err
	}

	call := litellm.Call{
		Prompt:           prompt,
		MaxOutputTokens:  req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Seed:             req.Seed,
	}
	if req.MaxCompletionTokens != nil {
		call.MaxOutputTokens = req.MaxCompletionTokens
	}

	if len(req.Stop) > 0 {
		stop, err := parseStringOrSlice(req.Stop)
		if err != nil {
			return litellm.Call{}, litellm.NewInvalidArgumentError("stop", "must be a string or an array of strings", err)
		}
		call.StopSequences = stop
	}

	if req.ResponseFormat != nil {
		format, err := responseFormatFromRequest(req.ResponseFormat)
		if err != nil {
			return litellm.Call{}, err
		}
		call.ResponseFormat = format
	}

	for _, tool := range req.Tools {
		if tool.Type != "function" {
			return litellm.Call{}, litellm.NewInvalidArgumentError("tools", fmt.Sprintf("unsupported tool type %q", tool.Type), nil)
		}
		call.Tools = append(call.Tools, litellm.FunctionTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: tool.Function.Parameters,
		})
	}

	if len(req.ToolChoice) > 0 {
		choice, err := toolChoiceFromRequest(req.ToolChoice)
		if err != nil {
			return litellm.Call{}, err
		}
		call.ToolChoice = choice
	}

	return call, nil
}

func parseStringOrSlice(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

func responseFormatFromRequest(format *openaiapi.ResponseFormat) (*litellm.ResponseFormat, error) {
	switch format.Type {
	case "text":
		return &litellm.ResponseFormat{Type: litellm.ResponseFormatTypeText}, nil
	case "json_object":
		return &litellm.ResponseFormat{Type: litellm.ResponseFormatTypeJSON}, nil
	case "json_schema":
		if format.JSONSchema == nil {
			return nil, litellm.NewInvalidArgumentError("response_format", "json_schema requires a json_schema object", nil)
		}
		return &litellm.ResponseFormat{
			Type:   litellm.ResponseFormatTypeJSONSchema,
			Name:   format.JSONSchema.Name,
			Schema: format.JSONSchema.Schema,
		}, nil
	default:
		return nil, litellm.NewInvalidArgumentError("response_format", fmt.Sprintf("unsupported type %q", format.Type), nil)
	}
}

func toolChoiceFromRequest(raw json.RawMessage) (*litellm.ToolChoice, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "auto", "required":
			// The unified surface has no "must call some tool" mode; treat
			// required as auto.
			return litellm.Opt(litellm.ToolChoiceAuto), nil
		case "none":
			return litellm.Opt(litellm.ToolChoiceNone), nil
		default:
			return nil, litellm.NewInvalidArgumentError("tool_choice", fmt.Sprintf("unsupported value %q", name), nil)
		}
	}

	var specific struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}
	if err := json.Unmarshal(raw, &specific); err != nil || specific.Function.Name == "" {
		return nil, litellm.NewInvalidArgumentError("tool_choice", "must be auto, none, required, or a named function", err)
	}
	return litellm.SpecificToolChoice(specific.Function.Name), nil
}

func promptFromMessages(messages []openaiapi.ChatMessage) (litellm.Prompt, error) {
	if len(messages) == 0 {
		return nil, litellm.NewInvalidArgumentError("messages", "must not be empty", nil)
	}

	prompt := make(litellm.Prompt, 0, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system", "developer":
			text, err := contentText(msg.Content)
			if err != nil {
				return nil, litellm.NewInvalidArgumentError(fmt.Sprintf("messages[%d]", i), err.Error(), nil)
			}
			prompt = append(prompt, litellm.NewSystemMessage(text))

		case "user":
			parts, err := userParts(msg.Content)
			if err != nil {
				return nil, litellm.NewInvalidArgumentError(fmt.Sprintf("messages[%d]", i), err.Error(), nil)
			}
			prompt = append(prompt, litellm.NewUserMessage(parts...))

		case "assistant":
			var parts []litellm.MessagePart
			if len(msg.Content) > 0 {
				text, err := contentText(msg.Content)
				if err != nil {
					return nil, litellm.NewInvalidArgumentError(fmt.Sprintf("messages[%d]", i), err.Error(), nil)
				}
				if text != "" {
					parts = append(parts, litellm.TextPart{Text: text})
				}
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, litellm.ToolCallPart{
					ToolCallID: tc.ID,
					ToolName:   tc.Function.Name,
					Input:      tc.Function.Arguments,
				})
			}
			prompt = append(prompt, litellm.Message{Role: litellm.MessageRoleAssistant, Content: parts})

		case "tool":
			text, err := contentText(msg.Content)
			if err != nil {
				return nil, litellm.NewInvalidArgumentError(fmt.Sprintf("messages[%d]", i), err.Error(), nil)
			}
			prompt = append(prompt, litellm.NewToolResultMessage(msg.ToolCallID, msg.Name, text, false))

		default:
			return nil, litellm.NewInvalidArgumentError(fmt.Sprintf("messages[%d]", i), fmt.Sprintf("unsupported role %q", msg.Role), nil)
		}
	}
	return prompt, nil
}

// contentText extracts plain text from a content field that is either a
// string or an array of text parts.
func contentText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var parts []openaiapi.ContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("content must be a string or an array of content parts")
	}
	var b strings.Builder
	for _, part := range parts {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

func userParts(raw json.RawMessage) ([]litellm.MessagePart, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []litellm.MessagePart{litellm.TextPart{Text: text}}, nil
	}

	var wireParts []openaiapi.ContentPart
	if err := json.Unmarshal(raw, &wireParts); err != nil {
		return nil, fmt.Errorf("content must be a string or an array of content parts")
	}

	parts := make([]litellm.MessagePart, 0, len(wireParts))
	for _, part := range wireParts {
		switch part.Type {
		case "text":
			parts = append(parts, litellm.TextPart{Text: part.Text})
		case "image_url":
			if part.ImageURL == nil {
				return nil, fmt.Errorf("image_url part is missing its image_url object")
			}
			filePart, err := filePartFromImageURL(part.ImageURL.URL)
			if err != nil {
				return nil, err
			}
			parts = append(parts, filePart)
		default:
			return nil, fmt.Errorf("unsupported content part type %q", part.Type)
		}
	}
	return parts, nil
}

// filePartFromImageURL converts an image reference, decoding data URIs into
// inline bytes and passing plain URLs through.
func filePartFromImageURL(url string) (litellm.FilePart, error) {
	if !strings.HasPrefix(url, "data:") {
		return litellm.FilePart{MediaType: "image/*", URL: url}, nil
	}

	meta, encoded, found := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !found {
		return litellm.FilePart{}, fmt.Errorf("malformed data URI in image_url")
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return litellm.FilePart{}, fmt.Errorf("data URI is not valid base64: %w", err)
	}
	return litellm.FilePart{MediaType: mediaType, Data: data}, nil
}

// chatResponseFromCore translates a core response into the OpenAI chat
// completion shape.
func chatResponseFromCore(model string, resp *litellm.Response) *openaiapi.ChatCompletionResponse {
	message := openaiapi.ResponseMessage{
		Role:             "assistant",
		ReasoningContent: resp.Content.Reasoning(),
	}
	if text := resp.Content.Text(); text != "" || len(resp.Content.ToolCalls()) == 0 {
		message.Content = &text
	}
	for _, tc := range resp.Content.ToolCalls() {
		message.ToolCalls = append(message.ToolCalls, openaiapi.ToolCall{
			ID:   tc.ToolCallID,
			Type: "function",
			Function: openaiapi.FunctionCall{
				Name:      tc.ToolName,
				Arguments: tc.Input,
			},
		})
	}

	return &openaiapi.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openaiapi.ChatChoice{{
			Message:      message,
			FinishReason: finishReasonToWire(resp.FinishReason),
		}},
		Usage: usageToWire(resp.Usage),
	}
}

func finishReasonToWire(reason litellm.FinishReason) string {
	switch reason {
	case litellm.FinishReasonLength:
		return "length"
	case litellm.FinishReasonToolCalls:
		return "tool_calls"
	case litellm.FinishReasonContentFilter:
		return "content_filter"
	default:
		return "stop"
	}
}

func usageToWire(usage litellm.Usage) *openaiapi.Usage {
	out := &openaiapi.Usage{
		PromptTokens:     usage.InputTokens,
		CompletionTokens: usage.OutputTokens,
		TotalTokens:      usage.TotalTokens,
	}
	if usage.CacheReadTokens > 0 {
		out.PromptTokensDetails = &openaiapi.PromptTokensDetails{CachedTokens: usage.CacheReadTokens}
	}
	return out
}

// embeddingCallFromRequest translates an OpenAI embeddings request.
func embeddingCallFromRequest(req *openaiapi.EmbeddingRequest) (litellm.EmbeddingCall, error) {
	call := litellm.EmbeddingCall{
		Dimensions:     req.Dimensions,
		EncodingFormat: req.EncodingFormat,
	}
	if len(req.Input) == 0 {
		return call, litellm.NewInvalidArgumentError("input", "must not be empty", nil)
	}

	var single string
	if err := json.Unmarshal(req.Input, &single); err == nil {
		call.Input = &single
		return call, nil
	}
	var many []string
	if err := json.Unmarshal(req.Input, &many); err != nil {
		return call, litellm.NewInvalidArgumentError("input", "must be a string or an array of strings", err)
	}
	call.Inputs = many
	return call, nil
}

func embeddingResponseToWire(model string, resp *litellm.EmbeddingResponse) *openaiapi.EmbeddingResponse {
	data := make([]openaiapi.EmbeddingData, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		data[i] = openaiapi.EmbeddingData{
			Object:    "embedding",
			Index:     emb.Index,
			Embedding: emb.Vector,
		}
	}
	return &openaiapi.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  model,
		Usage:  usageToWire(resp.Usage),
	}
}

func imageCallFromRequest(req *openaiapi.ImageRequest) litellm.ImageCall {
	return litellm.ImageCall{
		Prompt:         req.Prompt,
		N:              req.N,
		Size:           req.Size,
		Quality:        req.Quality,
		Style:          req.Style,
		ResponseFormat: req.ResponseFormat,
	}
}

func imageResponseToWire(resp *litellm.ImageResponse) *openaiapi.ImageResponse {
	data := make([]openaiapi.ImageData, len(resp.Images))
	for i, img := range resp.Images {
		data[i] = openaiapi.ImageData{
			URL:           img.URL,
			B64JSON:       img.Base64,
			RevisedPrompt: img.RevisedPrompt,
		}
	}
	return &openaiapi.ImageResponse{Created: time.Now().Unix(), Data: data}
}

func rerankCallFromRequest(req *openaiapi.RerankRequest) litellm.RerankCall {
	return litellm.RerankCall{
		Query:     req.Query,
		Documents: req.Documents,
		TopN:      req.TopN,
		// Cohere's default is to echo documents back.
		ReturnDocuments: req.ReturnDocuments == nil || *req.ReturnDocuments,
	}
}

func rerankResponseToWire(resp *litellm.RerankResponse, returnDocuments bool) *openaiapi.RerankResponse {
	results := make([]openaiapi.RerankResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = openaiapi.RerankResult{
			Index:          r.Index,
			RelevanceScore: r.RelevanceScore,
		}
		if returnDocuments {
			results[i].Document = &openaiapi.RerankDocument{Text: r.Document}
		}
	}
	out := &openaiapi.RerankResponse{
		ID:      uuid.NewString(),
		Results: results,
	}
	if resp.Usage.InputTokens > 0 {
		out.Meta = &openaiapi.RerankMeta{
			BilledUnits: &openaiapi.RerankBilledUnits{InputTokens: resp.Usage.InputTokens},
		}
	}
	return out
}
