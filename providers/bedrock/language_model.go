package bedrock

import (
	"context"
	"fmt"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type languageModel struct {
	modelID  string
	provider string
	client   converseClient
}

var _ litellm.LanguageModel = &languageModel{}

// Model implements litellm.LanguageModel.
func (m *languageModel) Model() string {
	return m.modelID
}

// Provider implements litellm.LanguageModel.
func (m *languageModel) Provider() string {
	return m.provider
}

// Generate implements litellm.LanguageModel.
func (m *languageModel) Generate(ctx context.Context, call litellm.Call) (*litellm.Response, error) {
	request, warnings, err := m.prepareConverseRequest(call)
	if err != nil {
		return nil, err
	}

	output, err := m.client.Converse(ctx, request)
	if err != nil {
		return nil, convertAWSError(err, m.provider)
	}

	return m.convertConverseResponse(output, warnings)
}

// Stream implements litellm.LanguageModel.
func (m *languageModel) Stream(ctx context.Context, call litellm.Call) (litellm.StreamResponse, error) {
	request, warnings, err := m.prepareConverseStreamRequest(call)
	if err != nil {
		return nil, err
	}

	output, err := m.client.ConverseStream(ctx, request)
	if err != nil {
		return nil, convertAWSError(err, m.provider)
	}

	return m.handleConverseStream(output, warnings), nil
}

// handleConverseStream turns Converse stream events into stream parts.
func (m *languageModel) handleConverseStream(output *bedrockruntime.ConverseStreamOutput, warnings []litellm.CallWarning) litellm.StreamResponse {
	return func(yield func(litellm.StreamPart) bool) {
		if !yield(litellm.StreamPart{
			Type:     litellm.StreamPartTypeWarnings,
			Warnings: warnings,
		}) {
			return
		}

		stream := output.GetStream()
		if stream == nil {
			yield(litellm.StreamPart{
				Type:  litellm.StreamPartTypeError,
				Error: fmt.Errorf("bedrock: converse stream is nil"),
			})
			return
		}
		defer stream.Close() //nolint:errcheck

		var (
			textStarted  bool
			toolCallID   string
			toolCallName string
			toolCallArgs string
			usage        litellm.Usage
			finishReason = litellm.FinishReasonUnknown
		)

		for event := range stream.Events() {
			switch e := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockStart:
				start, ok := e.Value.Start.(*types.ContentBlockStartMemberToolUse)
				if !ok {
					continue
				}
				if start.Value.ToolUseId != nil {
					toolCallID = *start.Value.ToolUseId
				}
				if start.Value.Name != nil {
					toolCallName = *start.Value.Name
				}
				toolCallArgs = ""

				if !yield(litellm.StreamPart{
					Type:         litellm.StreamPartTypeToolInputStart,
					ID:           toolCallID,
					ToolCallName: toolCallName,
				}) {
					return
				}

			case *types.ConverseStreamOutputMemberContentBlockDelta:
				switch delta := e.Value.Delta.(type) {
				case *types.ContentBlockDeltaMemberText:
					if !textStarted {
						textStarted = true
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
						Delta: delta.Value,
					}) {
						return
					}
				case *types.ContentBlockDeltaMemberToolUse:
					if delta.Value.Input == nil {
						continue
					}
					toolCallArgs += *delta.Value.Input
					if !yield(litellm.StreamPart{
						Type:  litellm.StreamPartTypeToolInputDelta,
						ID:    toolCallID,
						Delta: *delta.Value.Input,
					}) {
						return
					}
				}

			case *types.ConverseStreamOutputMemberContentBlockStop:
				if toolCallID == "" {
					continue
				}
				if toolCallArgs == "" {
					toolCallArgs = "{}"
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
					ToolCallName:  toolCallName,
					ToolCallInput: toolCallArgs,
				}) {
					return
				}
				toolCallID = ""
				toolCallName = ""
				toolCallArgs = ""

			case *types.ConverseStreamOutputMemberMessageStop:
				if e.Value.StopReason != "" {
					finishReason = convertStopReason(e.Value.StopReason)
				}

			case *types.ConverseStreamOutputMemberMetadata:
				if e.Value.Usage != nil {
					usage = convertTokenUsage(e.Value.Usage)
				}
			}
		}

		if err := stream.Err(); err != nil {
			yield(litellm.StreamPart{
				Type:  litellm.StreamPartTypeError,
				Error: convertAWSError(err, m.provider),
			})
			return
		}

		if textStarted {
			if !yield(litellm.StreamPart{
				Type: litellm.StreamPartTypeTextEnd,
				ID:   "0",
			}) {
				return
			}
		}

		yield(litellm.StreamPart{
			Type:         litellm.StreamPartTypeFinish,
			Usage:        usage,
			FinishReason: finishReason,
		})
	}
}
