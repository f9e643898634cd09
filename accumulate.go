package litellm

import (
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	xjson "github.com/charmbracelet/x/json"
)

// AccumulateStream folds a streaming generation into a Response. It is used
// by callers that need the full result (and its usage) from a stream, and by
// the proxy when a deployment only supports streaming. The first stream error
// is returned after draining.
func AccumulateStream(stream StreamResponse) (*Response, error) {
	var (
		response   Response
		streamErr  error
		texts      = map[string]*strings.Builder{}
		reasonings = map[string]*strings.Builder{}
		textOrder  []string
		reasoning  []string
	)

	for part := range stream {
		switch part.Type {
		case StreamPartTypeWarnings:
			response.Warnings = append(response.Warnings, part.Warnings...)
		case StreamPartTypeTextStart:
			if _, ok := texts[part.ID]; !ok {
				texts[part.ID] = &strings.Builder{}
				textOrder = append(textOrder, part.ID)
			}
		case StreamPartTypeTextDelta:
			if _, ok := texts[part.ID]; !ok {
				texts[part.ID] = &strings.Builder{}
				textOrder = append(textOrder, part.ID)
			}
			texts[part.ID].WriteString(part.Delta)
		case StreamPartTypeReasoningStart:
			if _, ok := reasonings[part.ID]; !ok {
				reasonings[part.ID] = &strings.Builder{}
				reasoning = append(reasoning, part.ID)
			}
		case StreamPartTypeReasoningDelta:
			if _, ok := reasonings[part.ID]; !ok {
				reasonings[part.ID] = &strings.Builder{}
				reasoning = append(reasoning, part.ID)
			}
			reasonings[part.ID].WriteString(part.Delta)
		case StreamPartTypeToolCall:
			response.Content = append(response.Content, ToolCallContent{
				ToolCallID: part.ID,
				ToolName:   part.ToolCallName,
				Input:      RepairToolInput(part.ToolCallInput),
			})
		case StreamPartTypeSource:
			response.Content = append(response.Content, SourceContent{
				SourceType: part.SourceType,
				ID:         part.ID,
				URL:        part.URL,
				Title:      part.Title,
			})
		case StreamPartTypeFinish:
			response.Usage = part.Usage
			response.FinishReason = part.FinishReason
			response.ProviderMetadata = part.ProviderMetadata
		case StreamPartTypeError:
			if streamErr == nil {
				streamErr = part.Error
			}
		}
	}

	if streamErr != nil {
		return nil, streamErr
	}

	// Reasoning blocks come before text, matching provider emission order.
	content := make(ContentList, 0, len(reasoning)+len(textOrder)+len(response.Content))
	for _, id := range reasoning {
		if s := reasonings[id].String(); s != "" {
			content = append(content, ReasoningContent{Text: s})
		}
	}
	for _, id := range textOrder {
		if s := texts[id].String(); s != "" {
			content = append(content, TextContent{Text: s})
		}
	}
	response.Content = append(content, response.Content...)

	if response.FinishReason == "" {
		response.FinishReason = FinishReasonUnknown
	}
	return &response, nil
}

// RepairToolInput returns valid JSON for a streamed tool argument payload.
// Providers occasionally truncate or mangle incrementally assembled JSON;
// invalid payloads are run through the repairer rather than rejected.
func RepairToolInput(input string) string {
	if input == "" {
		return "{}"
	}
	if xjson.IsValid(input) {
		return input
	}
	repaired, err := jsonrepair.RepairJSON(input)
	if err != nil {
		return input
	}
	return repaired
}
