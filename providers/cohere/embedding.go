package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	litellm "github.com/BerriAI/litellm-go"
)

type embeddingModel struct {
	modelID string
	options options
}

var _ litellm.EmbeddingModel = &embeddingModel{}

// Model implements litellm.EmbeddingModel.
func (m *embeddingModel) Model() string {
	return m.modelID
}

// Provider implements litellm.EmbeddingModel.
func (m *embeddingModel) Provider() string {
	return Name
}

type embedRequest struct {
	Model           string   `json:"model"`
	Texts           []string `json:"texts"`
	InputType       string   `json:"input_type"`
	EmbeddingTypes  []string `json:"embedding_types"`
	OutputDimension *int64   `json:"output_dimension,omitempty"`
	Truncate        string   `json:"truncate,omitempty"`
}

type embedResponse struct {
	ID         string `json:"id"`
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
	Meta struct {
		BilledUnits struct {
			InputTokens float64 `json:"input_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

// Embed implements litellm.EmbeddingModel.
func (m *embeddingModel) Embed(ctx context.Context, call litellm.EmbeddingCall) (*litellm.EmbeddingResponse, error) {
	if err := litellm.ValidateEmbeddingCall(call); err != nil {
		return nil, err
	}

	texts := call.Inputs
	if call.Input != nil {
		texts = []string{*call.Input}
	}

	request := embedRequest{
		Model:           m.modelID,
		Texts:           texts,
		InputType:       "search_document",
		EmbeddingTypes:  []string{"float"},
		OutputDimension: call.Dimensions,
	}
	if providerOptions, ok := call.ProviderOptions[Name].(*ProviderOptions); ok && providerOptions != nil {
		if providerOptions.InputType != "" {
			request.InputType = providerOptions.InputType
		}
		request.Truncate = providerOptions.Truncate
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("cohere: failed to encode embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.options.baseURL+"/v2/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cohere: failed to create request: %w", err)
	}
	m.options.setHeaders(httpReq)

	resp, err := m.options.client.Do(httpReq)
	if err != nil {
		return nil, &litellm.ProviderError{
			Title:    "request failed",
			Message:  err.Error(),
			Cause:    err,
			Provider: Name,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var response embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("cohere: failed to decode embed response: %w", err)
	}

	embeddings := make([]litellm.EmbeddingVector, 0, len(response.Embeddings.Float))
	for i, vector := range response.Embeddings.Float {
		embeddings = append(embeddings, litellm.EmbeddingVector{
			Index:  i,
			Vector: vector,
		})
	}

	inputTokens := int64(response.Meta.BilledUnits.InputTokens)
	return &litellm.EmbeddingResponse{
		Model: m.modelID,
		Usage: litellm.Usage{
			InputTokens: inputTokens,
			TotalTokens: inputTokens,
		},
		Embeddings: embeddings,
	}, nil
}
