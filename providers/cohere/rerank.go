package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	litellm "github.com/BerriAI/litellm-go"
)

type rerankModel struct {
	modelID string
	options options
}

var _ litellm.RerankModel = &rerankModel{}

// Model implements litellm.RerankModel.
func (m *rerankModel) Model() string {
	return m.modelID
}

// Provider implements litellm.RerankModel.
func (m *rerankModel) Provider() string {
	return Name
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            *int64   `json:"top_n,omitempty"`
	MaxTokensPerDoc *int64   `json:"max_tokens_per_doc,omitempty"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	ID      string         `json:"id"`
	Results []rerankResult `json:"results"`
	Meta    struct {
		BilledUnits struct {
			SearchUnits float64 `json:"search_units"`
			InputTokens float64 `json:"input_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

// Rerank implements litellm.RerankModel.
func (m *rerankModel) Rerank(ctx context.Context, call litellm.RerankCall) (*litellm.RerankResponse, error) {
	if err := litellm.ValidateRerankCall(call); err != nil {
		return nil, err
	}

	request := rerankRequest{
		Model:     m.modelID,
		Query:     call.Query,
		Documents: call.Documents,
		TopN:      call.TopN,
	}
	if providerOptions, ok := call.ProviderOptions[Name].(*ProviderOptions); ok && providerOptions != nil {
		request.MaxTokensPerDoc = providerOptions.MaxTokensPerDoc
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("cohere: failed to encode rerank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.options.baseURL+"/v2/rerank", bytes.NewReader(body))
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

	var response rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("cohere: failed to decode rerank response: %w", err)
	}

	results := make([]litellm.RankedDocument, 0, len(response.Results))
	for _, result := range response.Results {
		ranked := litellm.RankedDocument{
			Index:          result.Index,
			RelevanceScore: result.RelevanceScore,
		}
		if call.ReturnDocuments && result.Index >= 0 && result.Index < len(call.Documents) {
			ranked.Document = call.Documents[result.Index]
		}
		results = append(results, ranked)
	}

	return &litellm.RerankResponse{
		Model:   m.modelID,
		Results: results,
		Usage: litellm.Usage{
			InputTokens: int64(response.Meta.BilledUnits.InputTokens),
			TotalTokens: int64(response.Meta.BilledUnits.InputTokens),
		},
	}, nil
}
