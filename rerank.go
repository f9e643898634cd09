package litellm

import "context"

// RerankModel scores documents by relevance to a query.
type RerankModel interface {
	Rerank(ctx context.Context, call RerankCall) (*RerankResponse, error)

	Provider() string
	Model() string
}

// RerankCall is a request to rank documents against a query.
type RerankCall struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	// TopN limits how many ranked results come back; nil returns all.
	TopN *int64 `json:"top_n,omitempty"`
	// ReturnDocuments echoes document text in the results.
	ReturnDocuments bool `json:"return_documents,omitempty"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

// RankedDocument is a single scored document, ordered most relevant first.
type RankedDocument struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
	Document       string  `json:"document,omitempty"`
}

// RerankResponse is the result of a rerank call.
type RerankResponse struct {
	Model   string           `json:"model"`
	Results []RankedDocument `json:"results"`
	Usage   Usage            `json:"usage"`
}

// ValidateRerankCall validates the rerank request parameters.
func ValidateRerankCall(call RerankCall) error {
	if call.Query == "" {
		return &Error{
			Title:   "invalid argument",
			Message: "rerank query cannot be empty",
		}
	}
	if len(call.Documents) == 0 {
		return &Error{
			Title:   "invalid argument",
			Message: "rerank requires at least one document",
		}
	}
	if call.TopN != nil && *call.TopN < 1 {
		return &Error{
			Title:   "invalid argument",
			Message: "rerank top_n must be at least 1",
		}
	}
	return nil
}
