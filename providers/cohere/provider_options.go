package cohere

import (
	"encoding/json"

	litellm "github.com/BerriAI/litellm-go"
)

func init() {
	litellm.RegisterOptionsType(Name+".options", func(data []byte) (litellm.ProviderOptionsData, error) {
		var options ProviderOptions
		if err := json.Unmarshal(data, &options); err != nil {
			return nil, err
		}
		return &options, nil
	})
}

// ProviderOptions represents additional options for the Cohere provider.
type ProviderOptions struct {
	// InputType tells the embed endpoint what the text is for:
	// search_document, search_query, classification, or clustering.
	InputType string `json:"input_type,omitempty"`
	// Truncate is NONE, START, or END.
	Truncate string `json:"truncate,omitempty"`
	// MaxTokensPerDoc caps per-document tokens during reranking.
	MaxTokensPerDoc *int64 `json:"max_tokens_per_doc,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderOptions) Options() {}

// NewProviderOptions creates new provider options for the Cohere provider.
func NewProviderOptions(opts *ProviderOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{
		Name: opts,
	}
}

// ParseOptions parses provider options from a map for the Cohere provider.
func ParseOptions(data map[string]any) (*ProviderOptions, error) {
	var options ProviderOptions
	if err := litellm.ParseOptions(data, &options); err != nil {
		return nil, err
	}
	return &options, nil
}
