package bedrock

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

// ProviderOptions represents additional options for the Bedrock provider.
type ProviderOptions struct {
	// Thinking enables extended thinking for models that support it.
	Thinking *ThinkingProviderOption `json:"thinking"`
	// AdditionalModelRequestFields is passed through to the Converse API
	// verbatim, for model-specific parameters with no unified equivalent.
	AdditionalModelRequestFields map[string]any `json:"additional_model_request_fields,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderOptions) Options() {}

// ThinkingProviderOption represents thinking options for the Bedrock provider.
type ThinkingProviderOption struct {
	BudgetTokens int64 `json:"budget_tokens"`
}

// NewProviderOptions creates new provider options for the Bedrock provider.
func NewProviderOptions(opts *ProviderOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{
		Name: opts,
	}
}

// ParseOptions parses provider options from a map for the Bedrock provider.
func ParseOptions(data map[string]any) (*ProviderOptions, error) {
	var options ProviderOptions
	if err := litellm.ParseOptions(data, &options); err != nil {
		return nil, err
	}
	return &options, nil
}
