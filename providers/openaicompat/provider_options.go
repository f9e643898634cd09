package openaicompat

import (
	"encoding/json"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/providers/openai"
)

// ProviderOptions represents additional options for OpenAI-compatible backends.
type ProviderOptions struct {
	User            *string                 `json:"user"`
	ReasoningEffort *openai.ReasoningEffort `json:"reasoning_effort"`
}

// ReasoningData is the reasoning_content extension field many compatible
// backends include in messages and deltas.
type ReasoningData struct {
	ReasoningContent string `json:"reasoning_content"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderOptions) Options() {}

// NewProviderOptions creates provider options for an OpenAI-compatible backend.
func NewProviderOptions(opts *ProviderOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{
		Name: opts,
	}
}

// ParseOptions parses provider options from a map.
func ParseOptions(data map[string]any) (*ProviderOptions, error) {
	var options ProviderOptions
	if err := litellm.ParseOptions(data, &options); err != nil {
		return nil, err
	}
	return &options, nil
}

func init() {
	litellm.RegisterOptionsType("openaicompat.options", func(data []byte) (litellm.ProviderOptionsData, error) {
		var options ProviderOptions
		if err := json.Unmarshal(data, &options); err != nil {
			return nil, err
		}
		return &options, nil
	})
}
