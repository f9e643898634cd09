package anthropic

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
	litellm.RegisterOptionsType(Name+".reasoning_metadata", func(data []byte) (litellm.ProviderOptionsData, error) {
		var metadata ReasoningOptionMetadata
		if err := json.Unmarshal(data, &metadata); err != nil {
			return nil, err
		}
		return &metadata, nil
	})
}

// Effort controls how much output budget the model spends.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
	EffortMax    Effort = "max"
)

// ProviderOptions represents additional options for the Anthropic provider.
type ProviderOptions struct {
	SendReasoning          *bool                   `json:"send_reasoning"`
	Thinking               *ThinkingProviderOption `json:"thinking"`
	Effort                 *Effort                 `json:"effort"`
	DisableParallelToolUse *bool                   `json:"disable_parallel_tool_use"`
}

// Options implements litellm.ProviderOptionsData.
func (o *ProviderOptions) Options() {}

// ThinkingProviderOption represents thinking options for the Anthropic provider.
type ThinkingProviderOption struct {
	BudgetTokens int64 `json:"budget_tokens"`
}

// ReasoningOptionMetadata represents reasoning metadata for the Anthropic provider.
type ReasoningOptionMetadata struct {
	Signature    string `json:"signature"`
	RedactedData string `json:"redacted_data"`
}

// Options implements litellm.ProviderOptionsData.
func (*ReasoningOptionMetadata) Options() {}

// ProviderCacheControlOptions represents cache control options for the Anthropic provider.
type ProviderCacheControlOptions struct {
	CacheControl CacheControl `json:"cache_control"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderCacheControlOptions) Options() {}

// CacheControl represents cache control settings for the Anthropic provider.
type CacheControl struct {
	Type string `json:"type"`
}

// GetCacheControl extracts anthropic cache control settings from provider
// options, if present.
func GetCacheControl(options litellm.ProviderOptions) *CacheControl {
	if v, ok := options[Name]; ok {
		if cacheOptions, ok := v.(*ProviderCacheControlOptions); ok {
			return &cacheOptions.CacheControl
		}
	}
	return nil
}

// NewProviderOptions creates new provider options for the Anthropic provider.
func NewProviderOptions(opts *ProviderOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{
		Name: opts,
	}
}

// NewProviderCacheControlOptions creates new cache control options for the Anthropic provider.
func NewProviderCacheControlOptions(opts *ProviderCacheControlOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{
		Name: opts,
	}
}

// ParseOptions parses provider options from a map for the Anthropic provider.
func ParseOptions(data map[string]any) (*ProviderOptions, error) {
	var options ProviderOptions
	if err := litellm.ParseOptions(data, &options); err != nil {
		return nil, err
	}
	return &options, nil
}
