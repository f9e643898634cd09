package google

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

// ThinkingConfig represents thinking configuration for the Google provider.
type ThinkingConfig struct {
	ThinkingBudget  *int64 `json:"thinking_budget"`
	IncludeThoughts *bool  `json:"include_thoughts"`
}

// SafetySetting represents safety settings for the Google provider.
type SafetySetting struct {
	// 'HARM_CATEGORY_UNSPECIFIED',
	// 'HARM_CATEGORY_HATE_SPEECH',
	// 'HARM_CATEGORY_DANGEROUS_CONTENT',
	// 'HARM_CATEGORY_HARASSMENT',
	// 'HARM_CATEGORY_SEXUALLY_EXPLICIT',
	// 'HARM_CATEGORY_CIVIC_INTEGRITY',
	Category string `json:"category"`

	// 'HARM_BLOCK_THRESHOLD_UNSPECIFIED',
	// 'BLOCK_LOW_AND_ABOVE',
	// 'BLOCK_MEDIUM_AND_ABOVE',
	// 'BLOCK_ONLY_HIGH',
	// 'BLOCK_NONE',
	// 'OFF',
	Threshold string `json:"threshold"`
}

// ProviderOptions represents additional options for the Google provider.
type ProviderOptions struct {
	ThinkingConfig *ThinkingConfig `json:"thinking_config"`

	// CachedContent names cached content used as context to serve the
	// prediction. Format: cachedContents/{cachedContent}
	CachedContent string `json:"cached_content"`

	// SafetySettings block unsafe content per harm category.
	SafetySettings []SafetySetting `json:"safety_settings"`
}

// Options implements litellm.ProviderOptionsData.
func (o *ProviderOptions) Options() {}

// NewProviderOptions creates new provider options for the Google provider.
func NewProviderOptions(opts *ProviderOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{
		Name: opts,
	}
}

// ParseOptions parses provider options from a map for the Google provider.
func ParseOptions(data map[string]any) (*ProviderOptions, error) {
	var options ProviderOptions
	if err := litellm.ParseOptions(data, &options); err != nil {
		return nil, err
	}
	return &options, nil
}
