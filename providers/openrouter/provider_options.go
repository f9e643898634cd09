package openrouter

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
	litellm.RegisterOptionsType(Name+".metadata", func(data []byte) (litellm.ProviderOptionsData, error) {
		var metadata ProviderMetadata
		if err := json.Unmarshal(data, &metadata); err != nil {
			return nil, err
		}
		return &metadata, nil
	})
}

// RoutingOptions represents OpenRouter provider routing preferences.
type RoutingOptions struct {
	// Order is the list of upstream provider slugs to try in order.
	Order []string `json:"order,omitempty"`
	// AllowFallbacks lets OpenRouter fall back to other providers.
	AllowFallbacks *bool `json:"allow_fallbacks,omitempty"`
	// RequireParameters only routes to providers supporting all request parameters.
	RequireParameters *bool `json:"require_parameters,omitempty"`
	// DataCollection is "allow" or "deny".
	DataCollection *string `json:"data_collection,omitempty"`
	// Only restricts routing to the listed providers.
	Only []string `json:"only,omitempty"`
	// Ignore excludes the listed providers.
	Ignore []string `json:"ignore,omitempty"`
	// Quantizations restricts routing to the listed quantization levels.
	Quantizations []string `json:"quantizations,omitempty"`
	// Sort orders providers by "price" or "throughput".
	Sort *string `json:"sort,omitempty"`
}

// ReasoningOptions represents OpenRouter reasoning configuration.
type ReasoningOptions struct {
	Enabled   *bool   `json:"enabled,omitempty"`
	Effort    *string `json:"effort,omitempty"`
	MaxTokens *int64  `json:"max_tokens,omitempty"`
	Exclude   *bool   `json:"exclude,omitempty"`
}

// ProviderOptions represents additional options for the OpenRouter provider.
type ProviderOptions struct {
	Provider          *RoutingOptions   `json:"provider,omitempty"`
	Reasoning         *ReasoningOptions `json:"reasoning,omitempty"`
	IncludeUsage      *bool             `json:"include_usage,omitempty"`
	LogitBias         map[string]int64  `json:"logit_bias,omitempty"`
	LogProbs          *bool             `json:"logprobs,omitempty"`
	User              *string           `json:"user,omitempty"`
	ParallelToolCalls *bool             `json:"parallel_tool_calls,omitempty"`
	ExtraBody         map[string]any    `json:"extra_body,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderOptions) Options() {}

// NewProviderOptions creates provider options for the OpenRouter provider.
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

// UsageAccounting is OpenRouter's usage accounting extension.
type UsageAccounting struct {
	Cost        float64 `json:"cost"`
	IsBYOK      bool    `json:"is_byok"`
	CostDetails struct {
		UpstreamInferenceCost float64 `json:"upstream_inference_cost"`
	} `json:"cost_details"`
	PromptTokensDetails struct {
		CachedTokens int64 `json:"cached_tokens"`
	} `json:"prompt_tokens_details"`
	CompletionTokensDetails struct {
		ReasoningTokens int64 `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

// ProviderMetadata represents metadata returned by the OpenRouter provider.
type ProviderMetadata struct {
	// Provider is the upstream provider that served the request.
	Provider string          `json:"provider,omitempty"`
	Usage    UsageAccounting `json:"usage,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderMetadata) Options() {}

// ReasoningMetadata carries a reasoning signature for downstream providers.
type ReasoningMetadata struct {
	Signature string `json:"signature,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ReasoningMetadata) Options() {}

// ReasoningDetail is one entry of OpenRouter's reasoning_details extension.
type ReasoningDetail struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// ReasoningData is the reasoning extension OpenRouter includes in messages
// and deltas.
type ReasoningData struct {
	Reasoning        string            `json:"reasoning,omitempty"`
	ReasoningDetails []ReasoningDetail `json:"reasoning_details,omitempty"`
}
