package openai

import (
	"encoding/json"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/openai/openai-go/v2"
)

// ReasoningEffort controls how much effort reasoning models spend thinking.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// ProviderOptions are OpenAI-specific request options.
type ProviderOptions struct {
	LogitBias           map[string]int64 `json:"logit_bias,omitempty"`
	LogProbs            *bool            `json:"logprobs,omitempty"`
	TopLogProbs         *int64           `json:"top_logprobs,omitempty"`
	ParallelToolCalls   *bool            `json:"parallel_tool_calls,omitempty"`
	User                *string          `json:"user,omitempty"`
	ReasoningEffort     *ReasoningEffort `json:"reasoning_effort,omitempty"`
	MaxCompletionTokens *int64           `json:"max_completion_tokens,omitempty"`
	TextVerbosity       *string          `json:"text_verbosity,omitempty"`
	Prediction          map[string]any   `json:"prediction,omitempty"`
	Store               *bool            `json:"store,omitempty"`
	Metadata            map[string]any   `json:"metadata,omitempty"`
	PromptCacheKey      *string          `json:"prompt_cache_key,omitempty"`
	SafetyIdentifier    *string          `json:"safety_identifier,omitempty"`
	ServiceTier         *string          `json:"service_tier,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderOptions) Options() {}

// ProviderMetadata is OpenAI-specific response metadata.
type ProviderMetadata struct {
	Logprobs                 []openai.ChatCompletionTokenLogprob `json:"logprobs,omitempty"`
	AcceptedPredictionTokens int64                               `json:"accepted_prediction_tokens,omitempty"`
	RejectedPredictionTokens int64                               `json:"rejected_prediction_tokens,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderMetadata) Options() {}

// ProviderFileOptions are OpenAI-specific options for file message parts.
type ProviderFileOptions struct {
	ImageDetail string `json:"image_detail,omitempty"`
}

// Options implements litellm.ProviderOptionsData.
func (*ProviderFileOptions) Options() {}

// NewProviderOptions wraps OpenAI options for a call's provider options map.
func NewProviderOptions(opts *ProviderOptions) litellm.ProviderOptions {
	return litellm.ProviderOptions{Name: opts}
}

// ParseOptions parses OpenAI provider options from a loosely typed map.
func ParseOptions(data map[string]any) (*ProviderOptions, error) {
	var options ProviderOptions
	if err := litellm.ParseOptions(data, &options); err != nil {
		return nil, err
	}
	return &options, nil
}

func init() {
	litellm.RegisterOptionsType("openai.options", func(data []byte) (litellm.ProviderOptionsData, error) {
		var options ProviderOptions
		if err := json.Unmarshal(data, &options); err != nil {
			return nil, err
		}
		return &options, nil
	})
	litellm.RegisterOptionsType("openai.metadata", func(data []byte) (litellm.ProviderOptionsData, error) {
		var metadata ProviderMetadata
		if err := json.Unmarshal(data, &metadata); err != nil {
			return nil, err
		}
		return &metadata, nil
	})
}
