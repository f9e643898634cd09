package litellm

import (
	"context"
	"fmt"
)

// EmbeddingModel generates embedding vectors.
type EmbeddingModel interface {
	Embed(ctx context.Context, call EmbeddingCall) (*EmbeddingResponse, error)

	Provider() string
	Model() string
}

// EmbeddingCall is a request to generate embeddings. Exactly one of Input or
// Inputs must be provided.
type EmbeddingCall struct {
	Input      *string  `json:"input,omitempty"`
	Inputs     []string `json:"inputs,omitempty"`
	Dimensions *int64   `json:"dimensions,omitempty"`
	// EncodingFormat is passed through to providers that support it
	// ("float" or "base64").
	EncodingFormat *string `json:"encoding_format,omitempty"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

// EmbeddingVector is a single embedding vector.
type EmbeddingVector struct {
	Index  int       `json:"index"`
	Vector []float32 `json:"vector"`
}

// EmbeddingResponse is the result of an embedding call.
type EmbeddingResponse struct {
	Model      string            `json:"model"`
	Usage      Usage             `json:"usage"`
	Embeddings []EmbeddingVector `json:"embeddings"`
}

// ValidateEmbeddingCall validates the embedding request parameters.
func ValidateEmbeddingCall(call EmbeddingCall) error {
	hasInput := call.Input != nil
	hasInputs := len(call.Inputs) > 0

	if hasInput == hasInputs {
		return &Error{
			Title:   "invalid argument",
			Message: "embedding call must set exactly one of input or inputs",
		}
	}

	if hasInput {
		if *call.Input == "" {
			return &Error{
				Title:   "invalid argument",
				Message: "embedding input cannot be empty",
			}
		}
		return nil
	}

	for i, input := range call.Inputs {
		if input == "" {
			return &Error{
				Title:   "invalid argument",
				Message: fmt.Sprintf("embedding inputs[%d] cannot be empty", i),
			}
		}
	}

	return nil
}
