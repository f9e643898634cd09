package litellm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEmbeddingModel struct {
	provider string
	model    string
}

func (f fakeEmbeddingModel) Embed(_ context.Context, call EmbeddingCall) (*EmbeddingResponse, error) {
	if err := ValidateEmbeddingCall(call); err != nil {
		return nil, err
	}
	vectors := make([]EmbeddingVector, len(call.Inputs))
	for i := range call.Inputs {
		vectors[i] = EmbeddingVector{Index: i, Vector: []float32{0.1, 0.2}}
	}
	return &EmbeddingResponse{
		Model:      f.model,
		Embeddings: vectors,
		Usage:      Usage{InputTokens: 4, TotalTokens: 4},
	}, nil
}

func (f fakeEmbeddingModel) Provider() string { return f.provider }
func (f fakeEmbeddingModel) Model() string    { return f.model }

type fakeEmbeddingProvider struct {
	fakeProvider
}

func (f fakeEmbeddingProvider) EmbeddingModel(modelID string) (EmbeddingModel, error) {
	return fakeEmbeddingModel{provider: f.name, model: modelID}, nil
}

// The package-level Embedding function and the EmbeddingVector type must
// coexist; the function routes through the default registry.
func TestEmbeddingConvenienceFunc(t *testing.T) {
	DefaultRegistry.RegisterProvider("embedfake", fakeEmbeddingProvider{fakeProvider{name: "embedfake"}})

	response, err := Embedding(context.Background(), "embedfake/small", EmbeddingCall{
		Inputs: []string{"first", "second"},
	})
	require.NoError(t, err)
	require.Equal(t, "small", response.Model)
	require.Len(t, response.Embeddings, 2)
	require.Equal(t, 1, response.Embeddings[1].Index)
}

func TestValidateEmbeddingCall(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateEmbeddingCall(EmbeddingCall{Input: Opt("hello")}))
	require.NoError(t, ValidateEmbeddingCall(EmbeddingCall{Inputs: []string{"a", "b"}}))

	err := ValidateEmbeddingCall(EmbeddingCall{})
	require.ErrorContains(t, err, "exactly one of input or inputs")

	err = ValidateEmbeddingCall(EmbeddingCall{Input: Opt(""), Inputs: nil})
	require.ErrorContains(t, err, "cannot be empty")

	err = ValidateEmbeddingCall(EmbeddingCall{Input: Opt("x"), Inputs: []string{"y"}})
	require.ErrorContains(t, err, "exactly one of input or inputs")
}
