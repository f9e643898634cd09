package litellm

import "context"

// LanguageModel generates text, tool calls, and structured output.
type LanguageModel interface {
	Generate(ctx context.Context, call Call) (*Response, error)
	Stream(ctx context.Context, call Call) (StreamResponse, error)

	Provider() string
	Model() string
}

// Provider constructs language models for a vendor backend.
type Provider interface {
	Name() string
	LanguageModel(modelID string) (LanguageModel, error)
}

// EmbeddingProvider is implemented by providers that can create embedding
// models. Separate from Provider so text-only backends stay small.
type EmbeddingProvider interface {
	EmbeddingModel(modelID string) (EmbeddingModel, error)
}

// ImageProvider is implemented by providers that can create image models.
type ImageProvider interface {
	ImageModel(modelID string) (ImageModel, error)
}

// RerankProvider is implemented by providers that can create rerank models.
type RerankProvider interface {
	RerankModel(modelID string) (RerankModel, error)
}
