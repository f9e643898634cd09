// Package litellm is a unified client for LLM provider APIs. Model
// identifiers carry a provider prefix ("openai/gpt-4o",
// "anthropic/claude-sonnet-4-5", "bedrock/..."); credentials come from
// environment variables or explicit provider options. Provider adapter
// packages under providers/ self-register on import:
//
//	import (
//		"github.com/BerriAI/litellm-go"
//		_ "github.com/BerriAI/litellm-go/providers/openai"
//	)
//
//	resp, err := litellm.Completion(ctx, "openai/gpt-4o", litellm.Call{
//		Prompt: litellm.Prompt{litellm.NewUserTextMessage("hi")},
//	})
//
// The router package adds retries, fallbacks, and load balancing across
// deployments; the proxy package exposes the same surface as an
// OpenAI-compatible REST server driven by a YAML config.
package litellm

import "context"

// Completion generates a response from the model named by the prefixed
// model ID, routing through the default registry.
func Completion(ctx context.Context, modelID string, call Call) (*Response, error) {
	model, err := DefaultRegistry.LanguageModel(modelID)
	if err != nil {
		return nil, err
	}
	return model.Generate(ctx, call)
}

// CompletionStream is the streaming variant of Completion.
func CompletionStream(ctx context.Context, modelID string, call Call) (StreamResponse, error) {
	model, err := DefaultRegistry.LanguageModel(modelID)
	if err != nil {
		return nil, err
	}
	return model.Stream(ctx, call)
}

// Embedding generates embeddings from the model named by the prefixed
// model ID.
func Embedding(ctx context.Context, modelID string, call EmbeddingCall) (*EmbeddingResponse, error) {
	model, err := DefaultRegistry.EmbeddingModel(modelID)
	if err != nil {
		return nil, err
	}
	return model.Embed(ctx, call)
}

// ImageGeneration generates images from the model named by the prefixed
// model ID.
func ImageGeneration(ctx context.Context, modelID string, call ImageCall) (*ImageResponse, error) {
	model, err := DefaultRegistry.ImageModel(modelID)
	if err != nil {
		return nil, err
	}
	return model.GenerateImage(ctx, call)
}

// Rerank scores documents against a query using the model named by the
// prefixed model ID.
func Rerank(ctx context.Context, modelID string, call RerankCall) (*RerankResponse, error) {
	model, err := DefaultRegistry.RerankModel(modelID)
	if err != nil {
		return nil, err
	}
	return model.Rerank(ctx, call)
}
