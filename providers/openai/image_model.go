package openai

import (
	"context"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"
)

type imageModel struct {
	provider string
	modelID  string
	client   openai.Client
}

// Model implements litellm.ImageModel.
func (m imageModel) Model() string {
	return m.modelID
}

// Provider implements litellm.ImageModel.
func (m imageModel) Provider() string {
	return m.provider
}

// GenerateImage implements litellm.ImageModel.
func (m imageModel) GenerateImage(ctx context.Context, call litellm.ImageCall) (*litellm.ImageResponse, error) {
	if err := litellm.ValidateImageCall(call); err != nil {
		return nil, err
	}

	params := openai.ImageGenerateParams{
		Prompt: call.Prompt,
		Model:  openai.ImageModel(m.modelID),
	}
	if call.N != nil {
		params.N = param.NewOpt(*call.N)
	}
	if call.Size != nil {
		params.Size = openai.ImageGenerateParamsSize(*call.Size)
	}
	if call.Quality != nil {
		params.Quality = openai.ImageGenerateParamsQuality(*call.Quality)
	}
	if call.Style != nil {
		params.Style = openai.ImageGenerateParamsStyle(*call.Style)
	}
	if call.ResponseFormat != nil {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormat(*call.ResponseFormat)
	}

	response, err := m.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, toProviderErr(err, m.provider)
	}

	images := make([]litellm.GeneratedImage, 0, len(response.Data))
	for _, img := range response.Data {
		images = append(images, litellm.GeneratedImage{
			URL:           img.URL,
			Base64:        img.B64JSON,
			RevisedPrompt: img.RevisedPrompt,
		})
	}

	return &litellm.ImageResponse{
		Model:  m.modelID,
		Images: images,
		Usage: litellm.Usage{
			InputTokens:  response.Usage.InputTokens,
			OutputTokens: response.Usage.OutputTokens,
			TotalTokens:  response.Usage.TotalTokens,
		},
	}, nil
}
