package litellm

import "context"

// ImageModel generates images from text prompts.
type ImageModel interface {
	GenerateImage(ctx context.Context, call ImageCall) (*ImageResponse, error)

	Provider() string
	Model() string
}

// ImageCall is a request to generate one or more images.
type ImageCall struct {
	Prompt string `json:"prompt"`
	// N is the number of images, defaulting to 1.
	N *int64 `json:"n,omitempty"`
	// Size is a provider size string such as "1024x1024".
	Size    *string `json:"size,omitempty"`
	Quality *string `json:"quality,omitempty"`
	Style   *string `json:"style,omitempty"`
	// ResponseFormat is "url" or "b64_json".
	ResponseFormat *string `json:"response_format,omitempty"`

	ProviderOptions ProviderOptions `json:"provider_options,omitempty"`
}

// GeneratedImage is a single generated image, delivered either by URL or as
// base64 data depending on the requested response format.
type GeneratedImage struct {
	URL           string `json:"url,omitempty"`
	Base64        string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResponse is the result of an image generation call.
type ImageResponse struct {
	Model  string           `json:"model"`
	Images []GeneratedImage `json:"images"`
	Usage  Usage            `json:"usage"`
}

// ValidateImageCall validates the image request parameters.
func ValidateImageCall(call ImageCall) error {
	if call.Prompt == "" {
		return &Error{
			Title:   "invalid argument",
			Message: "image prompt cannot be empty",
		}
	}
	if call.N != nil && *call.N < 1 {
		return &Error{
			Title:   "invalid argument",
			Message: "image count must be at least 1",
		}
	}
	return nil
}
