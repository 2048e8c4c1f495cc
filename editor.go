package retouch

import "context"

// ImageEditor is the boundary to the remote generative image model.
// Implement this interface to add support for new models or providers.
//
// The first model returned by Models() is considered the default model.
type ImageEditor interface {
	// Edit produces a new image from an input image and a text instruction.
	// Exactly one remote exchange is performed per invocation; there are no
	// automatic retries.
	Edit(ctx context.Context, image EncodedImage, instruction string, cfg *EditConfig) (*EditResult, error)

	// Models returns the model definitions supported by this editor.
	Models() []ModelInfo

	// Close releases any resources held by the editor.
	Close() error
}

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderGeminiAPI Provider = "gemini"
)

// ProviderConfig configures a specific provider.
type ProviderConfig struct {
	// Provider type
	Provider Provider

	// APIKey for authentication
	APIKey string

	// BaseURL for custom endpoints (optional)
	BaseURL string
}
