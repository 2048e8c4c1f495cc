package retouch

// Model represents a specific image editing model.
type Model string

const (
	ModelNanoBanana2 Model = "nano-banana-2" // Gemini 3 Pro Image
	ModelNanoBanana1 Model = "nano-banana-1" // Gemini 2.5 Flash Image

	ModelDefault Model = ModelNanoBanana2
)

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}

// AspectRatio represents the aspect ratio for generated images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatioAuto AspectRatio = ""
)

// String returns the string representation for API calls.
func (a AspectRatio) String() string {
	return string(a)
}

// EditConfig holds configuration options for an edit request.
type EditConfig struct {
	// Model to use (if empty, the editor's default model)
	Model Model

	// AspectRatio of the output image; AspectRatioAuto follows the input.
	AspectRatio AspectRatio

	// Temperature controls randomness (0.0-2.0, default 1.0 for Gemini 3)
	Temperature *float32

	// SafetySettings for content filtering
	SafetySettings []SafetySetting
}

// WithModel returns a copy of the config with the specified model.
func (c *EditConfig) WithModel(model Model) *EditConfig {
	if c == nil {
		return &EditConfig{Model: model}
	}
	cX := *c
	cX.Model = model
	return &cX
}

// DefaultConfig returns an EditConfig with sensible defaults.
func DefaultConfig() *EditConfig {
	temp := float32(1.0)
	return &EditConfig{
		Model:       ModelDefault,
		AspectRatio: AspectRatioAuto,
		Temperature: &temp,
	}
}
