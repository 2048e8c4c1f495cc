package retouch

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	SupportsImageEditing bool
	SupportsThinking     bool // Reasoning/thinking mode

	// MaxImageBytes is the largest accepted input image, decoded.
	MaxImageBytes int
}

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	RequestsPerMinute int
}

// ImageConstraints defines supported image configurations for a model.
type ImageConstraints struct {
	SupportedAspectRatios []AspectRatio
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string   // Public model name (e.g., "nano-banana-2")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name (e.g., "gemini-3-pro-image-preview")

	// Capabilities
	Capabilities ModelCapabilities

	// Constraints
	ImageConstraints ImageConstraints

	// Rate Limits
	RateLimits RateLimits
}
