package gemini

import "github.com/retouchlab/retouch"

// NanoBanana2Info is the model info for Gemini 3 Pro Image (nano-banana-2).
//
// Nano Banana Pro (official name: Gemini 3 Pro Image) is Google DeepMind's
// image generation and editing model, built on Gemini 3 Pro.
var NanoBanana2Info = retouch.ModelInfo{
	Name:         "nano-banana-2",
	Provider:     retouch.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana2,

	Capabilities: retouch.ModelCapabilities{
		SupportsImageEditing: true,
		SupportsThinking:     true,
		MaxImageBytes:        retouch.MaxImageSize,
	},

	ImageConstraints: retouch.ImageConstraints{
		SupportedAspectRatios: []retouch.AspectRatio{
			retouch.AspectRatio1x1,
			retouch.AspectRatio16x9,
			retouch.AspectRatio9x16,
			retouch.AspectRatio4x3,
			retouch.AspectRatio3x4,
		},
	},

	RateLimits: retouch.RateLimits{
		RequestsPerMinute: 360,
	},
}

// NanoBanana1Info is the model info for Gemini 2.5 Flash Image (nano-banana-1).
var NanoBanana1Info = retouch.ModelInfo{
	Name:         "nano-banana-1",
	Provider:     retouch.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana1,

	Capabilities: retouch.ModelCapabilities{
		SupportsImageEditing: true,
		SupportsThinking:     true,
		MaxImageBytes:        retouch.MaxImageSize,
	},

	ImageConstraints: retouch.ImageConstraints{
		SupportedAspectRatios: []retouch.AspectRatio{
			retouch.AspectRatio1x1,
			retouch.AspectRatio16x9,
			retouch.AspectRatio9x16,
			retouch.AspectRatio4x3,
			retouch.AspectRatio3x4,
		},
	},

	RateLimits: retouch.RateLimits{
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
	},
}

// modelInfoByName resolves a public model name to its info.
func modelInfoByName(name string) (retouch.ModelInfo, bool) {
	switch name {
	case NanoBanana2Info.Name:
		return NanoBanana2Info, true
	case NanoBanana1Info.Name:
		return NanoBanana1Info, true
	default:
		return retouch.ModelInfo{}, false
	}
}
