// Package gemini provides an ImageEditor implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// For Vertex AI or other Google Cloud backends, a separate provider implementation
// could be created using the same SDK with a different backend configuration.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/retouchlab/retouch"
)

// Model name constants - the actual API model names.
const (
	// APIModelNanoBanana2 is the actual API name for Gemini 3 Pro Image
	APIModelNanoBanana2 = "gemini-3-pro-image-preview"

	// APIModelNanoBanana1 is the actual API name for Gemini 2.5 Flash Image
	APIModelNanoBanana1 = "gemini-2.5-flash-image"
)

// Editor implements retouch.ImageEditor using Google's Gemini API.
type Editor struct {
	client         *genai.Client
	safetySettings []*genai.SafetySetting
	mu             sync.RWMutex
}

// Ensure Editor implements the interface.
var _ retouch.ImageEditor = (*Editor)(nil)

// New creates a new Editor from a ProviderConfig.
func New(ctx context.Context, config *retouch.ProviderConfig) (*Editor, error) {
	if config == nil {
		config = &retouch.ProviderConfig{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}
	// If APIKey is empty, the SDK will try GOOGLE_API_KEY or GEMINI_API_KEY env vars

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Editor{
		client: client,
	}, nil
}

// NewWithAPIKey creates an editor with an API key for the Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string) (*Editor, error) {
	return New(ctx, &retouch.ProviderConfig{
		Provider: retouch.ProviderGeminiAPI,
		APIKey:   apiKey,
	})
}

// SetSafetySettings configures default safety settings for all requests.
// These can be overridden per-request via EditConfig.SafetySettings.
func (e *Editor) SetSafetySettings(settings []retouch.SafetySetting) *Editor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.safetySettings = convertSafetySettings(settings)
	return e
}

// Edit performs one generate-content exchange: the input image as an inline
// blob followed by the instruction text, with image-typed output requested.
func (e *Editor) Edit(ctx context.Context, image retouch.EncodedImage, instruction string, config *retouch.EditConfig) (*retouch.EditResult, error) {
	if err := retouch.ValidateInstruction(instruction); err != nil {
		return nil, err
	}
	if err := retouch.ValidateImage(image); err != nil {
		return nil, err
	}

	if config == nil {
		config = retouch.DefaultConfig()
	}

	data, err := image.Decode()
	if err != nil {
		return nil, err
	}

	modelName := e.resolveModel(config)

	// Build parts with image and text
	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				Data:     data,
				MIMEType: image.MIMEType,
			},
		},
		{Text: instruction},
	}

	contents := []*genai.Content{
		{Parts: parts},
	}

	genConfig := e.buildGenerateContentConfig(config)

	result, err := e.client.Models.GenerateContent(ctx, modelName, contents, genConfig)
	if err != nil {
		if rlErr := checkRateLimitError(err, modelName); rlErr != nil {
			return nil, rlErr
		}
		return nil, &retouch.GenerationError{Err: err}
	}

	return parseResult(result)
}

// Models returns the model definitions supported by this provider.
// The first model (NanoBanana2) is the default.
func (e *Editor) Models() []retouch.ModelInfo {
	return []retouch.ModelInfo{
		NanoBanana2Info,
		NanoBanana1Info,
	}
}

// Close releases any resources held by the editor.
func (e *Editor) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// resolveModel determines which API model name to use.
// Falls back to the first model (default) if none specified.
func (e *Editor) resolveModel(config *retouch.EditConfig) string {
	if config != nil && config.Model != "" {
		if info, ok := modelInfoByName(string(config.Model)); ok {
			return info.APIModelName
		}
		return string(config.Model)
	}
	models := e.Models()
	if len(models) == 0 {
		return APIModelNanoBanana2
	}
	return models[0].APIModelName
}

// buildGenerateContentConfig converts our config to Gemini's GenerateContentConfig format.
func (e *Editor) buildGenerateContentConfig(config *retouch.EditConfig) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		// Enable image output
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	if config.AspectRatio != "" {
		genConfig.ImageConfig = &genai.ImageConfig{
			AspectRatio: config.AspectRatio.String(),
		}
	}

	if config.Temperature != nil {
		genConfig.Temperature = genai.Ptr(*config.Temperature)
	}

	// Safety settings: per-request overrides provider defaults
	e.mu.RLock()
	defaults := e.safetySettings
	e.mu.RUnlock()
	if len(config.SafetySettings) > 0 {
		genConfig.SafetySettings = convertSafetySettings(config.SafetySettings)
	} else if len(defaults) > 0 {
		genConfig.SafetySettings = defaults
	}

	return genConfig
}

// convertSafetySettings converts our SafetySettings to Gemini's format.
func convertSafetySettings(settings []retouch.SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// parseResult extracts the first returned image from a Gemini response.
// Text parts are accumulated as commentary; the first inline-data part wins.
// A response without any inline image fails with *NoImageReturnedError.
func parseResult(result *genai.GenerateContentResponse) (*retouch.EditResult, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, &retouch.GenerationError{Err: errors.New("empty response from model")}
	}

	candidate := result.Candidates[0]

	editResult := &retouch.EditResult{}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}

			if part.Text != "" {
				editResult.Text += part.Text
			}

			if editResult.Image.IsZero() && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				img, err := retouch.EncodeBytes(part.InlineData.Data, part.InlineData.MIMEType)
				if err != nil {
					return nil, &retouch.GenerationError{Err: err}
				}
				editResult.Image = img
			}
		}
	}

	if editResult.Image.IsZero() {
		return nil, &retouch.NoImageReturnedError{Reason: string(candidate.FinishReason)}
	}

	if result.UsageMetadata != nil {
		editResult.UsageMetadata = &retouch.UsageMetadata{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return editResult, nil
}

// checkRateLimitError checks if an error from the Gemini API is a rate limit error.
// If so, it wraps it in a RateLimitError for standardized handling; otherwise returns nil.
func checkRateLimitError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return nil
	}

	return &retouch.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		Model:      model,
		Err:        err,
	}
}
