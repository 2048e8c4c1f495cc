package retouch

import (
	"errors"
	"fmt"
	"time"
)

// EncodingError is returned when an uploaded image cannot be read or encoded.
// The underlying error is kept for logging; the user-facing surface shows a
// generic message instead.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return "failed to encode image"
	}
	return fmt.Sprintf("failed to encode image: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IsEncodingError checks if an error is an EncodingError.
func IsEncodingError(err error) bool {
	var encErr *EncodingError
	return errors.As(err, &encErr)
}

// GenerationError is returned when the remote edit call fails: transport
// failure, authentication failure, or a malformed response.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "image generation failed"
	}
	return fmt.Sprintf("image generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError checks if an error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// NoImageReturnedError is returned when the remote call succeeded but the
// response carried no inline image part, e.g. a content refusal.
type NoImageReturnedError struct {
	// Reason carries the model's finish reason when the API reported one.
	Reason string
}

func (e *NoImageReturnedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("the model returned no image (%s)", e.Reason)
	}
	return "the model returned no image"
}

// IsNoImageReturnedError checks if an error is a NoImageReturnedError.
func IsNoImageReturnedError(err error) bool {
	var noImgErr *NoImageReturnedError
	return errors.As(err, &noImgErr)
}

// RateLimitError is returned when a rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: retry after %v", e.Model, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

var (
	// ErrGenerationPending is returned when a generate action is requested
	// while another generation is already in flight. The pending request is
	// left untouched; the new one is not issued.
	ErrGenerationPending = errors.New("a generation is already in flight")

	// ErrNoImage is returned when a generate action is requested before any
	// image has been uploaded and encoded.
	ErrNoImage = errors.New("no image has been uploaded")

	// ErrNoResult is returned when a result operation is attempted while no
	// generated image is available.
	ErrNoResult = errors.New("no generated image available")

	// ErrStorageNotConfigured is returned when storage operations are attempted
	// without a configured storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")
)
