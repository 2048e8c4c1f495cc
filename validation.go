package retouch

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyInstruction = errors.New("instruction cannot be empty")
	ErrEmptyImageData   = errors.New("image data cannot be empty")
	ErrInvalidMIMEType  = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge    = errors.New("image data exceeds maximum size")
)

// MaxImageSize is the maximum allowed image size in decoded bytes (20MB).
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the supported image MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidateInstruction validates an edit instruction. Whitespace-only
// instructions count as empty.
func ValidateInstruction(instruction string) error {
	if strings.TrimSpace(instruction) == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// ValidateImage validates a transport-encoded input image before it is sent
// to a provider.
func ValidateImage(img EncodedImage) error {
	if img.IsZero() {
		return ErrEmptyImageData
	}

	if img.MIMEType == "" {
		return fmt.Errorf("%w: MIME type is required", ErrInvalidMIMEType)
	}

	if !ValidMIMETypes[img.MIMEType] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, img.MIMEType)
	}

	if decoded := base64.StdEncoding.DecodedLen(len(img.Data)); decoded > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, decoded, MaxImageSize)
	}

	return nil
}
