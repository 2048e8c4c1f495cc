package retouch

import (
	"encoding/base64"
	"io"
)

// EncodedImage is a base64 payload annotated with its media type. It is the
// transport-ready form of an uploaded or generated image: immutable once
// created and replaced wholesale when a new image arrives.
type EncodedImage struct {
	// Data is the standard base64 encoding of the image bytes.
	Data string

	// MIMEType of the image (e.g., "image/jpeg", "image/png")
	MIMEType string
}

// IsZero reports whether the image holds no payload.
func (e EncodedImage) IsZero() bool {
	return e.Data == ""
}

// DataURI renders the image as a data URI suitable for direct display.
func (e EncodedImage) DataURI() string {
	return "data:" + e.MIMEType + ";base64," + e.Data
}

// Decode returns the raw image bytes.
func (e EncodedImage) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	return data, nil
}

// Encode reads the full byte content of r and encodes it for transport.
// The declared MIME type is forwarded as-is; no type or size validation is
// performed here. It fails with *EncodingError when the source cannot be
// read or yields no payload.
func Encode(r io.Reader, mimeType string) (EncodedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EncodedImage{}, &EncodingError{Err: err}
	}
	return EncodeBytes(data, mimeType)
}

// EncodeBytes encodes raw image bytes for transport. It fails with
// *EncodingError on empty input so an EncodedImage never carries an empty
// payload.
func EncodeBytes(data []byte, mimeType string) (EncodedImage, error) {
	if len(data) == 0 {
		return EncodedImage{}, &EncodingError{Err: ErrEmptyImageData}
	}
	return EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}, nil
}
