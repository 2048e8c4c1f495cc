package retouch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage is an interface for persisting generated images. Implementations
// can wrap existing storage clients (local disk, GCS, S3, etc.).
type Storage interface {
	// SaveFile saves image data and returns a locally-resolvable reference.
	// The path should include the full object path (e.g., "edits/output.png").
	// The contentType is typically the image's MIME type (e.g., "image/png").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// StorageResult contains information about a saved image.
type StorageResult struct {
	// URL is the reference where the image can be accessed
	URL string

	// Path is the storage path/key where the image was saved
	Path string

	// Size is the number of bytes saved
	Size int
}

// SaveImage decodes a transport-encoded image and writes it to storage under
// basePath with an extension derived from its MIME type.
func SaveImage(ctx context.Context, storage Storage, img EncodedImage, basePath string) (StorageResult, error) {
	if storage == nil {
		return StorageResult{}, ErrStorageNotConfigured
	}
	if img.IsZero() {
		return StorageResult{}, ErrNoResult
	}

	data, err := img.Decode()
	if err != nil {
		return StorageResult{}, err
	}

	path := basePath + "." + extensionFromMIME(img.MIMEType)
	url, err := storage.SaveFile(ctx, data, path, img.MIMEType)
	if err != nil {
		return StorageResult{}, err
	}

	return StorageResult{
		URL:  url,
		Path: path,
		Size: len(data),
	}, nil
}

// DirStorage persists images under a local directory.
type DirStorage struct {
	// Root directory; created on first save if missing.
	Root string
}

var _ Storage = (*DirStorage)(nil)

// SaveFile writes data under the root directory and returns the full path.
func (s *DirStorage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating storage directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", full, err)
	}
	return full, nil
}

// TimestampPath returns a storage path like "edits/20260102-150405" for use
// as a SaveImage basePath.
func TimestampPath(prefix string, now time.Time) string {
	return prefix + "/" + now.Format("20060102-150405")
}

// GetMIMEType guesses an image MIME type from a file path.
func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// extensionFromMIME returns a file extension for common image MIME types.
func extensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
