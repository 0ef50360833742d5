// Package encode serializes rendered sketches to PNG, JPEG or WebP.
package encode

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// Encoder encodes an image into bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the encoder's format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// ContentType returns the MIME type of the encoded bytes.
	ContentType() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality. Quality is
// ignored by PNG; 0 selects the default.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png", "":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality), nil
	default:
		return nil, fmt.Errorf("unsupported image format: %q (supported: png, jpeg, webp)", format)
	}
}

// ForPath picks the encoder matching path's extension.
func ForPath(path string, quality int) (Encoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("%s: no file extension to pick an image format from", path)
	}
	return NewEncoder(ext, quality)
}
