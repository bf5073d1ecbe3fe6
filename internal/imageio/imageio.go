// Package imageio provides raw signature image validation, loading,
// and content hashing.
package imageio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// DefaultMaxFileSize is the largest raw image accepted by ValidateBytes.
const DefaultMaxFileSize = 10 * 1024 * 1024

// ErrTooLarge indicates a raw image exceeds the configured size limit.
// A size-policy rejection, distinct from an undecodable buffer.
var ErrTooLarge = errors.New("image exceeds size limit")

// magicHeaders are the recognized raster-format byte prefixes.
// Validation happens before any decode attempt so corrupt or
// non-image uploads are rejected cheaply.
var magicHeaders = [][]byte{
	{0xff, 0xd8, 0xff},                             // JPEG
	{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},  // PNG
	{'B', 'M'},                                     // BMP
	{'I', 'I', '*', 0x00},                          // TIFF little-endian
	{'M', 'M', 0x00, '*'},                          // TIFF big-endian
}

// HasSupportedHeader reports whether data starts with a recognized
// raster-format magic prefix.
func HasSupportedHeader(data []byte) bool {
	for _, header := range magicHeaders {
		if bytes.HasPrefix(data, header) {
			return true
		}
	}
	return false
}

// ValidateBytes checks size and header of a raw image buffer.
func ValidateBytes(data []byte, maxSize int64) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image data")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if int64(len(data)) > maxSize {
		return fmt.Errorf("image size %d exceeds limit %d: %w", len(data), maxSize, ErrTooLarge)
	}
	if !HasSupportedHeader(data) {
		return fmt.Errorf("unrecognized image format")
	}
	return nil
}

// Hash returns the hex-encoded SHA-256 of the image content. Used to
// key analysis results against the exact submitted bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load decodes an image file from disk.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ReadFile reads and validates a raw image file.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := ValidateBytes(data, maxSize); err != nil {
		return nil, err
	}
	return data, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// SanitizeFilename strips path separators and other characters unsafe
// for use in stored filenames.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	sanitized := strings.Trim(replacer.Replace(name), " .")
	if sanitized == "" {
		return "unnamed_file"
	}
	return sanitized
}
