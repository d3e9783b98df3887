package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
)

// SupportedImageExtensions lists the file extensions accepted for decoding.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight source information for diagnostics.
type ImageMetadata struct {
	Source string
	Format string
	Width  int
	Height int
}

// DecodeFile opens and decodes an image file.
func DecodeFile(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		return nil, ImageMetadata{}, errors.New("empty image path")
	}
	if !IsSupportedImage(path) {
		return nil, ImageMetadata{}, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("failed to read image: %w", err)
	}
	img, meta, err := DecodeBytes(data)
	if err != nil {
		return nil, ImageMetadata{}, err
	}
	meta.Source = path
	return img, meta, nil
}

// DecodeBytes decodes an in-memory image buffer.
func DecodeBytes(data []byte) (image.Image, ImageMetadata, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	return img, ImageMetadata{Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}
