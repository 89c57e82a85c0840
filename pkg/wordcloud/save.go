package wordcloud

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Save encodes img to path. The format follows the file extension: .png,
// .jpg/.jpeg, .bmp or .tif/.tiff.
func Save(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	switch ext {
	case ".png":
		err = png.Encode(out, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 95})
	case ".bmp":
		err = bmp.Encode(out, img)
	default:
		err = tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate})
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close image file: %w", closeErr)
	}
	return nil
}
