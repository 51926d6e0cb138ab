package ports

import (
	"context"
	"image"
)

// TextRecognizer extracts text from a slide image
type TextRecognizer interface {
	// Recognize returns the trimmed text found in the image, possibly empty
	Recognize(ctx context.Context, img image.Image) (string, error)

	// IsAvailable checks if the OCR engine is installed
	IsAvailable() bool
}
