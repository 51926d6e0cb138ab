package domain

import "errors"

var (
	// Source errors
	ErrSourceUnavailable = errors.New("video source unavailable")
	ErrDecodeSkip        = errors.New("frame could not be decoded")

	// Recognition errors (always recovered as empty text)
	ErrRecognitionFailure = errors.New("text recognition failed")

	// Export errors
	ErrExport   = errors.New("export failed")
	ErrNoSlides = errors.New("no slides to export")

	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")

	// Store errors
	ErrTextAlreadyAttached = errors.New("text already attached to slide")
	ErrSlideNotFound       = errors.New("slide not found")
	ErrManifestNotFound    = errors.New("manifest not found")

	// Dependency errors
	ErrToolNotFound   = errors.New("required tool not found")
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
)
