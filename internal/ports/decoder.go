package ports

import (
	"context"
	"image"
	"time"
)

// VideoInfo is the stream metadata needed to place sample points.
type VideoInfo struct {
	FPS        float64
	FrameCount int
	Duration   time.Duration
	Width      int
	Height     int
}

// VideoStream gives random access to decoded frames of one opened video.
type VideoStream interface {
	// Info returns the frame rate and frame count of the video.
	Info() VideoInfo

	// Frame decodes the frame at the given position (0-based frame number).
	Frame(ctx context.Context, position int) (image.Image, error)

	// Close releases the stream.
	Close() error
}

// FrameDecoder opens local video files for sampling.
type FrameDecoder interface {
	// Open probes the file and returns a stream over its frames.
	Open(ctx context.Context, path string) (VideoStream, error)

	// IsAvailable checks if the decoder tools are installed.
	IsAvailable() bool

	// GetBinaryPath returns the path to the decoder binary.
	GetBinaryPath() string

	// Install downloads and installs the decoder tools.
	Install(ctx context.Context, progress func(downloaded, total int64)) error

	// Instructions returns platform-specific installation instructions.
	Instructions() string
}
