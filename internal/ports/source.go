package ports

import (
	"context"

	"github.com/devbush/vid2slides/internal/domain"
)

// ResolvedVideo is a readable local video file for one job.
type ResolvedVideo struct {
	Path       string            // local video file path
	Title      string            // human readable title, file name for local sources
	Temporary  bool              // true when the file was downloaded and should be removed after extraction
	Resolution domain.Resolution // tier actually fetched
	FellBack   bool              // requested tier was unavailable, highest was fetched instead
}

// VideoSource turns a locator (URL or local path) into a local video file.
type VideoSource interface {
	// Resolve fetches or locates the video, downloading into workDir when remote.
	Resolve(ctx context.Context, locator string, resolution domain.Resolution, workDir string) (*ResolvedVideo, error)

	// IsAvailable checks if the downloader is installed and ready.
	IsAvailable() bool

	// GetBinaryPath returns the path to the downloader binary.
	GetBinaryPath() string

	// Install downloads and installs the downloader, reporting progress via callback.
	Install(ctx context.Context, progress func(downloaded, total int64)) error

	// Update updates the downloader to the latest version.
	Update(ctx context.Context) error
}
