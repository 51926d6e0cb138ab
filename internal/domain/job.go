package domain

import (
	"fmt"
	"strings"
	"time"
)

// Resolution selects which video stream tier to fetch
type Resolution string

const (
	ResolutionHighest Resolution = "highest"
	Resolution360p    Resolution = "360p"
	Resolution480p    Resolution = "480p"
	Resolution720p    Resolution = "720p"
	Resolution1080p   Resolution = "1080p"
)

// Resolutions lists every accepted resolution preference
var Resolutions = []Resolution{ResolutionHighest, Resolution360p, Resolution480p, Resolution720p, Resolution1080p}

// Height returns the pixel height of a tier, or 0 for highest
func (r Resolution) Height() int {
	switch r {
	case Resolution360p:
		return 360
	case Resolution480p:
		return 480
	case Resolution720p:
		return 720
	case Resolution1080p:
		return 1080
	default:
		return 0
	}
}

// ParseResolution validates a resolution string
func ParseResolution(s string) (Resolution, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ResolutionHighest, nil
	}
	for _, r := range Resolutions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown resolution %q (use highest, 360p, 480p, 720p or 1080p)", ErrConfiguration, s)
}

// ExportFormat selects the artifact produced after extraction
type ExportFormat string

const (
	FormatDocument    ExportFormat = "pdf"    // paginated document
	FormatInteractive ExportFormat = "html"   // browser slideshow
	FormatRawImages   ExportFormat = "images" // slide images only
)

// ParseExportFormat validates an export format string
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatDocument, "":
		return FormatDocument, nil
	case FormatInteractive:
		return FormatInteractive, nil
	case FormatRawImages:
		return FormatRawImages, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (use pdf, html or images)", ErrConfiguration, s)
	}
}

const (
	MinThreshold = 0.1
	MaxThreshold = 1.0
	MinInterval  = time.Second
)

// ExtractionJob is one video source plus the settings that drive its pipeline run
type ExtractionJob struct {
	Source      string
	OutputDir   string
	Interval    time.Duration
	Threshold   float64
	Resolution  Resolution
	ExtractText bool
	Format      ExportFormat
	Archive     bool // also bundle slide images into slides.zip
	PruneImages bool // remove slide PNGs after a successful pdf export
}

// ID returns the identifier used for status events and batch results
func (j ExtractionJob) ID() string {
	return j.Source
}

// Validate rejects settings outside the documented ranges
func (j ExtractionJob) Validate() error {
	if strings.TrimSpace(j.Source) == "" {
		return fmt.Errorf("%w: empty video source", ErrConfiguration)
	}
	if j.Interval < MinInterval || j.Interval%time.Second != 0 {
		return fmt.Errorf("%w: interval must be a whole number of seconds >= 1, got %s", ErrConfiguration, j.Interval)
	}
	if j.Threshold < MinThreshold || j.Threshold > MaxThreshold {
		return fmt.Errorf("%w: similarity threshold must be within [%.1f, %.1f], got %g", ErrConfiguration, MinThreshold, MaxThreshold, j.Threshold)
	}
	if _, err := ParseResolution(string(j.Resolution)); err != nil {
		return err
	}
	if _, err := ParseExportFormat(string(j.Format)); err != nil {
		return err
	}
	if j.OutputDir == "" {
		return fmt.Errorf("%w: empty output directory", ErrConfiguration)
	}
	return nil
}

// ExportResult describes the artifact written by an exporter
type ExportResult struct {
	Format ExportFormat
	Path   string // artifact file, or the slide directory for raw images
	Pages  int    // pages or panels written
}

// JobOutcome is the terminal state of one job in a batch
type JobOutcome struct {
	Source     string
	OutputDir  string
	SlideCount int
	ExportPath string
	Err        error // fatal pipeline error, SlideCount is 0
	ExportErr  error // export failed after slides were extracted
	Duration   time.Duration
}

// Success reports whether the job extracted slides and exported them
func (o JobOutcome) Success() bool {
	return o.Err == nil && o.ExportErr == nil
}

// StatusEvent is a free-text progress update from one job
type StatusEvent struct {
	JobID   string
	Message string
	Time    time.Time
}

// NewStatusEvent stamps a status message for a job
func NewStatusEvent(jobID, message string) StatusEvent {
	return StatusEvent{JobID: jobID, Message: message, Time: time.Now()}
}
