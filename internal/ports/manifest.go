package ports

import (
	"context"
	"time"

	"github.com/devbush/vid2slides/internal/domain"
)

// Manifest records a finished extraction so it can be re-exported later.
type Manifest struct {
	Source      string              `json:"source"`
	Title       string              `json:"title,omitempty"`
	Interval    time.Duration       `json:"interval"`
	Threshold   float64             `json:"threshold"`
	ExtractText bool                `json:"extract_text"`
	Format      domain.ExportFormat `json:"format"`
	Slides      []domain.Slide      `json:"slides"`
	Skipped     int                 `json:"skipped_samples"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ManifestStore persists manifests next to the slides they describe.
type ManifestStore interface {
	// Load reads the manifest in dir, returning domain.ErrManifestNotFound if absent.
	Load(ctx context.Context, dir string) (*Manifest, error)

	// Save writes the manifest into dir.
	Save(ctx context.Context, dir string, m *Manifest) error

	// Scan rebuilds the slide list from slide image names when no manifest exists.
	Scan(ctx context.Context, dir string) ([]domain.Slide, error)
}
