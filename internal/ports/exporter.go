package ports

import (
	"context"

	"github.com/devbush/vid2slides/internal/domain"
)

// Exporter renders a final slide sequence into a shareable artifact.
type Exporter interface {
	// Export writes the artifact for format into dir.
	Export(ctx context.Context, slides []domain.Slide, format domain.ExportFormat, dir string) (domain.ExportResult, error)

	// Archive bundles the slide images into a zip file in dir and returns its path.
	Archive(ctx context.Context, slides []domain.Slide, dir string) (string, error)

	// PruneImages removes the slide image files.
	PruneImages(slides []domain.Slide) error
}
