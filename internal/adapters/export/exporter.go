// Package export renders a slide sequence into PDF, HTML or plain image artifacts.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// Artifact names written into a job directory
const (
	PDFFileName     = "slides.pdf"
	HTMLFileName    = "slides.html"
	HTMLImagesDir   = "html_images"
	ArchiveFileName = "slides.zip"
)

// Exporter writes artifacts through an afero filesystem
type Exporter struct {
	fs     afero.Fs
	logger *slog.Logger

	// compress deflates PDF page streams
	compress bool
}

// New creates an exporter. A nil logger discards output.
func New(fsys afero.Fs, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{fs: fsys, logger: logger, compress: true}
}

// Export renders slides in sequence order. Raw images need no work and an
// empty sequence is fine for them. PDF and HTML fail on an empty sequence.
func (e *Exporter) Export(ctx context.Context, slides []domain.Slide, format domain.ExportFormat, dir string) (domain.ExportResult, error) {
	ordered := slices.Clone(slides)
	slices.SortFunc(ordered, func(a, b domain.Slide) int { return a.Sequence - b.Sequence })

	switch format {
	case domain.FormatRawImages:
		return domain.ExportResult{Format: format, Path: dir, Pages: len(ordered)}, nil
	case domain.FormatDocument, domain.FormatInteractive:
	default:
		return domain.ExportResult{}, fmt.Errorf("%w: unknown format %q", domain.ErrConfiguration, format)
	}

	if len(ordered) == 0 {
		return domain.ExportResult{}, fmt.Errorf("%w: %s: %w", domain.ErrExport, format, domain.ErrNoSlides)
	}
	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return domain.ExportResult{}, fmt.Errorf("%w: %w", domain.ErrExport, err)
	}

	var (
		result domain.ExportResult
		err    error
	)
	if format == domain.FormatDocument {
		result, err = e.writePDF(ctx, ordered, dir)
	} else {
		result, err = e.writeHTML(ctx, ordered, dir)
	}
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("%w: %w", domain.ErrExport, err)
	}

	e.logger.Info("export written", "format", format, "path", result.Path, "pages", result.Pages)
	return result, nil
}

// PruneImages deletes the slide image files. Missing files are ignored.
func (e *Exporter) PruneImages(slides []domain.Slide) error {
	var errs []error
	for _, s := range slides {
		if err := e.fs.Remove(s.ImagePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// readImage loads a slide image, reporting the slide on failure
func (e *Exporter) readImage(s domain.Slide) ([]byte, error) {
	data, err := afero.ReadFile(e.fs, s.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("slide %d: %w", s.Sequence, err)
	}
	return data, nil
}

func imageName(s domain.Slide) string {
	if s.ImagePath != "" {
		return filepath.Base(s.ImagePath)
	}
	return domain.SlideFileName(s.Sequence, s.Timestamp)
}

var _ ports.Exporter = (*Exporter)(nil)
