package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// ReexportOptions configures a re-export of a finished job
type ReexportOptions struct {
	Format  domain.ExportFormat
	Archive bool
}

// ReexportResult describes what a re-export produced
type ReexportResult struct {
	Export       domain.ExportResult
	ArchivePath  string
	Slides       int
	FromManifest bool // false when slides were recovered from image names
}

// ReexportService renders an existing slide directory into another format
// without touching the source video again
type ReexportService struct {
	manifests ports.ManifestStore
	exporter  ports.Exporter
	logger    *slog.Logger
}

// NewReexportService creates a re-export service
func NewReexportService(manifests ports.ManifestStore, exporter ports.Exporter, logger *slog.Logger) *ReexportService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReexportService{
		manifests: manifests,
		exporter:  exporter,
		logger:    logger,
	}
}

// Slides loads the slide sequence of dir from its manifest, falling back to
// scanning slide image names
func (s *ReexportService) Slides(ctx context.Context, dir string) ([]domain.Slide, bool, error) {
	m, err := s.manifests.Load(ctx, dir)
	if err == nil {
		return m.Slides, true, nil
	}
	if !errors.Is(err, domain.ErrManifestNotFound) {
		return nil, false, err
	}

	s.logger.Debug("no manifest, scanning slide images", "dir", dir)
	slides, err := s.manifests.Scan(ctx, dir)
	if err != nil {
		return nil, false, err
	}
	return slides, false, nil
}

// Reexport writes the requested artifact for the slides in dir
func (s *ReexportService) Reexport(ctx context.Context, dir string, opts ReexportOptions) (*ReexportResult, error) {
	format, err := domain.ParseExportFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}

	slides, fromManifest, err := s.Slides(ctx, dir)
	if err != nil {
		return nil, err
	}

	res, err := s.exporter.Export(ctx, slides, format, dir)
	if err != nil {
		return nil, err
	}

	result := &ReexportResult{
		Export:       res,
		Slides:       len(slides),
		FromManifest: fromManifest,
	}

	if opts.Archive {
		if len(slides) == 0 {
			return result, fmt.Errorf("%w: %w", domain.ErrExport, domain.ErrNoSlides)
		}
		path, err := s.exporter.Archive(ctx, slides, dir)
		if err != nil {
			return result, err
		}
		result.ArchivePath = path
	}

	s.logger.Info("re-export finished", "dir", dir, "format", format, "slides", len(slides))
	return result, nil
}
