package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// ExtractService runs the sampling, comparison, storage and export
// pipeline for one job at a time. It is safe to run several jobs
// concurrently: every run builds its own sampler, evaluator and store.
type ExtractService struct {
	source        ports.VideoSource
	decoder       ports.FrameDecoder
	recognizer    ports.TextRecognizer
	stores        ports.SlideStoreFactory
	exporter      ports.Exporter
	manifests     ports.ManifestStore
	analysisWidth int
	logger        *slog.Logger
}

// ExtractOption customizes an ExtractService
type ExtractOption func(*ExtractService)

// WithRecognizer enables text comparison and text extraction
func WithRecognizer(r ports.TextRecognizer) ExtractOption {
	return func(s *ExtractService) { s.recognizer = r }
}

// WithManifests records a manifest next to every job's slides
func WithManifests(m ports.ManifestStore) ExtractOption {
	return func(s *ExtractService) { s.manifests = m }
}

// WithAnalysisWidth downscales frames to width pixels before comparing them
func WithAnalysisWidth(width int) ExtractOption {
	return func(s *ExtractService) { s.analysisWidth = width }
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) ExtractOption {
	return func(s *ExtractService) { s.logger = l }
}

// NewExtractService creates the extraction pipeline
func NewExtractService(
	source ports.VideoSource,
	decoder ports.FrameDecoder,
	stores ports.SlideStoreFactory,
	exporter ports.Exporter,
	opts ...ExtractOption,
) *ExtractService {
	s := &ExtractService{
		source:   source,
		decoder:  decoder,
		stores:   stores,
		exporter: exporter,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes one job and always returns its terminal outcome. Fatal
// errors leave SlideCount at 0. Export errors keep the extracted slides.
func (s *ExtractService) Run(ctx context.Context, job domain.ExtractionJob, status StatusPublisher) domain.JobOutcome {
	if status == nil {
		status = discardStatus{}
	}
	start := time.Now()
	logger := s.logger.With("job", job.ID())

	report := func(format string, args ...any) {
		status.Publish(domain.NewStatusEvent(job.ID(), fmt.Sprintf(format, args...)))
	}

	outcome := domain.JobOutcome{
		Source:    job.Source,
		OutputDir: job.OutputDir,
	}
	fail := func(err error) domain.JobOutcome {
		outcome.SlideCount = 0
		outcome.Err = err
		outcome.Duration = time.Since(start)
		logger.Error("job failed", "error", err)
		report("Error: %v", err)
		return outcome
	}

	if err := job.Validate(); err != nil {
		return fail(err)
	}

	slides, skipped, title, err := s.extract(ctx, job, logger, report)
	if err != nil {
		return fail(err)
	}
	outcome.SlideCount = len(slides)
	report("Extracted %d slides to %s", len(slides), job.OutputDir)
	logger.Info("extraction finished", "slides", len(slides), "skipped", skipped)

	if s.manifests != nil {
		m := &ports.Manifest{
			Source:      job.Source,
			Title:       title,
			Interval:    job.Interval,
			Threshold:   job.Threshold,
			ExtractText: job.ExtractText,
			Format:      job.Format,
			Slides:      slides,
			Skipped:     skipped,
			CreatedAt:   time.Now(),
		}
		if err := s.manifests.Save(ctx, job.OutputDir, m); err != nil {
			logger.Warn("failed to write manifest", "error", err)
		}
	}

	result, err := s.exporter.Export(ctx, slides, job.Format, job.OutputDir)
	if err != nil {
		outcome.ExportErr = err
		outcome.Duration = time.Since(start)
		logger.Error("export failed", "format", job.Format, "error", err)
		report("Export failed: %v", err)
		return outcome
	}
	outcome.ExportPath = result.Path
	if job.Format != domain.FormatRawImages {
		report("Exported %s: %s", job.Format, result.Path)
	}

	if job.Archive && len(slides) > 0 {
		path, err := s.exporter.Archive(ctx, slides, job.OutputDir)
		if err != nil {
			outcome.ExportErr = err
			logger.Error("archive failed", "error", err)
			report("Archive failed: %v", err)
		} else {
			report("Archived slides: %s", path)
		}
	}

	if job.PruneImages && job.Format == domain.FormatDocument && outcome.ExportErr == nil {
		if err := s.exporter.PruneImages(slides); err != nil {
			logger.Warn("failed to remove slide images", "error", err)
		} else {
			report("Deleted %d slide images", len(slides))
		}
	}

	outcome.Duration = time.Since(start)
	return outcome
}

// extract resolves the source and walks its samples, returning the final slide sequence
func (s *ExtractService) extract(
	ctx context.Context,
	job domain.ExtractionJob,
	logger *slog.Logger,
	report func(string, ...any),
) (slides []domain.Slide, skipped int, title string, err error) {
	report("Resolving video source")
	video, err := s.source.Resolve(ctx, job.Source, job.Resolution, job.OutputDir)
	if err != nil {
		return nil, 0, "", err
	}
	if video.Temporary {
		defer func() {
			if rmErr := os.Remove(video.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Warn("failed to remove downloaded video", "path", video.Path, "error", rmErr)
			}
		}()
	}
	if video.FellBack {
		report("Resolution %s not available, downloaded %s instead", job.Resolution, video.Resolution)
	}
	title = video.Title
	if title == "" {
		title = filepath.Base(video.Path)
	}
	report("Video: %s", title)

	stream, err := s.decoder.Open(ctx, video.Path)
	if err != nil {
		return nil, 0, title, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer stream.Close()

	info := stream.Info()
	report("Video duration: %s", formatClock(info.Duration))
	report("Processing frames every %d seconds...", int(job.Interval/time.Second))

	store, err := s.stores.Open(job.OutputDir)
	if err != nil {
		return nil, 0, title, err
	}

	sampler := NewSampler(stream, job.Interval, logger)
	evaluator := NewEvaluator(s.recognizer, s.analysisWidth, logger)

	var previous domain.Frame
	accepted := false
	for frame := range sampler.Frames(ctx) {
		if accepted {
			different, verdict := evaluator.IsDifferentSlide(ctx, previous, frame, job.Threshold)
			if !different {
				continue
			}
			logger.Debug("new slide detected",
				"sample", frame.Index,
				"signal", verdict.Signal,
				"ssim", verdict.SSIM,
				"histogram", verdict.Histogram)
		}

		slide, err := store.Accept(frame)
		if err != nil {
			return nil, sampler.Skipped(), title, err
		}
		previous = frame
		accepted = true

		if job.ExtractText && s.recognizer != nil {
			if text := evaluator.Text(ctx, frame); text != "" {
				if err := store.AttachText(slide.Sequence, text); err != nil {
					logger.Warn("failed to attach text", "slide", slide.Sequence, "error", err)
				} else {
					report("Extracted text from %s", slide.FileName())
				}
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, sampler.Skipped(), title, fmt.Errorf("extraction cancelled: %w", err)
	}
	if n := sampler.Skipped(); n > 0 {
		report("Skipped %d unreadable frames", n)
	}

	return store.Slides(), sampler.Skipped(), title, nil
}

// formatClock renders a duration as H:MM:SS
func formatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
