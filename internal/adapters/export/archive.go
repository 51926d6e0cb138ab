package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/devbush/vid2slides/internal/domain"
)

// Archive bundles the slide images into slides.zip inside dir
func (e *Exporter) Archive(ctx context.Context, slides []domain.Slide, dir string) (string, error) {
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: archive: %w", domain.ErrExport, domain.ErrNoSlides)
	}
	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
	}

	path := filepath.Join(dir, ArchiveFileName)
	f, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return "", err
		}

		data, err := e.readImage(s)
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   imageName(s),
			Method: zip.Deflate,
		})
		if err != nil {
			zw.Close()
			return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
	}

	e.logger.Info("archive written", "path", path, "slides", len(slides))
	return path, nil
}
