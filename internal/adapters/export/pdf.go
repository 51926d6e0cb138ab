package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/devbush/vid2slides/internal/domain"
)

const (
	// US Letter in points
	pageWidth  = 612.0
	pageHeight = 792.0

	// images fill at most this share of the page
	pageFill = 0.9

	hiddenFontSize = 1.0
)

// writePDF lays out one Letter page per slide with the image centered and
// any recognized text as an invisible, searchable layer
func (e *Exporter) writePDF(ctx context.Context, slides []domain.Slide, dir string) (domain.ExportResult, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(e.compress)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return domain.ExportResult{}, err
		}

		data, err := e.readImage(s)
		if err != nil {
			return domain.ExportResult{}, err
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return domain.ExportResult{}, fmt.Errorf("slide %d: %w", s.Sequence, err)
		}
		if cfg.Width == 0 || cfg.Height == 0 {
			return domain.ExportResult{}, fmt.Errorf("slide %d: empty image", s.Sequence)
		}

		opts := fpdf.ImageOptions{ImageType: strings.ToUpper(format)}
		name := imageName(s)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))

		x, y, w, h := fitOnPage(float64(cfg.Width), float64(cfg.Height))

		pdf.AddPage()
		pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")

		if s.HasText() {
			writeHiddenText(pdf, translate, s.Text)
		}

		if err := pdf.Error(); err != nil {
			return domain.ExportResult{}, fmt.Errorf("slide %d: %w", s.Sequence, err)
		}
	}

	path := filepath.Join(dir, PDFFileName)
	f, err := e.fs.Create(path)
	if err != nil {
		return domain.ExportResult{}, err
	}
	if err := pdf.Output(f); err != nil {
		f.Close()
		return domain.ExportResult{}, err
	}
	if err := f.Close(); err != nil {
		return domain.ExportResult{}, err
	}

	return domain.ExportResult{Format: domain.FormatDocument, Path: path, Pages: pdf.PageCount()}, nil
}

// fitOnPage scales a w×h image to fill pageFill of the page, keeping its
// aspect ratio, and returns the centered placement
func fitOnPage(w, h float64) (x, y, fw, fh float64) {
	ratio := min(pageWidth/w, pageHeight/h) * pageFill
	fw, fh = w*ratio, h*ratio
	return (pageWidth - fw) / 2, (pageHeight - fh) / 2, fw, fh
}

// writeHiddenText draws text lines near the bottom of the page in a
// transparent 1pt font
func writeHiddenText(pdf *fpdf.Fpdf, translate func(string) string, text string) {
	pdf.SetFont("Helvetica", "", hiddenFontSize)
	pdf.SetAlpha(0, "Normal")
	i := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.Text(10, pageHeight-10-float64(i)*2, translate(line))
		i++
	}
	pdf.SetAlpha(1, "Normal")
}
