package export

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/devbush/vid2slides/internal/domain"
)

//go:embed templates/slides.html.tmpl
var templateFS embed.FS

var slideshowTemplate = template.Must(template.ParseFS(templateFS, "templates/slides.html.tmpl"))

type slideshowPanel struct {
	Number    int
	Image     string
	Timestamp string
	Text      string
	Active    bool
}

type slideshowData struct {
	Title  string
	Total  int
	Panels []slideshowPanel
}

// writeHTML copies the slide images next to a single-page slideshow
func (e *Exporter) writeHTML(ctx context.Context, slides []domain.Slide, dir string) (domain.ExportResult, error) {
	imagesDir := filepath.Join(dir, HTMLImagesDir)
	if err := e.fs.MkdirAll(imagesDir, 0755); err != nil {
		return domain.ExportResult{}, err
	}

	data := slideshowData{
		Title: "Extracted Slides",
		Total: len(slides),
	}
	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return domain.ExportResult{}, err
		}

		img, err := e.readImage(s)
		if err != nil {
			return domain.ExportResult{}, err
		}
		name := imageName(s)
		if err := afero.WriteFile(e.fs, filepath.Join(imagesDir, name), img, 0644); err != nil {
			return domain.ExportResult{}, err
		}

		data.Panels = append(data.Panels, slideshowPanel{
			Number:    i + 1,
			Image:     path.Join(HTMLImagesDir, name),
			Timestamp: domain.FormatTimestamp(s.Timestamp, ":"),
			Text:      s.Text,
			Active:    i == 0,
		})
	}

	var buf bytes.Buffer
	if err := slideshowTemplate.Execute(&buf, data); err != nil {
		return domain.ExportResult{}, err
	}

	out := filepath.Join(dir, HTMLFileName)
	if err := afero.WriteFile(e.fs, out, buf.Bytes(), 0644); err != nil {
		return domain.ExportResult{}, err
	}

	return domain.ExportResult{Format: domain.FormatInteractive, Path: out, Pages: len(data.Panels)}, nil
}
