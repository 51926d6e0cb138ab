package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/devbush/vid2slides/internal/domain"
)

// writeSlides stores n small PNG slides under dir
func writeSlides(t *testing.T, fs afero.Fs, dir string, n int) []domain.Slide {
	t.Helper()
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	slides := make([]domain.Slide, n)
	for i := range slides {
		img := image.NewRGBA(image.Rect(0, 0, 160, 90))
		for x := 0; x < 160; x++ {
			img.Set(x, i*10%90, color.RGBA{R: uint8(i * 60), G: 100, B: 200, A: 255})
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}

		ts := time.Duration(i*7) * time.Second
		path := filepath.Join(dir, domain.SlideFileName(i, ts))
		if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
		slides[i] = domain.Slide{Sequence: i, Timestamp: ts, ImagePath: path, Width: 160, Height: 90}
	}
	return slides
}

func TestExport_EmptySequence(t *testing.T) {
	e := New(afero.NewMemMapFs(), nil)

	for _, format := range []domain.ExportFormat{domain.FormatDocument, domain.FormatInteractive} {
		_, err := e.Export(context.Background(), nil, format, "/out")
		if !errors.Is(err, domain.ErrExport) || !errors.Is(err, domain.ErrNoSlides) {
			t.Errorf("%s: error = %v, want ErrExport wrapping ErrNoSlides", format, err)
		}
	}

	res, err := e.Export(context.Background(), nil, domain.FormatRawImages, "/out")
	if err != nil {
		t.Errorf("images: error = %v, want nil", err)
	}
	if res.Path != "/out" || res.Pages != 0 {
		t.Errorf("images: result = %+v", res)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	e := New(afero.NewMemMapFs(), nil)
	if _, err := e.Export(context.Background(), nil, "pptx", "/out"); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestExport_RawImagesLeavesFilesUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 2)
	before, _ := afero.ReadFile(fs, slides[0].ImagePath)

	e := New(fs, nil)
	for i := 0; i < 2; i++ {
		res, err := e.Export(context.Background(), slides, domain.FormatRawImages, "/out")
		if err != nil {
			t.Fatal(err)
		}
		if res.Pages != 2 {
			t.Errorf("Pages = %d, want 2", res.Pages)
		}
	}

	after, _ := afero.ReadFile(fs, slides[0].ImagePath)
	if !bytes.Equal(before, after) {
		t.Error("slide image changed by raw export")
	}
	if exists, _ := afero.Exists(fs, filepath.Join("/out", PDFFileName)); exists {
		t.Error("raw export wrote a PDF")
	}
}

func TestExport_PDF(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 3)
	slides[1].Text = "Quarterly results\nRevenue up 12%"

	e := New(fs, nil)
	res, err := e.Export(context.Background(), slides, domain.FormatDocument, "/out")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
	if res.Path != filepath.Join("/out", PDFFileName) {
		t.Errorf("Path = %q", res.Path)
	}

	data, err := afero.ReadFile(fs, res.Path)
	if err != nil {
		t.Fatalf("pdf not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}

	again, err := e.Export(context.Background(), slides, domain.FormatDocument, "/out")
	if err != nil {
		t.Fatal(err)
	}
	if again.Pages != res.Pages {
		t.Errorf("re-export Pages = %d, want %d", again.Pages, res.Pages)
	}
}

func TestFitOnPage(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
	}{
		{"landscape", 160, 90},
		{"portrait", 90, 160},
		{"square", 500, 500},
		{"larger than page", 3840, 2160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := fitOnPage(tt.w, tt.h)
			if w > pageWidth*pageFill+1e-9 || h > pageHeight*pageFill+1e-9 {
				t.Errorf("size %.2fx%.2f exceeds %.0f%% of the page", w, h, pageFill*100)
			}
			if math.Abs(w-pageWidth*pageFill) > 1e-9 && math.Abs(h-pageHeight*pageFill) > 1e-9 {
				t.Errorf("size %.2fx%.2f touches neither fill limit", w, h)
			}
			if math.Abs(w/h-tt.w/tt.h) > 1e-9 {
				t.Errorf("aspect = %.4f, want %.4f", w/h, tt.w/tt.h)
			}
			if x != (pageWidth-w)/2 || y != (pageHeight-h)/2 {
				t.Errorf("offset = (%.3f, %.3f), want (%.3f, %.3f)", x, y, (pageWidth-w)/2, (pageHeight-h)/2)
			}
		})
	}
}

// placement matches an image draw operator: q w 0 0 h x y cm /I<name> Do Q
var placement = regexp.MustCompile(`q ([0-9.]+) 0 0 ([0-9.]+) ([0-9.]+) ([0-9.]+) cm /I`)

func TestExport_PDFTextLayerAndPlacement(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 3)
	slides[1].Text = "Quarterly results\nRevenue up 12%"

	e := New(fs, nil)
	e.compress = false
	res, err := e.Export(context.Background(), slides, domain.FormatDocument, "/out")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := afero.ReadFile(fs, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	// each page draws its image first, so the text of page n sits between
	// the n-th and the next image draw
	pages := strings.Split(content, " Do Q")
	if len(pages) != 4 {
		t.Fatalf("found %d image draws, want 3", len(pages)-1)
	}
	for _, line := range []string{"(Quarterly results) Tj ET", "(Revenue up 12%) Tj ET"} {
		if !strings.Contains(pages[2], line) {
			t.Errorf("page 2 is missing text operator %q", line)
		}
	}
	for _, i := range []int{1, 3} {
		if strings.Contains(pages[i], ") Tj ET") {
			t.Errorf("page %d has a text layer but its slide has no text", i)
		}
	}
	if !strings.Contains(pages[2], " gs") {
		t.Error("text layer is not drawn under a transparency state")
	}

	wantX, wantY, wantW, wantH := fitOnPage(160, 90)
	matches := placement.FindAllStringSubmatch(content, -1)
	if len(matches) != 3 {
		t.Fatalf("found %d image placements, want 3", len(matches))
	}
	for _, m := range matches {
		got := make([]float64, 4)
		for i := range got {
			got[i], _ = strconv.ParseFloat(m[i+1], 64)
		}
		// PDF y grows upward from the bottom edge
		want := []float64{wantW, wantH, wantX, pageHeight - wantY - wantH}
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-3 {
				t.Errorf("placement %q: field %d = %.5f, want %.5f", m[0], i, got[i], want[i])
			}
		}
	}
	if math.Abs(wantX-(pageWidth-wantW)/2) > 1e-9 || math.Abs(wantY-(pageHeight-wantH)/2) > 1e-9 {
		t.Errorf("image is not centered: x=%.3f y=%.3f", wantX, wantY)
	}
}

func TestExport_PDFMissingImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 2)
	fs.Remove(slides[1].ImagePath)

	_, err := New(fs, nil).Export(context.Background(), slides, domain.FormatDocument, "/out")
	if !errors.Is(err, domain.ErrExport) {
		t.Errorf("error = %v, want ErrExport", err)
	}
}

func TestExport_HTML(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 3)
	slides[2].Text = "<script>alert(1)</script> & notes"

	// Out of order input is rendered in sequence order
	reversed := []domain.Slide{slides[2], slides[1], slides[0]}

	e := New(fs, nil)
	res, err := e.Export(context.Background(), reversed, domain.FormatInteractive, "/out")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}

	data, err := afero.ReadFile(fs, filepath.Join("/out", HTMLFileName))
	if err != nil {
		t.Fatalf("html not written: %v", err)
	}
	html := string(data)

	if n := strings.Count(html, `class="panel active"`); n != 1 {
		t.Errorf("%d active panels, want 1", n)
	}
	if n := strings.Count(html, `<article class="panel`); n != 3 {
		t.Errorf("%d panels, want 3", n)
	}

	first := strings.Index(html, "html_images/"+slides[0].FileName())
	last := strings.Index(html, "html_images/"+slides[2].FileName())
	if first < 0 || last < 0 || first > last {
		t.Errorf("panels not in sequence order (%d, %d)", first, last)
	}

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("slide text not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt; &amp; notes") {
		t.Error("escaped slide text missing")
	}
	if n := strings.Count(html, `class="text"`); n != 1 {
		t.Errorf("%d text blocks, want 1", n)
	}

	for _, s := range slides {
		copied, err := afero.ReadFile(fs, filepath.Join("/out", HTMLImagesDir, s.FileName()))
		if err != nil {
			t.Errorf("image %s not copied: %v", s.FileName(), err)
			continue
		}
		original, _ := afero.ReadFile(fs, s.ImagePath)
		if !bytes.Equal(copied, original) {
			t.Errorf("image %s copy differs", s.FileName())
		}
	}

	if _, err := e.Export(context.Background(), slides, domain.FormatInteractive, "/out"); err != nil {
		t.Fatal(err)
	}
	again, _ := afero.ReadFile(fs, filepath.Join("/out", HTMLFileName))
	if !bytes.Equal(data, again) {
		t.Error("re-export produced a different document")
	}
}

func TestExport_HTMLNavigationWrapsAround(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 4)

	if _, err := New(fs, nil).Export(context.Background(), slides, domain.FormatInteractive, "/out"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := afero.ReadFile(fs, filepath.Join("/out", HTMLFileName))
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	for _, want := range []string{
		`<span id="counter">1 / 4</span>`,
		// prev from the first panel lands on the last, next from the last on the first
		`current = (i + panels.length) % panels.length;`,
		`addEventListener("click", function () { show(current - 1); })`,
		`addEventListener("click", function () { show(current + 1); })`,
		`if (e.key === "ArrowLeft") { show(current - 1); }`,
		`if (e.key === "ArrowRight") { show(current + 1); }`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("slideshow is missing %q", want)
		}
	}
	for n := 1; n <= 4; n++ {
		if !strings.Contains(html, `data-index="`+strconv.Itoa(n)+`"`) {
			t.Errorf("panel %d not indexed", n)
		}
	}
}

func TestArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 2)

	path, err := New(fs, nil).Archive(context.Background(), slides, "/out")
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("%d entries, want 2", len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != slides[i].FileName() {
			t.Errorf("entry %d = %s, want %s", i, f.Name, slides[i].FileName())
		}
	}
}

func TestArchive_Empty(t *testing.T) {
	if _, err := New(afero.NewMemMapFs(), nil).Archive(context.Background(), nil, "/out"); !errors.Is(err, domain.ErrNoSlides) {
		t.Errorf("error = %v, want ErrNoSlides", err)
	}
}

func TestPruneImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	slides := writeSlides(t, fs, "/out", 3)
	fs.Remove(slides[0].ImagePath)

	if err := New(fs, nil).PruneImages(slides); err != nil {
		t.Fatalf("PruneImages() error = %v", err)
	}
	for _, s := range slides {
		if exists, _ := afero.Exists(fs, s.ImagePath); exists {
			t.Errorf("%s still exists", s.ImagePath)
		}
	}
}
