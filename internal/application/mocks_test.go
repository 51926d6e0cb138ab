package application

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// Test images

func checker(w, h, cell int, dark, light uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := dark
			if (x/cell+y/cell)%2 == 0 {
				v = light
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func stripes(w, h, band int, a, b uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		v := a
		if (y/band)%2 == 1 {
			v = b
		}
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func gradient(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*3) % 256)})
		}
	}
	return g
}

// withPixel returns a copy of g with one pixel changed
func withPixel(g *image.Gray, x, y int, v uint8) *image.Gray {
	c := image.NewGray(g.Bounds())
	copy(c.Pix, g.Pix)
	c.SetGray(x, y, color.Gray{Y: v})
	return c
}

// mockStream serves frames by position from a function
type mockStream struct {
	info   ports.VideoInfo
	frame  func(position int) image.Image
	fail   map[int]bool
	mu     sync.Mutex
	calls  []int
	closed bool
}

func (m *mockStream) Info() ports.VideoInfo { return m.info }

func (m *mockStream) Frame(ctx context.Context, position int) (image.Image, error) {
	m.mu.Lock()
	m.calls = append(m.calls, position)
	m.mu.Unlock()
	if m.fail[position] {
		return nil, fmt.Errorf("corrupt frame at %d", position)
	}
	return m.frame(position), nil
}

func (m *mockStream) Close() error {
	m.closed = true
	return nil
}

type mockDecoder struct {
	stream  *mockStream
	streams func() *mockStream // fresh stream per Open when set
	err     error
}

func (m *mockDecoder) Open(ctx context.Context, path string) (ports.VideoStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.streams != nil {
		return m.streams(), nil
	}
	return m.stream, nil
}

func (m *mockDecoder) IsAvailable() bool     { return true }
func (m *mockDecoder) GetBinaryPath() string { return "/usr/bin/ffmpeg" }
func (m *mockDecoder) Install(ctx context.Context, progress func(int64, int64)) error {
	return nil
}
func (m *mockDecoder) Instructions() string { return "" }

type mockSource struct {
	video *ports.ResolvedVideo
	err   error
}

func (m *mockSource) Resolve(ctx context.Context, locator string, resolution domain.Resolution, workDir string) (*ports.ResolvedVideo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.video != nil {
		return m.video, nil
	}
	return &ports.ResolvedVideo{Path: locator, Title: "Test Talk", Resolution: resolution}, nil
}

func (m *mockSource) IsAvailable() bool                                              { return true }
func (m *mockSource) GetBinaryPath() string                                          { return "/usr/bin/yt-dlp" }
func (m *mockSource) Install(ctx context.Context, progress func(int64, int64)) error { return nil }
func (m *mockSource) Update(ctx context.Context) error                               { return nil }

// mockRecognizer returns text keyed by the image pointer
type mockRecognizer struct {
	mu    sync.Mutex
	texts map[image.Image]string
	err   error
	calls int
}

func (m *mockRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.texts[img], nil
}

func (m *mockRecognizer) IsAvailable() bool { return true }

// memStore keeps slides in memory
type memStore struct {
	dir    string
	slides []domain.Slide
}

func (s *memStore) Accept(frame domain.Frame) (*domain.Slide, error) {
	b := frame.Bounds()
	slide := domain.Slide{
		Sequence:  len(s.slides),
		Timestamp: frame.Timestamp,
		ImagePath: s.dir + "/" + domain.SlideFileName(len(s.slides), frame.Timestamp),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	s.slides = append(s.slides, slide)
	return &slide, nil
}

func (s *memStore) AttachText(sequence int, text string) error {
	if sequence < 0 || sequence >= len(s.slides) {
		return domain.ErrSlideNotFound
	}
	if s.slides[sequence].HasText() {
		return domain.ErrTextAlreadyAttached
	}
	s.slides[sequence].Text = text
	return nil
}

func (s *memStore) Slides() []domain.Slide {
	return append([]domain.Slide(nil), s.slides...)
}

func (s *memStore) Dir() string { return s.dir }

type memStoreFactory struct {
	mu     sync.Mutex
	stores map[string]*memStore
}

func (f *memStoreFactory) Open(dir string) (ports.SlideStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stores == nil {
		f.stores = make(map[string]*memStore)
	}
	s := &memStore{dir: dir}
	f.stores[dir] = s
	return s, nil
}

type mockExporter struct {
	mu        sync.Mutex
	exported  [][]domain.Slide
	archived  int
	pruned    int
	exportErr error
}

func (m *mockExporter) Export(ctx context.Context, slides []domain.Slide, format domain.ExportFormat, dir string) (domain.ExportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exported = append(m.exported, slides)
	if m.exportErr != nil {
		return domain.ExportResult{}, m.exportErr
	}
	if format == domain.FormatRawImages {
		return domain.ExportResult{Format: format, Path: dir, Pages: len(slides)}, nil
	}
	if len(slides) == 0 {
		return domain.ExportResult{}, fmt.Errorf("%w: %w", domain.ErrExport, domain.ErrNoSlides)
	}
	return domain.ExportResult{Format: format, Path: dir + "/slides." + string(format), Pages: len(slides)}, nil
}

func (m *mockExporter) Archive(ctx context.Context, slides []domain.Slide, dir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived++
	return dir + "/slides.zip", nil
}

func (m *mockExporter) PruneImages(slides []domain.Slide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned++
	return nil
}

type mockManifests struct {
	mu        sync.Mutex
	manifests map[string]*ports.Manifest
	scanned   []domain.Slide
}

func newMockManifests() *mockManifests {
	return &mockManifests{manifests: make(map[string]*ports.Manifest)}
}

func (m *mockManifests) Load(ctx context.Context, dir string) (*ports.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mf, ok := m.manifests[dir]; ok {
		return mf, nil
	}
	return nil, domain.ErrManifestNotFound
}

func (m *mockManifests) Save(ctx context.Context, dir string, mf *ports.Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[dir] = mf
	return nil
}

func (m *mockManifests) Scan(ctx context.Context, dir string) ([]domain.Slide, error) {
	return m.scanned, nil
}

// statusRecorder collects published events
type statusRecorder struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (r *statusRecorder) Publish(e domain.StatusEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *statusRecorder) messages(jobID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.JobID == jobID {
			out = append(out, e.Message)
		}
	}
	return out
}
