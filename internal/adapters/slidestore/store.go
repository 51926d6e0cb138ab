// Package slidestore persists accepted frames as numbered PNG files.
package slidestore

import (
	"fmt"
	"image/png"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// Store writes slide images into one directory and tracks their order
type Store struct {
	fs     afero.Fs
	dir    string
	slides []domain.Slide
	// attached marks slides that already received text, even empty text
	attached []bool
}

// New creates the slide directory and returns an empty store
func New(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create slide directory: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Dir returns the directory holding the slide images
func (s *Store) Dir() string {
	return s.dir
}

// Accept encodes the frame as the next slide image
func (s *Store) Accept(frame domain.Frame) (*domain.Slide, error) {
	if frame.Image == nil {
		return nil, fmt.Errorf("accept slide: frame %d has no image", frame.Index)
	}

	seq := len(s.slides)
	path := filepath.Join(s.dir, domain.SlideFileName(seq, frame.Timestamp))

	f, err := s.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create slide image: %w", err)
	}
	if err := png.Encode(f, frame.Image); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode slide image: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write slide image: %w", err)
	}

	b := frame.Bounds()
	s.slides = append(s.slides, domain.Slide{
		Sequence:  seq,
		Timestamp: frame.Timestamp,
		ImagePath: path,
		Width:     b.Dx(),
		Height:    b.Dy(),
	})
	s.attached = append(s.attached, false)

	slide := s.slides[seq]
	return &slide, nil
}

// AttachText records text for a slide, at most once
func (s *Store) AttachText(sequence int, text string) error {
	if sequence < 0 || sequence >= len(s.slides) {
		return fmt.Errorf("%w: %d", domain.ErrSlideNotFound, sequence)
	}
	if s.attached[sequence] {
		return fmt.Errorf("%w: slide %d", domain.ErrTextAlreadyAttached, sequence)
	}
	s.attached[sequence] = true
	s.slides[sequence].Text = text
	return nil
}

// Slides returns a copy of the slide sequence
func (s *Store) Slides() []domain.Slide {
	out := make([]domain.Slide, len(s.slides))
	copy(out, s.slides)
	return out
}

// Factory opens stores on a shared filesystem
type Factory struct {
	fs afero.Fs
}

// NewFactory creates a store factory
func NewFactory(fs afero.Fs) *Factory {
	return &Factory{fs: fs}
}

// Open creates a store rooted at dir
func (f *Factory) Open(dir string) (ports.SlideStore, error) {
	return New(f.fs, dir)
}

var (
	_ ports.SlideStore        = (*Store)(nil)
	_ ports.SlideStoreFactory = (*Factory)(nil)
)
