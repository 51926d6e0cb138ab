package ports

import (
	"github.com/devbush/vid2slides/internal/domain"
)

// SlideStore is the ordered, persisted slide sequence of one job.
// A store has a single writer.
type SlideStore interface {
	// Accept persists the frame as the next slide and returns it.
	Accept(frame domain.Frame) (*domain.Slide, error)

	// AttachText records recognized text for a slide. It fails if text is already attached.
	AttachText(sequence int, text string) error

	// Slides returns a copy of the accepted slides in sequence order.
	Slides() []domain.Slide

	// Dir returns the directory holding the slide images.
	Dir() string
}

// SlideStoreFactory opens a fresh store rooted at a job output directory.
type SlideStoreFactory interface {
	Open(dir string) (SlideStore, error)
}
