package domain

import (
	"image"
	"time"
)

// Frame is one decoded sample of a video. It only lives while it is being compared.
type Frame struct {
	Image     image.Image
	Timestamp time.Duration // offset from the start of the video
	Index     int           // ordinal sample index (k)
	Position  int           // source frame number (k * step)
}

// Bounds returns the frame size, or an empty rectangle when no image is set
func (f Frame) Bounds() image.Rectangle {
	if f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Bounds()
}
