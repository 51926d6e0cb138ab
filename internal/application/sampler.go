package application

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"time"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// Sampler yields one frame every interval of a video stream
type Sampler struct {
	stream   ports.VideoStream
	interval time.Duration
	logger   *slog.Logger
	skipped  int
}

// NewSampler creates a sampler over an opened stream
func NewSampler(stream ports.VideoStream, interval time.Duration, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sampler{
		stream:   stream,
		interval: interval,
		logger:   logger,
	}
}

// Step returns the distance in frames between two sample points, at least 1
func (s *Sampler) Step() int {
	step := int(math.Round(s.stream.Info().FPS * s.interval.Seconds()))
	if step < 1 {
		step = 1
	}
	return step
}

// Points returns the frame positions that will be sampled, in order
func (s *Sampler) Points() []int {
	info := s.stream.Info()
	if info.FPS <= 0 || info.FrameCount <= 0 {
		return nil
	}
	step := s.Step()
	points := make([]int, 0, (info.FrameCount+step-1)/step)
	for p := 0; p < info.FrameCount; p += step {
		points = append(points, p)
	}
	return points
}

// Frames returns the sampled frames in increasing timestamp order. Each call
// starts again from the first frame. Positions that fail to decode are
// skipped and counted. Iteration stops when ctx is done.
func (s *Sampler) Frames(ctx context.Context) iter.Seq[domain.Frame] {
	return func(yield func(domain.Frame) bool) {
		s.skipped = 0
		fps := s.stream.Info().FPS

		for k, position := range s.Points() {
			if ctx.Err() != nil {
				return
			}

			img, err := s.stream.Frame(ctx, position)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.skipped++
				s.logger.Debug("sample skipped",
					"sample", k,
					"position", position,
					"error", fmt.Errorf("%w: %w", domain.ErrDecodeSkip, err))
				continue
			}

			frame := domain.Frame{
				Image:     img,
				Timestamp: time.Duration(float64(position) / fps * float64(time.Second)),
				Index:     k,
				Position:  position,
			}
			if !yield(frame) {
				return
			}
		}
	}
}

// Skipped returns how many sample points failed to decode in the last iteration
func (s *Sampler) Skipped() int {
	return s.skipped
}
