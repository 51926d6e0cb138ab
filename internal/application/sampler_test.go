package application

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

func collect(ctx context.Context, s *Sampler) []domain.Frame {
	var frames []domain.Frame
	for f := range s.Frames(ctx) {
		frames = append(frames, f)
	}
	return frames
}

func TestSampler_Points(t *testing.T) {
	tests := []struct {
		name     string
		fps      float64
		frames   int
		interval time.Duration
		want     []int
	}{
		{"ten fps two seconds", 10, 100, 2 * time.Second, []int{0, 20, 40, 60, 80}},
		{"fractional fps rounds step", 29.97, 120, time.Second, []int{0, 30, 60, 90}},
		{"step clamps to one", 0.4, 3, time.Second, []int{0, 1, 2}},
		{"no frames", 25, 0, time.Second, nil},
		{"unknown fps", 0, 100, time.Second, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := &mockStream{info: ports.VideoInfo{FPS: tt.fps, FrameCount: tt.frames}}
			got := NewSampler(stream, tt.interval, nil).Points()
			if len(got) != len(tt.want) {
				t.Fatalf("Points() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Points()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSampler_FramesTimestamps(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	stream := &mockStream{
		info:  ports.VideoInfo{FPS: 10, FrameCount: 100},
		frame: func(int) image.Image { return img },
	}

	frames := collect(context.Background(), NewSampler(stream, 2*time.Second, nil))
	if len(frames) != 5 {
		t.Fatalf("got %d frames, want 5", len(frames))
	}
	for k, f := range frames {
		if f.Index != k {
			t.Errorf("frame %d Index = %d", k, f.Index)
		}
		if f.Position != k*20 {
			t.Errorf("frame %d Position = %d, want %d", k, f.Position, k*20)
		}
		if want := time.Duration(k*2) * time.Second; f.Timestamp != want {
			t.Errorf("frame %d Timestamp = %s, want %s", k, f.Timestamp, want)
		}
	}
}

func TestSampler_SkipsUndecodableFrames(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	stream := &mockStream{
		info:  ports.VideoInfo{FPS: 10, FrameCount: 100},
		frame: func(int) image.Image { return img },
		fail:  map[int]bool{20: true, 60: true},
	}
	s := NewSampler(stream, 2*time.Second, nil)

	frames := collect(context.Background(), s)
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	wantPositions := []int{0, 40, 80}
	for i, f := range frames {
		if f.Position != wantPositions[i] {
			t.Errorf("frame %d Position = %d, want %d", i, f.Position, wantPositions[i])
		}
	}
	if s.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", s.Skipped())
	}
}

func TestSampler_Restartable(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	stream := &mockStream{
		info:  ports.VideoInfo{FPS: 1, FrameCount: 10},
		frame: func(int) image.Image { return img },
	}
	s := NewSampler(stream, 3*time.Second, nil)

	first := collect(context.Background(), s)
	second := collect(context.Background(), s)
	if len(first) != len(second) || len(first) != 4 {
		t.Fatalf("iterations yielded %d and %d frames, want 4 each", len(first), len(second))
	}
	for i := range first {
		if first[i].Position != second[i].Position {
			t.Errorf("frame %d: positions differ %d vs %d", i, first[i].Position, second[i].Position)
		}
	}
}

func TestSampler_StopsOnCancel(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	stream := &mockStream{
		info:  ports.VideoInfo{FPS: 1, FrameCount: 100},
		frame: func(int) image.Image { return img },
	}
	s := NewSampler(stream, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	count := 0
	for range s.Frames(ctx) {
		count++
		if count == 3 {
			cancel()
		}
	}

	if count != 3 {
		t.Errorf("received %d frames after cancel at 3", count)
	}
	if len(stream.calls) != 3 {
		t.Errorf("decoded %d frames, want 3", len(stream.calls))
	}
}

func TestSampler_EarlyBreak(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	stream := &mockStream{
		info:  ports.VideoInfo{FPS: 1, FrameCount: 100},
		frame: func(int) image.Image { return img },
	}

	for f := range NewSampler(stream, time.Second, nil).Frames(context.Background()) {
		if f.Index == 1 {
			break
		}
	}
	if len(stream.calls) != 2 {
		t.Errorf("decoded %d frames, want 2", len(stream.calls))
	}
}
