package domain

import (
	"sort"
	"testing"
	"time"
)

func TestSlideFileName(t *testing.T) {
	tests := []struct {
		seq  int
		ts   time.Duration
		want string
	}{
		{0, 0, "slide_0000_00-00-00.png"},
		{7, 65 * time.Second, "slide_0007_00-01-05.png"},
		{42, 2*time.Hour + 3*time.Minute + 4*time.Second + 900*time.Millisecond, "slide_0042_02-03-04.png"},
	}

	for _, tt := range tests {
		if got := SlideFileName(tt.seq, tt.ts); got != tt.want {
			t.Errorf("SlideFileName(%d, %s) = %q, want %q", tt.seq, tt.ts, got, tt.want)
		}
	}
}

func TestSlideFileName_SortsInSlideOrder(t *testing.T) {
	var names []string
	for i := 0; i < 120; i++ {
		names = append(names, SlideFileName(i, time.Duration(i)*10*time.Second))
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	for i := range names {
		if names[i] != sorted[i] {
			t.Fatalf("names not lexicographically ordered at %d: %q vs %q", i, names[i], sorted[i])
		}
	}
}

func TestParseSlideFileName(t *testing.T) {
	seq, ts, ok := ParseSlideFileName("slide_0012_01-02-03.png")
	if !ok {
		t.Fatal("ParseSlideFileName() ok = false")
	}
	if seq != 12 {
		t.Errorf("sequence = %d, want 12", seq)
	}
	if want := time.Hour + 2*time.Minute + 3*time.Second; ts != want {
		t.Errorf("timestamp = %s, want %s", ts, want)
	}

	if _, _, ok := ParseSlideFileName("frame_0001.png"); ok {
		t.Error("ParseSlideFileName() accepted a non-slide name")
	}
}
