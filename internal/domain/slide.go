package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Slide is one accepted, deduplicated frame
type Slide struct {
	Sequence  int           `json:"sequence"`
	Timestamp time.Duration `json:"timestamp"`
	ImagePath string        `json:"image_path"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Text      string        `json:"text,omitempty"` // recognized text, empty when absent
}

// HasText reports whether recognized text was attached
func (s *Slide) HasText() bool {
	return s.Text != ""
}

// FileName returns the base name of the slide image
func (s *Slide) FileName() string {
	return filepath.Base(s.ImagePath)
}

// SlideFileName builds the image file name for a slide. Names sort
// lexicographically in slide order.
func SlideFileName(sequence int, timestamp time.Duration) string {
	return fmt.Sprintf("slide_%04d_%s.png", sequence, FormatTimestamp(timestamp, "-"))
}

var slideFilePattern = regexp.MustCompile(`^slide_(\d+)_(\d+)-(\d{2})-(\d{2})\.png$`)

// ParseSlideFileName recovers the sequence number and timestamp from a slide image name
func ParseSlideFileName(name string) (sequence int, timestamp time.Duration, ok bool) {
	m := slideFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}

	sequence, _ = strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	seconds, _ := strconv.Atoi(m[4])

	timestamp = time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return sequence, timestamp, true
}

// FormatTimestamp renders a duration as HH<sep>MM<sep>SS, dropping fractions
func FormatTimestamp(d time.Duration, sep string) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d%s%02d%s%02d", hours, sep, minutes, sep, secs)
}
