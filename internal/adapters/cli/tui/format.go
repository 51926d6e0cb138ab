package tui

import (
	"fmt"
	"time"
)

// FormatDuration formats an elapsed time compactly
// Examples: 850ms -> "0.9s", 42s -> "42.0s", 5m7s -> "5m07s", 1h2m -> "1h02m"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		tenths := int64((d + 50*time.Millisecond) / (100 * time.Millisecond))
		return fmt.Sprintf("%d.%ds", tenths/10, tenths%10)
	}
	if d < time.Hour {
		m := int(d / time.Minute)
		s := int((d % time.Minute) / time.Second)
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh%02dm", h, m)
}

// Truncate shortens s to at most max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// FormatSlides formats a slide count with the right noun
func FormatSlides(n int) string {
	if n == 1 {
		return "1 slide"
	}
	return fmt.Sprintf("%d slides", n)
}
