package domain

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Source is a video locator: a URL to download or a local file path
type Source struct {
	Locator string
	ID      string // short identifier derived from the locator
	Remote  bool
}

var (
	// Matches youtu.be/ID short links
	shortLinkPattern = regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`)
	// Characters kept in derived identifiers
	unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
)

// ParseSourceInput classifies a URL or path and derives its identifier
func ParseSourceInput(input string) (*Source, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid video URL: %s", input)
		}
		return &Source{Locator: input, ID: remoteID(u, input), Remote: true}, nil
	}

	base := filepath.Base(input)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	id = sanitizeID(id)
	if id == "" {
		return nil, fmt.Errorf("invalid video path: %s", input)
	}
	return &Source{Locator: input, ID: id}, nil
}

func remoteID(u *url.URL, raw string) string {
	if v := u.Query().Get("v"); v != "" {
		return sanitizeID(v)
	}
	if m := shortLinkPattern.FindStringSubmatch(raw); len(m) > 1 {
		return m[1]
	}
	last := path.Base(strings.TrimSuffix(u.Path, "/"))
	if last == "." || last == "/" || last == "" {
		return sanitizeID(u.Host)
	}
	return sanitizeID(strings.TrimSuffix(last, path.Ext(last)))
}

func sanitizeID(s string) string {
	return strings.Trim(unsafeIDChars.ReplaceAllString(s, "_"), "_")
}

// OutputDirName returns the per-video directory name used inside a batch output root
func (s *Source) OutputDirName() string {
	return "video_" + s.ID
}
