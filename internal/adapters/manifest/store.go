package manifest

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// FileName is the manifest written into every job directory
const FileName = "manifest.json"

type FileStore struct {
	fs afero.Fs
}

func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// on-disk form; image paths are stored relative to the job directory
type manifestFile struct {
	Version int           `json:"version"`
	Job     jobSettings   `json:"job"`
	Slides  []slideEntry  `json:"slides"`
	Stats   manifestStats `json:"stats"`
}

type jobSettings struct {
	Source      string              `json:"source"`
	Title       string              `json:"title,omitempty"`
	IntervalSec float64             `json:"interval_seconds"`
	Threshold   float64             `json:"threshold"`
	ExtractText bool                `json:"extract_text"`
	Format      domain.ExportFormat `json:"format"`
}

type slideEntry struct {
	Sequence     int     `json:"sequence"`
	TimestampSec float64 `json:"timestamp_seconds"`
	Image        string  `json:"image"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Text         string  `json:"text,omitempty"`
}

type manifestStats struct {
	SlideCount     int    `json:"slide_count"`
	SkippedSamples int    `json:"skipped_samples"`
	CreatedAt      string `json:"created_at"`
}

const manifestVersion = 1

func (s *FileStore) path(dir string) string {
	return filepath.Join(dir, FileName)
}

func (s *FileStore) Load(ctx context.Context, dir string) (*ports.Manifest, error) {
	data, err := afero.ReadFile(s.fs, s.path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrManifestNotFound
		}
		return nil, err
	}

	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, err
	}

	m := &ports.Manifest{
		Source:      mf.Job.Source,
		Title:       mf.Job.Title,
		Interval:    seconds(mf.Job.IntervalSec),
		Threshold:   mf.Job.Threshold,
		ExtractText: mf.Job.ExtractText,
		Format:      mf.Job.Format,
		Skipped:     mf.Stats.SkippedSamples,
	}
	m.CreatedAt, _ = parseTime(mf.Stats.CreatedAt)

	for _, e := range mf.Slides {
		m.Slides = append(m.Slides, domain.Slide{
			Sequence:  e.Sequence,
			Timestamp: seconds(e.TimestampSec),
			ImagePath: filepath.Join(dir, filepath.FromSlash(e.Image)),
			Width:     e.Width,
			Height:    e.Height,
			Text:      e.Text,
		})
	}
	sort.Slice(m.Slides, func(i, j int) bool { return m.Slides[i].Sequence < m.Slides[j].Sequence })

	return m, nil
}

func (s *FileStore) Save(ctx context.Context, dir string, m *ports.Manifest) error {
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	mf := manifestFile{
		Version: manifestVersion,
		Job: jobSettings{
			Source:      m.Source,
			Title:       m.Title,
			IntervalSec: m.Interval.Seconds(),
			Threshold:   m.Threshold,
			ExtractText: m.ExtractText,
			Format:      m.Format,
		},
		Slides: make([]slideEntry, 0, len(m.Slides)),
		Stats: manifestStats{
			SlideCount:     len(m.Slides),
			SkippedSamples: m.Skipped,
			CreatedAt:      formatTime(m.CreatedAt),
		},
	}

	for _, sl := range m.Slides {
		mf.Slides = append(mf.Slides, slideEntry{
			Sequence:     sl.Sequence,
			TimestampSec: sl.Timestamp.Seconds(),
			Image:        relativeImage(dir, sl.ImagePath),
			Width:        sl.Width,
			Height:       sl.Height,
			Text:         sl.Text,
		})
	}

	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}

	return afero.WriteFile(s.fs, s.path(dir), data, 0644)
}

// Scan lists slide_*.png files in dir, ordered by the sequence number in
// their names and renumbered from 0
func (s *FileStore) Scan(ctx context.Context, dir string) ([]domain.Slide, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	type scanned struct {
		name     string
		sequence int
		ts       time.Duration
	}
	var found []scanned
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".png") {
			continue
		}
		if seq, ts, ok := domain.ParseSlideFileName(entry.Name()); ok {
			found = append(found, scanned{name: entry.Name(), sequence: seq, ts: ts})
		}
	}
	slices.SortFunc(found, func(a, b scanned) int {
		return cmp.Or(
			cmp.Compare(a.sequence, b.sequence),
			cmp.Compare(a.ts, b.ts),
			strings.Compare(a.name, b.name),
		)
	})

	slides := make([]domain.Slide, 0, len(found))
	for i, f := range found {
		slides = append(slides, domain.Slide{
			Sequence:  i,
			Timestamp: f.ts,
			ImagePath: filepath.Join(dir, f.name),
		})
	}
	return slides, nil
}

// Find returns the job directories below root that hold a manifest
func (s *FileStore) Find(ctx context.Context, root string) ([]string, error) {
	var dirs []string
	err := afero.Walk(s.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !info.IsDir() && info.Name() == FileName {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}

func relativeImage(dir, imagePath string) string {
	if rel, err := filepath.Rel(dir, imagePath); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(imagePath)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

var _ ports.ManifestStore = (*FileStore)(nil)
