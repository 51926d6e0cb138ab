package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/devbush/vid2slides/internal/config"
	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// downloaded videos are written as <workDir>/source_video.<ext>
const outputBaseName = "source_video"

// Source implements VideoSource: local files are used in place, URLs are
// downloaded with yt-dlp
type Source struct {
	mu      sync.Mutex
	binPath string
}

// NewSource creates a video source. An empty binPath looks for yt-dlp in
// the application bin directory, then PATH.
func NewSource(binPath string) *Source {
	return &Source{binPath: binPath}
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

func (s *Source) findBinary() string {
	// Check bundled location first
	bundled := filepath.Join(config.BinDir(), binaryName())
	if _, err := os.Stat(bundled); err == nil {
		return bundled
	}

	// Check system PATH
	if path, err := exec.LookPath(binaryName()); err == nil {
		return path
	}

	return ""
}

func (s *Source) GetBinaryPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binPath != "" {
		return s.binPath
	}
	s.binPath = s.findBinary()
	return s.binPath
}

func (s *Source) IsAvailable() bool {
	return s.GetBinaryPath() != ""
}

// formatSelector picks an mp4 stream no taller than the requested tier
func formatSelector(res domain.Resolution) string {
	h := res.Height()
	if h == 0 {
		return "best[ext=mp4]/best"
	}
	return fmt.Sprintf("best[height<=%d][ext=mp4]/bestvideo[height<=%d][ext=mp4]", h, h)
}

func isRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// Resolve returns a local file for the locator. Remote videos are
// downloaded into workDir; when the requested tier is missing the highest
// available stream is fetched instead.
func (s *Source) Resolve(ctx context.Context, locator string, resolution domain.Resolution, workDir string) (*ports.ResolvedVideo, error) {
	if !isRemote(locator) {
		info, err := os.Stat(locator)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", domain.ErrSourceUnavailable, locator)
		}
		return &ports.ResolvedVideo{
			Path:       locator,
			Title:      filepath.Base(locator),
			Resolution: resolution,
		}, nil
	}

	binPath := s.GetBinaryPath()
	if binPath == "" {
		return nil, fmt.Errorf("%w: yt-dlp: %w", domain.ErrSourceUnavailable, domain.ErrToolNotFound)
	}

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	video, err := s.download(ctx, binPath, locator, formatSelector(resolution), workDir)
	if err == nil {
		video.Resolution = resolution
		return video, nil
	}
	if resolution.Height() == 0 || ctx.Err() != nil {
		return nil, err
	}

	video, fallbackErr := s.download(ctx, binPath, locator, formatSelector(domain.ResolutionHighest), workDir)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	video.Resolution = domain.ResolutionHighest
	video.FellBack = true
	return video, nil
}

func (s *Source) download(ctx context.Context, binPath, url, selector, destDir string) (*ports.ResolvedVideo, error) {
	outputTemplate := filepath.Join(destDir, outputBaseName+".%(ext)s")

	args := []string{
		"--no-warnings",
		"--no-playlist",
		"--print-json",
		"-f", selector,
		"-o", outputTemplate,
		url,
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: yt-dlp: %s", domain.ErrSourceUnavailable, msg)
	}

	info, err := parseInfo(output)
	if err != nil {
		// Try to find the video file anyway
		matches, _ := filepath.Glob(filepath.Join(destDir, outputBaseName+".*"))
		if len(matches) > 0 {
			return &ports.ResolvedVideo{Path: matches[0], Temporary: true}, nil
		}
		return nil, fmt.Errorf("%w: failed to parse yt-dlp output: %w", domain.ErrSourceUnavailable, err)
	}

	videoPath := filepath.Join(destDir, outputBaseName+"."+info.Ext)
	if len(info.RequestedDownloads) > 0 && info.RequestedDownloads[0].Filepath != "" {
		videoPath = info.RequestedDownloads[0].Filepath
	} else if info.Filename != "" {
		videoPath = info.Filename
	}

	return &ports.ResolvedVideo{
		Path:      videoPath,
		Title:     info.Title,
		Temporary: true,
	}, nil
}

type videoInfo struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Duration           float64 `json:"duration"`
	Height             int     `json:"height"`
	Ext                string  `json:"ext"`
	Filename           string  `json:"_filename"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// parseInfo reads the last JSON object yt-dlp printed
func parseInfo(output []byte) (*videoInfo, error) {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info videoInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, err
		}
		return &info, nil
	}
	return nil, fmt.Errorf("no JSON in output")
}

func (s *Source) Install(ctx context.Context, progress func(downloaded, total int64)) error {
	binDir := config.BinDir()
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return err
	}

	destPath := filepath.Join(binDir, binaryName())
	if err := downloadFile(ctx, getDownloadURL(), destPath, progress); err != nil {
		return fmt.Errorf("failed to download yt-dlp: %w", err)
	}

	// Make executable on Unix
	if runtime.GOOS != "windows" {
		if err := os.Chmod(destPath, 0755); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.binPath = destPath
	s.mu.Unlock()
	return nil
}

func getDownloadURL() string {
	base := "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"

	switch runtime.GOOS {
	case "windows":
		return base + "yt-dlp.exe"
	case "darwin":
		return base + "yt-dlp_macos"
	default:
		return base + "yt-dlp"
	}
}

func (s *Source) Update(ctx context.Context) error {
	binPath := s.GetBinaryPath()
	if binPath == "" {
		return fmt.Errorf("yt-dlp %w", domain.ErrToolNotFound)
	}

	cmd := exec.CommandContext(ctx, binPath, "-U")
	return cmd.Run()
}

// downloadFile streams url into destPath, removing partial files on failure
func downloadFile(ctx context.Context, url, destPath string, progress func(downloaded, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}

	// Track success to clean up partial downloads on failure
	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(destPath)
		}
	}()

	total := resp.ContentLength
	var downloaded int64

	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	success = true
	return nil
}

// Ensure Source implements VideoSource
var _ ports.VideoSource = (*Source)(nil)
