// Package ffmpeg decodes video frames by shelling out to ffprobe and ffmpeg.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/devbush/vid2slides/internal/config"
	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

// Decoder implements ports.FrameDecoder
type Decoder struct {
	// mu guards the lazily resolved tool paths; one decoder serves every
	// job in a batch
	mu          sync.Mutex
	ffmpegPath  string
	ffprobePath string
}

// NewDecoder creates a decoder. Empty paths are looked up in the
// application bin directory, then PATH.
func NewDecoder(ffmpegPath, ffprobePath string) *Decoder {
	return &Decoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

func ffmpegBinaryName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

func ffprobeBinaryName() string {
	if runtime.GOOS == "windows" {
		return "ffprobe.exe"
	}
	return "ffprobe"
}

func findBinary(name string) string {
	bundled := filepath.Join(config.BinDir(), name)
	if _, err := os.Stat(bundled); err == nil {
		return bundled
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

func (d *Decoder) GetBinaryPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ffmpegPath == "" {
		d.ffmpegPath = findBinary(ffmpegBinaryName())
	}
	return d.ffmpegPath
}

func (d *Decoder) probePath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ffprobePath == "" {
		d.ffprobePath = findBinary(ffprobeBinaryName())
	}
	return d.ffprobePath
}

// IsAvailable reports whether both ffmpeg and ffprobe were found
func (d *Decoder) IsAvailable() bool {
	return d.GetBinaryPath() != "" && d.probePath() != ""
}

// Open probes the video and returns a stream that decodes single frames on demand.
func (d *Decoder) Open(ctx context.Context, path string) (ports.VideoStream, error) {
	if !d.IsAvailable() {
		return nil, domain.ErrFFmpegNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, d.probePath(),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffprobe: %s", msg)
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	info, err := parseProbe(output)
	if err != nil {
		return nil, err
	}

	return &stream{ffmpeg: d.GetBinaryPath(), path: path, info: info}, nil
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseProbe extracts frame rate and frame count from ffprobe JSON.
// Containers that omit nb_frames get a count derived from duration.
func parseProbe(data []byte) (ports.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "" && s.CodecType != "video" {
			continue
		}

		fps := parseRate(s.AvgFrameRate)
		if fps <= 0 {
			fps = parseRate(s.RFrameRate)
		}
		if fps <= 0 {
			return ports.VideoInfo{}, fmt.Errorf("video has no usable frame rate")
		}

		seconds, _ := strconv.ParseFloat(s.Duration, 64)
		if seconds <= 0 {
			seconds, _ = strconv.ParseFloat(out.Format.Duration, 64)
		}

		count, _ := strconv.Atoi(s.NbFrames)
		if count <= 0 {
			count = int(math.Floor(seconds * fps))
		}
		if count <= 0 {
			return ports.VideoInfo{}, fmt.Errorf("video has no frames")
		}
		if seconds <= 0 {
			seconds = float64(count) / fps
		}

		return ports.VideoInfo{
			FPS:        fps,
			FrameCount: count,
			Duration:   time.Duration(seconds * float64(time.Second)),
			Width:      s.Width,
			Height:     s.Height,
		}, nil
	}

	return ports.VideoInfo{}, fmt.Errorf("no video stream found")
}

// parseRate parses "30000/1001" or "25" style rates
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	dv, err := strconv.ParseFloat(den, 64)
	if err != nil || dv == 0 {
		return 0
	}
	return n / dv
}

type stream struct {
	ffmpeg string
	path   string
	info   ports.VideoInfo
}

func (s *stream) Info() ports.VideoInfo {
	return s.info
}

// Frame seeks to the frame's timestamp and decodes one PNG from ffmpeg's stdout
func (s *stream) Frame(ctx context.Context, position int) (image.Image, error) {
	if position < 0 || position >= s.info.FrameCount {
		return nil, fmt.Errorf("%w: position %d out of range", domain.ErrDecodeSkip, position)
	}

	seek := float64(position) / s.info.FPS
	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(seek, 'f', 3, 64),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %w", domain.ErrDecodeSkip, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: no frame at position %d", domain.ErrDecodeSkip, position)
	}

	img, err := png.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecodeSkip, err)
	}
	return img, nil
}

func (s *stream) Close() error {
	return nil
}

// Ensure Decoder implements FrameDecoder
var _ ports.FrameDecoder = (*Decoder)(nil)
