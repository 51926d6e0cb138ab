package ffmpeg

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/devbush/vid2slides/internal/domain"
	"github.com/devbush/vid2slides/internal/ports"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseRate(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantFPS   float64
		wantCount int
		wantErr   bool
	}{
		{
			name:      "nb_frames present",
			json:      `{"streams":[{"codec_type":"video","width":1280,"height":720,"avg_frame_rate":"10/1","nb_frames":"100","duration":"10.0"}]}`,
			wantFPS:   10,
			wantCount: 100,
		},
		{
			name:      "avg rate missing falls back to r_frame_rate",
			json:      `{"streams":[{"codec_type":"video","avg_frame_rate":"0/0","r_frame_rate":"25/1","nb_frames":"250"}]}`,
			wantFPS:   25,
			wantCount: 250,
		},
		{
			name:      "count from stream duration",
			json:      `{"streams":[{"codec_type":"video","avg_frame_rate":"30/1","duration":"2.5"}]}`,
			wantFPS:   30,
			wantCount: 75,
		},
		{
			name:      "count from format duration",
			json:      `{"streams":[{"codec_type":"video","avg_frame_rate":"24/1"}],"format":{"duration":"60"}}`,
			wantFPS:   24,
			wantCount: 1440,
		},
		{
			name:    "no frame rate",
			json:    `{"streams":[{"codec_type":"video","avg_frame_rate":"0/0","r_frame_rate":"0/0","nb_frames":"10"}]}`,
			wantErr: true,
		},
		{
			name:    "no video stream",
			json:    `{"streams":[{"codec_type":"audio"}]}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			json:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseProbe([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseProbe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if info.FPS != tt.wantFPS || info.FrameCount != tt.wantCount {
				t.Errorf("parseProbe() = fps %v count %d, want fps %v count %d", info.FPS, info.FrameCount, tt.wantFPS, tt.wantCount)
			}
			if info.Duration <= 0 {
				t.Errorf("Duration = %v, want > 0", info.Duration)
			}
		})
	}
}

// fakeTools writes ffprobe/ffmpeg shell scripts; ffmpeg prints a fixed PNG
func fakeTools(t *testing.T) (ffmpegPath, ffprobePath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a Unix shell")
	}

	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	framePath := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(framePath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	ffprobePath = filepath.Join(dir, "ffprobe")
	probe := `#!/bin/sh
echo '{"streams":[{"codec_type":"video","width":4,"height":4,"avg_frame_rate":"10/1","nb_frames":"100"}]}'
`
	ffmpegPath = filepath.Join(dir, "ffmpeg")
	ff := "#!/bin/sh\ncat " + framePath + "\n"

	if err := os.WriteFile(ffprobePath, []byte(probe), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ffmpegPath, []byte(ff), 0755); err != nil {
		t.Fatal(err)
	}
	return ffmpegPath, ffprobePath
}

func TestDecoderOpenAndFrame(t *testing.T) {
	ffmpegPath, ffprobePath := fakeTools(t)
	video := filepath.Join(t.TempDir(), "talk.mp4")
	os.WriteFile(video, []byte("not really a video"), 0644)

	d := NewDecoder(ffmpegPath, ffprobePath)
	if !d.IsAvailable() {
		t.Fatal("IsAvailable() = false with explicit paths")
	}

	s, err := d.Open(context.Background(), video)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	info := s.Info()
	if info.FPS != 10 || info.FrameCount != 100 || info.Duration != 10*time.Second {
		t.Errorf("Info() = %+v", info)
	}

	img, err := s.Frame(context.Background(), 40)
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("frame width = %d, want 4", img.Bounds().Dx())
	}

	if _, err := s.Frame(context.Background(), 100); !errors.Is(err, domain.ErrDecodeSkip) {
		t.Errorf("Frame(out of range) error = %v, want ErrDecodeSkip", err)
	}
}

func TestDecoderOpen_MissingFile(t *testing.T) {
	ffmpegPath, ffprobePath := fakeTools(t)
	d := NewDecoder(ffmpegPath, ffprobePath)

	if _, err := d.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("Open() should fail for a missing file")
	}
}

func TestFrame_EmptyOutputIsSkip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a Unix shell")
	}
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0755)

	s := &stream{ffmpeg: bin, path: "x.mp4", info: ports.VideoInfo{FPS: 1, FrameCount: 5}}
	if _, err := s.Frame(context.Background(), 0); !errors.Is(err, domain.ErrDecodeSkip) {
		t.Errorf("Frame() error = %v, want ErrDecodeSkip", err)
	}
}

func TestExtractTarXZ(t *testing.T) {
	var archive bytes.Buffer
	xw, err := xz.NewWriter(&archive)
	if err != nil {
		t.Fatal(err)
	}
	tw := tar.NewWriter(xw)
	files := map[string]string{
		"ffmpeg-7.0-amd64-static/ffmpeg":     "ffmpeg-binary",
		"ffmpeg-7.0-amd64-static/ffprobe":    "ffprobe-binary",
		"ffmpeg-7.0-amd64-static/readme.txt": "docs",
	}
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0755, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		tw.Write([]byte(body))
	}
	tw.Close()
	xw.Close()

	dest := t.TempDir()
	if err := extractTarXZ(bytes.NewReader(archive.Bytes()), dest, []string{"ffmpeg", "ffprobe"}); err != nil {
		t.Fatalf("extractTarXZ() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "ffprobe"))
	if err != nil || string(got) != "ffprobe-binary" {
		t.Errorf("ffprobe = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "readme.txt")); !os.IsNotExist(err) {
		t.Error("unrequested files should not be extracted")
	}

	err = extractTarXZ(bytes.NewReader(archive.Bytes()), t.TempDir(), []string{"ffmpeg", "ffplay"})
	if err == nil {
		t.Error("extractTarXZ() should fail when a binary is missing from the archive")
	}
}

func TestInstructions(t *testing.T) {
	if NewDecoder("", "").Instructions() == "" {
		t.Error("Instructions() should not be empty")
	}
}

func TestDecoder_ConcurrentPathLookup(t *testing.T) {
	x := NewDecoder("", "")

	paths := make([]string, 16)
	var wg sync.WaitGroup
	for i := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x.IsAvailable()
			paths[i] = x.GetBinaryPath()
		}()
	}
	wg.Wait()

	for i, p := range paths {
		if p != paths[0] {
			t.Errorf("lookup %d = %q, want %q", i, p, paths[0])
		}
	}
}
