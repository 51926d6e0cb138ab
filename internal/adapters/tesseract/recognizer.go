// Package tesseract recognizes slide text with the tesseract CLI.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/devbush/vid2slides/internal/config"
	"github.com/devbush/vid2slides/internal/ports"
	"github.com/devbush/vid2slides/internal/similarity"
)

// Threshold binarizes the grayscale input; luma above it becomes white
const Threshold = 150

// Recognizer implements ports.TextRecognizer
type Recognizer struct {
	mu      sync.Mutex
	binPath string
}

// NewRecognizer creates a recognizer. An empty binPath looks in the
// application bin directory, then PATH.
func NewRecognizer(binPath string) *Recognizer {
	return &Recognizer{binPath: binPath}
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "tesseract.exe"
	}
	return "tesseract"
}

func (r *Recognizer) GetBinaryPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.binPath != "" {
		return r.binPath
	}
	bundled := filepath.Join(config.BinDir(), binaryName())
	if _, err := os.Stat(bundled); err == nil {
		r.binPath = bundled
	} else if path, err := exec.LookPath(binaryName()); err == nil {
		r.binPath = path
	}
	return r.binPath
}

func (r *Recognizer) IsAvailable() bool {
	return r.GetBinaryPath() != ""
}

// Instructions returns platform-specific installation instructions
func (r *Recognizer) Instructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "brew install tesseract"
	case "windows":
		return "Download the installer from https://github.com/UB-Mannheim/tesseract/wiki and add it to PATH"
	default:
		return "sudo apt install tesseract-ocr"
	}
}

// Recognize binarizes the image and runs tesseract in single-block mode
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	binPath := r.GetBinaryPath()
	if binPath == "" {
		return "", fmt.Errorf("tesseract not found")
	}

	var input bytes.Buffer
	if err := png.Encode(&input, Binarize(img, Threshold)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	cmd := exec.CommandContext(ctx, binPath,
		"stdin", "stdout",
		"--psm", "6",
		"--oem", "3",
		"-c", "min_characters_to_try=5",
	)
	cmd.Stdin = &input
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tesseract: %s", msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// Binarize converts img to black and white at the given luma threshold
func Binarize(img image.Image, threshold uint8) *image.Gray {
	gray := similarity.Grayscale(img)
	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		if v > threshold {
			out.Pix[i] = 255
		}
	}
	return out
}

var _ ports.TextRecognizer = (*Recognizer)(nil)

