package ffmpeg

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/bodgit/sevenzip"
	"github.com/ulikunitz/xz"

	"github.com/devbush/vid2slides/internal/config"
)

const (
	linuxBuildURL   = "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz"
	windowsBuildURL = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.7z"
)

// Instructions returns how to install ffmpeg manually on this platform
func (d *Decoder) Instructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install ffmpeg with Homebrew:\n  brew install ffmpeg"
	case "windows":
		return "Run 'vid2slides deps install' or download ffmpeg from https://www.gyan.dev/ffmpeg/builds/ and add its bin folder to PATH"
	default:
		return "Run 'vid2slides deps install' or install ffmpeg with your package manager:\n  sudo apt install ffmpeg"
	}
}

// Install downloads a static ffmpeg build into the application bin
// directory. Linux amd64 and Windows are supported.
func (d *Decoder) Install(ctx context.Context, progress func(downloaded, total int64)) error {
	binDir := config.BinDir()
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return err
	}

	wanted := []string{ffmpegBinaryName(), ffprobeBinaryName()}

	var url, archiveName string
	switch {
	case runtime.GOOS == "linux" && runtime.GOARCH == "amd64":
		url, archiveName = linuxBuildURL, "ffmpeg.tar.xz"
	case runtime.GOOS == "windows":
		url, archiveName = windowsBuildURL, "ffmpeg.7z"
	default:
		return fmt.Errorf("automatic ffmpeg install not supported on %s/%s\n%s", runtime.GOOS, runtime.GOARCH, d.Instructions())
	}

	archivePath := filepath.Join(os.TempDir(), fmt.Sprintf("vid2slides_%s", archiveName))
	if err := downloadFile(ctx, url, archivePath, progress); err != nil {
		return fmt.Errorf("failed to download ffmpeg: %w", err)
	}
	defer os.Remove(archivePath)

	var err error
	if archiveName == "ffmpeg.7z" {
		err = extract7z(archivePath, binDir, wanted)
	} else {
		var f *os.File
		f, err = os.Open(archivePath)
		if err == nil {
			err = extractTarXZ(f, binDir, wanted)
			f.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to extract ffmpeg: %w", err)
	}

	d.mu.Lock()
	d.ffmpegPath = filepath.Join(binDir, ffmpegBinaryName())
	d.ffprobePath = filepath.Join(binDir, ffprobeBinaryName())
	d.mu.Unlock()
	return nil
}

// extractTarXZ copies the named binaries out of a .tar.xz stream,
// ignoring the directory they sit in
func extractTarXZ(r io.Reader, destDir string, names []string) error {
	xr, err := xz.NewReader(r)
	if err != nil {
		return err
	}

	remaining := nameSet(names)
	tr := tar.NewReader(xr)
	for len(remaining) > 0 {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		base := path.Base(hdr.Name)
		if !remaining[base] {
			continue
		}
		if err := writeExecutable(filepath.Join(destDir, base), tr); err != nil {
			return err
		}
		delete(remaining, base)
	}

	return missing(remaining)
}

func extract7z(archivePath, destDir string, names []string) error {
	rc, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer rc.Close()

	remaining := nameSet(names)
	for _, f := range rc.File {
		base := path.Base(f.Name)
		if f.FileInfo().IsDir() || !remaining[base] {
			continue
		}

		src, err := f.Open()
		if err != nil {
			return err
		}
		err = writeExecutable(filepath.Join(destDir, base), src)
		src.Close()
		if err != nil {
			return err
		}
		delete(remaining, base)
	}

	return missing(remaining)
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func missing(remaining map[string]bool) error {
	for name := range remaining {
		return fmt.Errorf("%s not found in archive", name)
	}
	return nil
}

func writeExecutable(dest string, r io.Reader) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

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
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
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
