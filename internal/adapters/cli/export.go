package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/devbush/vid2slides/internal/application"
	"github.com/devbush/vid2slides/internal/domain"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <output-dir>",
		Short: "Re-export extracted slides in another format",
		Long: `Re-export a folder produced by an earlier run without touching the video.

Slides are read from the folder's manifest.json, or recovered from the
slide_*.png file names when no manifest exists.

Example:
  vid2slides export slides/video_abc123 --format html
  vid2slides export slides --format pdf --archive`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	app, err := GetApp(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	format, err := domain.ParseExportFormat(app.Config.Defaults.Format)
	if err != nil {
		return err
	}

	opts := application.ReexportOptions{
		Format:  format,
		Archive: app.Config.Defaults.Archive,
	}

	// A batch output root holds one job folder per video
	dirs, err := app.Manifests.Find(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(dirs) == 0 || (len(dirs) == 1 && filepath.Clean(dirs[0]) == filepath.Clean(args[0])) {
		return runReexport(cmd.Context(), app, args[0], opts)
	}

	var errs []error
	for _, dir := range dirs {
		if err := runReexport(cmd.Context(), app, dir, opts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}

func runReexport(ctx context.Context, app *App, dir string, opts application.ReexportOptions) error {
	result, err := app.ReexportSvc.Reexport(ctx, dir, opts)
	if err != nil {
		return err
	}

	if quietFlag {
		return nil
	}

	source := "manifest"
	if !result.FromManifest {
		source = "image files"
	}
	fmt.Printf("✓ %s: exported %d slides (from %s)\n", dir, result.Slides, source)
	fmt.Printf("  %s: %s\n", result.Export.Format, result.Export.Path)
	if result.ArchivePath != "" {
		fmt.Printf("  archive: %s\n", result.ArchivePath)
	}
	return nil
}
