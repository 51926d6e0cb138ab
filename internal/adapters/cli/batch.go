package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devbush/vid2slides/internal/adapters/cli/tui"
	"github.com/devbush/vid2slides/internal/application"
	"github.com/devbush/vid2slides/internal/config"
	"github.com/devbush/vid2slides/internal/domain"
)

var (
	batchFileFlag       string
	batchSequentialFlag bool
	batchConcurrency    int
)

// NewBatchCmd creates the batch command
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [urls/files...]",
		Short: "Extract slides from many videos",
		Long: `Extract slides from many videos concurrently.

Provide video URLs or files as arguments and/or via a file with --file.
Each video gets its own video_<id> folder inside the output directory.

Example:
  vid2slides batch talk1.mp4 talk2.mp4
  vid2slides batch --file videos.txt --format html
  vid2slides batch https://youtu.be/abc --file more.txt --concurrency 4`,
		RunE: runBatch,
	}

	// Batch-specific flags
	cmd.Flags().StringVarP(&batchFileFlag, "file", "f", "", "File with URLs/paths (one per line)")
	cmd.Flags().BoolVar(&batchSequentialFlag, "sequential", false, "Process videos one at a time")
	cmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, fmt.Sprintf("Max videos processed at once, 1-%d (default from config: 3)", application.MaxConcurrencyLimit))

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	// Collect all sources from args and file
	locators, err := CollectInputs(args, batchFileFlag)
	if err != nil {
		return fmt.Errorf("failed to collect inputs: %w", err)
	}

	if len(locators) == 0 {
		return fmt.Errorf("%w: no valid video URLs or paths provided", domain.ErrConfiguration)
	}

	// Initialize app
	app, err := GetApp(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	cfg := *app.Config
	if cmd.Flags().Changed("sequential") {
		cfg.Batch.Parallel = !batchSequentialFlag
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Batch.MaxConcurrency = batchConcurrency
	}

	return runBatchJobs(cmd.Context(), app, &cfg, locators)
}

func runBatchJobs(ctx context.Context, app *App, cfg *config.Config, locators []string) error {
	jobs := make([]domain.ExtractionJob, 0, len(locators))
	needText := cfg.Defaults.ExtractText
	anyRemote := false
	for _, loc := range locators {
		job, err := newJob(cfg.Defaults, loc)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		if src, err := domain.ParseSourceInput(loc); err == nil && src.Remote {
			anyRemote = true
		}
	}

	if err := ensureDependencies(ctx, app, anyRemote, needText, printProgress); err != nil {
		return err
	}

	// Create output root
	if err := os.MkdirAll(cfg.Defaults.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	quiet := quietFlag || !isTerminal(os.Stdout)
	progress := tui.NewBatchProgress(len(jobs), quiet, isTerminal(os.Stdout))

	// Drain status events on a single goroutine while the batch runs
	stream := application.NewStatusStream()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for event := range stream.Events() {
			finished, failed := application.JobFinished(event)
			progress.Update(event.JobID, event.Message, finished, failed)
		}
	}()

	result, err := app.Coordinator.Run(ctx, jobs, application.BatchOptions{
		Parallel:       cfg.Batch.Parallel,
		MaxConcurrency: cfg.Batch.MaxConcurrency,
	}, stream)
	stream.Close()
	<-drained
	if err != nil {
		return err
	}

	// Print completion summary
	progress.Complete(result)

	// Return error if any failed
	if failed := len(result.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d videos failed", failed, len(jobs))
	}
	return nil
}

func printProgress(downloaded, total int64) {
	if quietFlag {
		return
	}
	if total > 0 {
		pct := float64(downloaded) / float64(total) * 100
		fmt.Printf("\rDownloading... %.1f%%", pct)
		if downloaded >= total {
			fmt.Println()
		}
	}
}
