package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devbush/vid2slides/internal/adapters/cli/tui"
	"github.com/devbush/vid2slides/internal/application"
	"github.com/devbush/vid2slides/internal/config"
	"github.com/devbush/vid2slides/internal/domain"
)

var (
	// Global flags
	verboseFlag bool
	quietFlag   bool

	// Extraction flags, overriding the configured defaults when set
	intervalFlag      int
	thresholdFlag     float64
	resolutionFlag    string
	textFlag          bool
	formatFlag        string
	outputFlag        string
	archiveFlag       bool
	pruneFlag         bool
	analysisWidthFlag int
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vid2slides [video-url|file]",
		Short: "Extract slides from presentation videos",
		Long: `vid2slides samples a recorded presentation, keeps one image per slide
and exports them as a PDF, an HTML slideshow or plain images.

Provide a video URL or a local file to extract its slides, or run without
arguments for an interactive menu.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress progress output")
	pf.IntVarP(&intervalFlag, "interval", "i", 0, "Seconds between sampled frames (default from config: 5)")
	pf.Float64VarP(&thresholdFlag, "threshold", "t", 0, "Similarity threshold 0.1-1.0, higher keeps more slides (default from config: 0.7)")
	pf.StringVarP(&resolutionFlag, "resolution", "r", "", "Download resolution: highest, 360p, 480p, 720p, 1080p")
	pf.BoolVar(&textFlag, "text", false, "Extract slide text with OCR")
	pf.StringVar(&formatFlag, "format", "", "Export format: pdf, html, images")
	pf.StringVarP(&outputFlag, "output", "o", "", "Output directory")
	pf.BoolVar(&archiveFlag, "archive", false, "Also bundle slide images into slides.zip")
	pf.BoolVar(&pruneFlag, "prune", false, "Delete slide PNGs after a successful PDF export")
	pf.IntVar(&analysisWidthFlag, "analysis-width", 0, "Downscale frames to this width before comparing (0 keeps native size)")

	// Add subcommands
	rootCmd.AddCommand(NewBatchCmd())
	rootCmd.AddCommand(NewExportCmd())
	rootCmd.AddCommand(NewDepsCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// applyFlags overlays explicitly set command line flags on the config
func applyFlags(cmd *cobra.Command, cfg *config.Config) *config.Config {
	out := *cfg
	d := &out.Defaults
	flags := cmd.Flags()

	if flags.Changed("interval") {
		d.Interval = intervalFlag
	}
	if flags.Changed("threshold") {
		d.Threshold = thresholdFlag
	}
	if flags.Changed("resolution") {
		d.Resolution = resolutionFlag
	}
	if flags.Changed("text") {
		d.ExtractText = textFlag
	}
	if flags.Changed("format") {
		d.Format = formatFlag
	}
	if flags.Changed("output") {
		d.OutputDir = outputFlag
	}
	if flags.Changed("archive") {
		d.Archive = archiveFlag
	}
	if flags.Changed("prune") {
		d.PruneImages = pruneFlag
	}
	if flags.Changed("analysis-width") {
		d.AnalysisWidth = analysisWidthFlag
	}
	return &out
}

// newJob builds a validated job for one source from the effective defaults
func newJob(d config.DefaultsConfig, source string) (domain.ExtractionJob, error) {
	resolution, err := domain.ParseResolution(d.Resolution)
	if err != nil {
		return domain.ExtractionJob{}, err
	}
	format, err := domain.ParseExportFormat(d.Format)
	if err != nil {
		return domain.ExtractionJob{}, err
	}

	job := domain.ExtractionJob{
		Source:      source,
		OutputDir:   d.OutputDir,
		Interval:    time.Duration(d.Interval) * time.Second,
		Threshold:   d.Threshold,
		Resolution:  resolution,
		ExtractText: d.ExtractText,
		Format:      format,
		Archive:     d.Archive,
		PruneImages: d.PruneImages,
	}
	if err := job.Validate(); err != nil {
		return domain.ExtractionJob{}, err
	}
	return job, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	app, err := GetApp(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	cfg := app.Config

	if len(args) == 0 {
		// No arguments - show interactive menu
		return runInteractiveMenu(cmd.Context(), app, cfg)
	}

	src, err := domain.ParseSourceInput(args[0])
	if err != nil {
		return err
	}
	job, err := newJob(cfg.Defaults, src.Locator)
	if err != nil {
		return err
	}
	return runExtract(cmd.Context(), app, job)
}

func runInteractiveMenu(ctx context.Context, app *App, cfg *config.Config) error {
	options := []tui.MenuOption{
		{Label: "Extract slides from a video", Value: "extract"},
		{Label: "Extract slides from a list of videos", Value: "batch"},
		{Label: "Re-export an output folder", Value: "export"},
		{Label: "Show settings", Value: "settings"},
	}

	selected, err := tui.RunMenu("What would you like to do?", options)
	if err != nil {
		return err
	}

	switch selected {
	case "extract":
		return runExtractInteractive(ctx, app, cfg)
	case "batch":
		path := prompt("File with one URL or path per line: ")
		locators, err := CollectInputs(nil, path)
		if err != nil {
			return err
		}
		return runBatchJobs(ctx, app, cfg, locators)
	case "export":
		dir := prompt("Output folder to re-export: ")
		format, err := tui.RunMenu("Export slides as?", []tui.MenuOption{
			{Label: "PDF document", Value: string(domain.FormatDocument)},
			{Label: "HTML slideshow", Value: string(domain.FormatInteractive)},
			{Label: "Images only", Value: string(domain.FormatRawImages)},
		})
		if err != nil || format == "" {
			return err
		}
		return runReexport(ctx, app, dir, application.ReexportOptions{Format: domain.ExportFormat(format)})
	case "settings":
		return printConfig(cfg)
	case "":
		fmt.Println("Cancelled")
	}

	return nil
}

func runExtractInteractive(ctx context.Context, app *App, cfg *config.Config) error {
	input := prompt("Enter video URL or file path: ")
	src, err := domain.ParseSourceInput(input)
	if err != nil {
		return err
	}

	d := cfg.Defaults
	format, _ := domain.ParseExportFormat(d.Format)
	choices, err := tui.RunExtractOptions(tui.ExtractChoices{
		Format:      format,
		ExtractText: d.ExtractText,
		Archive:     d.Archive,
		PruneImages: d.PruneImages,
	})
	if err != nil {
		return err
	}
	if choices == nil {
		fmt.Println("Cancelled")
		return nil
	}

	d.Format = string(choices.Format)
	d.ExtractText = choices.ExtractText
	d.Archive = choices.Archive
	d.PruneImages = choices.PruneImages

	job, err := newJob(d, src.Locator)
	if err != nil {
		return err
	}
	return runExtract(ctx, app, job)
}

// prompt reads one trimmed line from stdin
func prompt(label string) string {
	fmt.Print(label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

func runExtract(ctx context.Context, app *App, job domain.ExtractionJob) error {
	src, err := domain.ParseSourceInput(job.Source)
	if err != nil {
		return err
	}

	steps := []string{"Checking dependencies", "Extracting slides"}
	progress := tui.NewProgressDisplay(steps, quietFlag || !isTerminal(os.Stdout))

	// Step 1: Check dependencies
	progress.StartStep(0)
	if err := ensureDependencies(ctx, app, src.Remote, job.ExtractText, func(d, t int64) {
		progress.UpdateProgress(0, d, t)
	}); err != nil {
		progress.FailStep(0, "missing dependency")
		return err
	}
	progress.CompleteStep(0)

	// Step 2: Sample, compare, store and export
	spinnerDone := progress.StartSpinner()
	progress.StartStep(1)

	outcome := app.ExtractSvc.Run(ctx, job, application.StatusFunc(func(e domain.StatusEvent) {
		progress.SetDetail(1, e.Message)
	}))
	close(spinnerDone)

	if outcome.Err != nil {
		progress.FailStep(1, outcome.Err.Error())
		return outcome.Err
	}
	progress.CompleteStep(1)

	outputs := []tui.Output{
		{Label: "Slides", Value: fmt.Sprintf("%s in %s", tui.FormatSlides(outcome.SlideCount), outcome.OutputDir)},
	}
	if outcome.ExportPath != "" {
		outputs = append(outputs, tui.Output{Label: "Export", Value: outcome.ExportPath})
	}
	outputs = append(outputs, tui.Output{Label: "Time", Value: tui.FormatDuration(outcome.Duration)})
	progress.Complete(outputs)

	return outcome.ExportErr
}

// ensureDependencies installs missing tools where possible and explains
// how to install the rest
func ensureDependencies(ctx context.Context, app *App, remote, needText bool, progress func(downloaded, total int64)) error {
	if remote && !app.Source.IsAvailable() {
		if err := app.Source.Install(ctx, progress); err != nil {
			return fmt.Errorf("failed to install yt-dlp: %w", err)
		}
	}

	if !app.Decoder.IsAvailable() {
		if err := app.Decoder.Install(ctx, progress); err != nil {
			return fmt.Errorf("%w: %w\n%s", domain.ErrFFmpegNotFound, err, app.Decoder.Instructions())
		}
	}

	if needText && !app.Recognizer.IsAvailable() {
		return fmt.Errorf("tesseract %w, needed for --text\n%s", domain.ErrToolNotFound, app.Recognizer.Instructions())
	}

	return nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		if errors.Is(err, domain.ErrConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
