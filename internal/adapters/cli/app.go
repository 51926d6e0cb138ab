package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/devbush/vid2slides/internal/adapters/export"
	"github.com/devbush/vid2slides/internal/adapters/ffmpeg"
	"github.com/devbush/vid2slides/internal/adapters/manifest"
	"github.com/devbush/vid2slides/internal/adapters/slidestore"
	"github.com/devbush/vid2slides/internal/adapters/tesseract"
	"github.com/devbush/vid2slides/internal/adapters/ytdlp"
	"github.com/devbush/vid2slides/internal/application"
	"github.com/devbush/vid2slides/internal/config"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Source     *ytdlp.Source
	Decoder    *ffmpeg.Decoder
	Recognizer *tesseract.Recognizer
	Manifests  *manifest.FileStore

	ExtractSvc  *application.ExtractService
	Coordinator *application.Coordinator
	ReexportSvc *application.ReexportService
}

// NewApp creates and wires up all dependencies. Flags explicitly set on
// cmd override the loaded configuration.
func NewApp(cmd *cobra.Command, logger *slog.Logger) (*App, error) {
	// Ensure directories exist
	if err := config.EnsureDirs(); err != nil {
		return nil, err
	}

	// Load config (file, then VID2SLIDES_* environment)
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if cmd != nil {
		cfg = applyFlags(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return newAppWithConfig(cfg, afero.NewOsFs(), logger), nil
}

func newAppWithConfig(cfg *config.Config, fs afero.Fs, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Create adapters
	source := ytdlp.NewSource(cfg.Paths.YtDlp)
	decoder := ffmpeg.NewDecoder(cfg.Paths.FFmpeg, cfg.Paths.FFprobe)
	recognizer := tesseract.NewRecognizer(cfg.Paths.Tesseract)
	manifests := manifest.NewFileStore(fs)
	exporter := export.New(fs, logger)

	opts := []application.ExtractOption{
		application.WithManifests(manifests),
		application.WithAnalysisWidth(cfg.Defaults.AnalysisWidth),
		application.WithLogger(logger),
	}
	// Without tesseract the text signal is disabled rather than failing every frame
	if recognizer.IsAvailable() {
		opts = append(opts, application.WithRecognizer(recognizer))
	}

	// Create services
	extractSvc := application.NewExtractService(source, decoder, slidestore.NewFactory(fs), exporter, opts...)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Source:      source,
		Decoder:     decoder,
		Recognizer:  recognizer,
		Manifests:   manifests,
		ExtractSvc:  extractSvc,
		Coordinator: application.NewCoordinator(extractSvc, logger),
		ReexportSvc: application.NewReexportService(manifests, exporter, logger),
	}
}

var globalApp *App

// GetApp returns the global app instance, creating it if needed
func GetApp(cmd *cobra.Command) (*App, error) {
	if globalApp == nil {
		app, err := NewApp(cmd, newLogger(os.Stderr, verboseFlag, quietFlag))
		if err != nil {
			return nil, err
		}
		globalApp = app
	}
	return globalApp, nil
}
