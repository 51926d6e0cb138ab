package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/devbush/vid2slides/internal/domain"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "VID2SLIDES_"

// Config represents the application configuration
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults" envPrefix:"DEFAULT_"`
	Batch    BatchConfig    `yaml:"batch"    envPrefix:"BATCH_"`
	Paths    PathsConfig    `yaml:"paths"    envPrefix:"PATH_"`
}

// DefaultsConfig holds the default extraction settings
type DefaultsConfig struct {
	Interval      int     `yaml:"interval"       env:"INTERVAL"`  // seconds between samples
	Threshold     float64 `yaml:"threshold"      env:"THRESHOLD"` // SSIM similarity threshold
	Resolution    string  `yaml:"resolution"     env:"RESOLUTION"`
	ExtractText   bool    `yaml:"extract_text"   env:"EXTRACT_TEXT"`
	Format        string  `yaml:"format"         env:"FORMAT"`
	OutputDir     string  `yaml:"output_dir"     env:"OUTPUT_DIR"`
	AnalysisWidth int     `yaml:"analysis_width" env:"ANALYSIS_WIDTH"` // 0 keeps native size
	Archive       bool    `yaml:"archive"        env:"ARCHIVE"`
	PruneImages   bool    `yaml:"prune_images"   env:"PRUNE_IMAGES"`
}

// BatchConfig holds batch scheduling settings
type BatchConfig struct {
	Parallel       bool `yaml:"parallel"        env:"PARALLEL"`
	MaxConcurrency int  `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`
}

// PathsConfig holds custom tool path overrides
type PathsConfig struct {
	YtDlp     string `yaml:"yt_dlp"     env:"YT_DLP"`
	FFmpeg    string `yaml:"ffmpeg"     env:"FFMPEG"`
	FFprobe   string `yaml:"ffprobe"    env:"FFPROBE"`
	Tesseract string `yaml:"tesseract"  env:"TESSERACT"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Interval:   5,
			Threshold:  0.7,
			Resolution: string(domain.ResolutionHighest),
			Format:     string(domain.FormatDocument),
			OutputDir:  "slides",
		},
		Batch: BatchConfig{
			Parallel:       true,
			MaxConcurrency: 3,
		},
	}
}

// AppDir returns the application directory (~/.vid2slides)
func AppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vid2slides"
	}
	return filepath.Join(home, ".vid2slides")
}

// BinDir returns the directory for installed tools
func BinDir() string {
	return filepath.Join(AppDir(), "bin")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(AppDir(), "config.yaml")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{AppDir(), BinDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Load reads config from file, returns default if not exists.
// Environment overrides are applied on top of the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads config from default path
func LoadDefault() (*Config, error) {
	return Load(ConfigPath())
}

// ApplyEnv overrides fields from VID2SLIDES_* environment variables
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Save writes config to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveDefault saves config to default path
func (c *Config) SaveDefault() error {
	return c.Save(ConfigPath())
}

// Validate checks the defaults against the accepted ranges
func (c *Config) Validate() error {
	d := c.Defaults
	if d.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1 second, got %d", domain.ErrConfiguration, d.Interval)
	}
	if d.Threshold < domain.MinThreshold || d.Threshold > domain.MaxThreshold {
		return fmt.Errorf("%w: threshold must be within [%.1f, %.1f], got %g",
			domain.ErrConfiguration, domain.MinThreshold, domain.MaxThreshold, d.Threshold)
	}
	if _, err := domain.ParseResolution(d.Resolution); err != nil {
		return err
	}
	if _, err := domain.ParseExportFormat(d.Format); err != nil {
		return err
	}
	if d.AnalysisWidth < 0 {
		return fmt.Errorf("%w: analysis width must be >= 0, got %d", domain.ErrConfiguration, d.AnalysisWidth)
	}
	if c.Batch.MaxConcurrency < 1 {
		return fmt.Errorf("%w: max concurrency must be >= 1, got %d", domain.ErrConfiguration, c.Batch.MaxConcurrency)
	}
	return nil
}
