package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/menta2k/photo-frame/pkg/compositor"
	"github.com/menta2k/photo-frame/pkg/editor"
	"github.com/menta2k/photo-frame/pkg/region"
	"github.com/menta2k/photo-frame/pkg/vision"
)

// Config holds the application configuration
type Config struct {
	Region     RegionConfig     `json:"region"`
	Editor     EditorConfig     `json:"editor"`
	Compositor CompositorConfig `json:"compositor"`
	Output     OutputConfig     `json:"output"`
	Vision     VisionConfig     `json:"vision"`
	Log        LogConfig        `json:"log"`
}

// RegionConfig holds the placeholder sizing rules
type RegionConfig struct {
	MinSize         float64 `json:"min_size" env:"PHOTOFRAME_REGION_MIN_SIZE"`
	DefaultFraction float64 `json:"default_fraction" env:"PHOTOFRAME_REGION_DEFAULT_FRACTION"`
}

// EditorConfig holds configuration for the placeholder editor surface
type EditorConfig struct {
	MaxDisplayWidth  float64 `json:"max_display_width" env:"PHOTOFRAME_EDITOR_MAX_WIDTH"`
	MaxDisplayHeight float64 `json:"max_display_height" env:"PHOTOFRAME_EDITOR_MAX_HEIGHT"`
	HandleSize       float64 `json:"handle_size" env:"PHOTOFRAME_EDITOR_HANDLE_SIZE"`
}

// CompositorConfig holds configuration for rendering
type CompositorConfig struct {
	Interpolation string `json:"interpolation" env:"PHOTOFRAME_INTERPOLATION"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" env:"PHOTOFRAME_OUTPUT_FORMAT"`
	Quality       int    `json:"quality" env:"PHOTOFRAME_OUTPUT_QUALITY"`
	Lossless      bool   `json:"lossless" env:"PHOTOFRAME_OUTPUT_LOSSLESS"`
	OutputDir     string `json:"output_dir" env:"PHOTOFRAME_OUTPUT_DIR"`
}

// VisionConfig holds configuration for subject auto-fit
type VisionConfig struct {
	// Backend is "saliency" (offline), "ollama" or "llamacpp".
	Backend         string  `json:"backend" env:"PHOTOFRAME_VISION_BACKEND"`
	OllamaURL       string  `json:"ollama_url" env:"PHOTOFRAME_OLLAMA_URL"`
	LlamaCppURL     string  `json:"llamacpp_url" env:"PHOTOFRAME_LLAMACPP_URL"`
	Model           string  `json:"model" env:"PHOTOFRAME_VISION_MODEL"`
	TimeoutSeconds  int     `json:"timeout_seconds" env:"PHOTOFRAME_VISION_TIMEOUT"`
	EdgeThreshold   float64 `json:"edge_threshold"`
	MinSubjectRatio float64 `json:"min_subject_ratio"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level" env:"PHOTOFRAME_LOG_LEVEL"`
	Format string `json:"format" env:"PHOTOFRAME_LOG_FORMAT"`
}

// Default returns a configuration with default values
func Default() *Config {
	rc := region.DefaultConfig()
	ec := editor.DefaultConfig()
	sc := vision.DefaultSaliencyConfig()
	return &Config{
		Region: RegionConfig{
			MinSize:         rc.MinSize,
			DefaultFraction: rc.DefaultFraction,
		},
		Editor: EditorConfig{
			MaxDisplayWidth:  ec.MaxDisplayWidth,
			MaxDisplayHeight: ec.MaxDisplayHeight,
			HandleSize:       ec.HandleSize,
		},
		Compositor: CompositorConfig{
			Interpolation: "catmullrom",
		},
		Output: OutputConfig{
			DefaultFormat: "png",
			Quality:       90,
			OutputDir:     "./output",
		},
		Vision: VisionConfig{
			Backend:         "saliency",
			OllamaURL:       "http://localhost:11434",
			LlamaCppURL:     "http://localhost:8080",
			Model:           "llava",
			TimeoutSeconds:  300,
			EdgeThreshold:   sc.EdgeThreshold,
			MinSubjectRatio: sc.MinSubjectRatio,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the file at filename, when it
// exists, and then with PHOTOFRAME_* environment variables.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			if err := cfg.mergeFile(filename); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(filename); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from PHOTOFRAME_* environment variables. Unset
// variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Region.MinSize < 1 {
		return fmt.Errorf("region.min_size must be positive")
	}

	if c.Region.DefaultFraction <= 0 || c.Region.DefaultFraction > 1 {
		return fmt.Errorf("region.default_fraction must be in (0, 1]")
	}

	if c.Editor.MaxDisplayWidth <= 0 || c.Editor.MaxDisplayHeight <= 0 {
		return fmt.Errorf("editor display bounds must be positive")
	}

	if c.Editor.HandleSize < 0 {
		return fmt.Errorf("editor.handle_size must not be negative")
	}

	if _, err := compositor.ParseInterpolation(c.Compositor.Interpolation); err != nil {
		return fmt.Errorf("compositor.interpolation: %w", err)
	}

	if _, err := compositor.ParseFormat(c.Output.DefaultFormat); err != nil {
		return fmt.Errorf("output.default_format: %w", err)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Vision.Backend {
	case "saliency", "ollama", "llamacpp":
	default:
		return fmt.Errorf("vision.backend must be saliency, ollama or llamacpp, got %q", c.Vision.Backend)
	}

	if c.Vision.EdgeThreshold < 0 || c.Vision.EdgeThreshold > 1 {
		return fmt.Errorf("vision.edge_threshold must be between 0 and 1")
	}

	if c.Vision.MinSubjectRatio < 0 || c.Vision.MinSubjectRatio > 1 {
		return fmt.Errorf("vision.min_subject_ratio must be between 0 and 1")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// RegionRules returns the placeholder sizing rules
func (c *Config) RegionRules() region.Config {
	return region.Config{MinSize: c.Region.MinSize, DefaultFraction: c.Region.DefaultFraction}
}

// EditorSettings returns the editor configuration
func (c *Config) EditorSettings() editor.Config {
	return editor.Config{
		MaxDisplayWidth:  c.Editor.MaxDisplayWidth,
		MaxDisplayHeight: c.Editor.MaxDisplayHeight,
		HandleSize:       c.Editor.HandleSize,
		Region:           c.RegionRules(),
	}
}

// CompositorSettings returns the compositor configuration
func (c *Config) CompositorSettings() compositor.Config {
	return compositor.Config{Interpolation: c.Compositor.Interpolation, Region: c.RegionRules()}
}

// EncodeOptions returns the output encoding
func (c *Config) EncodeOptions() (compositor.EncodeOptions, error) {
	f, err := compositor.ParseFormat(c.Output.DefaultFormat)
	if err != nil {
		return compositor.EncodeOptions{}, err
	}
	return compositor.EncodeOptions{Format: f, Quality: c.Output.Quality, Lossless: c.Output.Lossless}, nil
}

// SaliencySettings returns the offline locator configuration
func (c *Config) SaliencySettings() vision.SaliencyConfig {
	sc := vision.DefaultSaliencyConfig()
	sc.EdgeThreshold = c.Vision.EdgeThreshold
	sc.MinSubjectRatio = c.Vision.MinSubjectRatio
	return sc
}

// Timeout returns the vision request timeout
func (v VisionConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSeconds) * time.Second
}

// SlogLevel parses Level as a slog level name
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photo-frame", "config.json")
}
