// Package config loads and validates the CLI configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/product-analyzer/pkg/colorquant"
	"github.com/menta2k/product-analyzer/pkg/foreground"
	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/segment"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Extraction ExtractionConfig   `json:"extraction"`
	Area       AreaConfig         `json:"area"`
	Colors     colorquant.Options `json:"colors"`
	Segmenter  SegmenterConfig    `json:"segmenter"`
	Output     OutputConfig       `json:"output"`
	Log        LogConfig          `json:"log"`
}

// ExtractionConfig holds configuration for foreground extraction
type ExtractionConfig struct {
	BlurSigma       float64 `json:"blur_sigma"`
	SmoothSigma     float64 `json:"smooth_sigma"`
	EdgeLow         float64 `json:"edge_low"`
	EdgeHigh        float64 `json:"edge_high"`
	OpenIterations  int     `json:"open_iterations"`
	CloseIterations int     `json:"close_iterations"`
	ErodeIterations int     `json:"erode_iterations"`
}

// AreaConfig holds configuration for the area ratio preview
type AreaConfig struct {
	Stroke int `json:"stroke"`
}

// SegmenterConfig selects the alpha-matte backend
type SegmenterConfig struct {
	Backend   string   `json:"backend"`
	URL       string   `json:"url"`
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt,omitempty"`
	Timeout   Duration `json:"timeout"`
	CacheSize int      `json:"cache_size"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	PreviewFormat  string `json:"preview_format"`
	PreviewQuality int    `json:"preview_quality"`
	OutputDir      string `json:"output_dir"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Duration is a time.Duration that reads and writes as a string like "90s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("invalid duration %s", string(b))
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	fg := foreground.DefaultOptions()
	return &Config{
		Extraction: ExtractionConfig{
			BlurSigma:       fg.BlurSigma,
			SmoothSigma:     fg.SmoothSigma,
			EdgeLow:         fg.EdgeLow,
			EdgeHigh:        fg.EdgeHigh,
			OpenIterations:  fg.Refine.Open,
			CloseIterations: fg.Refine.Close,
			ErodeIterations: fg.Refine.Erode,
		},
		Area:   AreaConfig{Stroke: 2},
		Colors: colorquant.DefaultOptions(),
		Segmenter: SegmenterConfig{
			Backend:   segment.BackendRembg,
			URL:       segment.DefaultRembgURL,
			Timeout:   Duration(2 * time.Minute),
			CacheSize: segment.DefaultCacheSize,
		},
		Output: OutputConfig{
			PreviewFormat:  "png",
			PreviewQuality: 92,
			OutputDir:      "./output",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
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
	e := c.Extraction
	if e.BlurSigma <= 0 || e.SmoothSigma <= 0 {
		return invalid("extraction.blur_sigma and extraction.smooth_sigma must be positive")
	}
	if e.EdgeLow < 0 || e.EdgeHigh < e.EdgeLow {
		return invalid("extraction.edge_low must be non-negative and not above edge_high")
	}
	if e.OpenIterations < 0 || e.CloseIterations < 0 || e.ErodeIterations < 0 {
		return invalid("extraction iteration counts cannot be negative")
	}

	if c.Area.Stroke < 1 {
		return invalid("area.stroke must be positive")
	}

	if err := c.Colors.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("colors: %w", err)
	}

	switch strings.ToLower(c.Segmenter.Backend) {
	case segment.BackendRembg, segment.BackendOllama, segment.BackendLlamaCpp, segment.BackendNone:
	default:
		return invalid("segmenter.backend must be one of rembg, ollama, llamacpp, none")
	}
	if c.Segmenter.Timeout < 0 {
		return invalid("segmenter.timeout cannot be negative")
	}
	if c.Segmenter.CacheSize < 0 {
		return invalid("segmenter.cache_size cannot be negative")
	}

	switch strings.ToLower(c.Output.PreviewFormat) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return invalid("output.preview_format must be png, jpg or webp")
	}
	if c.Output.PreviewQuality < 1 || c.Output.PreviewQuality > 100 {
		return invalid("output.preview_quality must be between 1 and 100")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", types.ErrInvalidInput, msg)
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, invalid(fmt.Sprintf("unknown log level %q", s))
	}
	return l, nil
}

// ForegroundOptions converts the extraction section.
func (c *Config) ForegroundOptions() foreground.Options {
	e := c.Extraction
	return foreground.Options{
		BlurSigma:   e.BlurSigma,
		SmoothSigma: e.SmoothSigma,
		EdgeLow:     e.EdgeLow,
		EdgeHigh:    e.EdgeHigh,
		Refine: imageops.RefineOptions{
			Open:  e.OpenIterations,
			Close: e.CloseIterations,
			Erode: e.ErodeIterations,
		},
	}
}

// SegmentConfig converts the segmenter section.
func (c *Config) SegmentConfig() segment.Config {
	s := c.Segmenter
	return segment.Config{
		Backend:   s.Backend,
		URL:       s.URL,
		Model:     s.Model,
		Prompt:    s.Prompt,
		Timeout:   time.Duration(s.Timeout),
		CacheSize: s.CacheSize,
	}
}

// EncodeOptions converts the output section.
func (c *Config) EncodeOptions() imageops.EncodeOptions {
	return imageops.EncodeOptions{
		Format:  c.Output.PreviewFormat,
		Quality: c.Output.PreviewQuality,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "product-analyzer", "config.json")
}
