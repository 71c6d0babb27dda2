// Package segment provides subject segmentation backends for the
// alpha-matte extraction strategy.
package segment

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/menta2k/product-analyzer/pkg/client"
	"github.com/menta2k/product-analyzer/pkg/detection"
	"github.com/menta2k/product-analyzer/pkg/foreground"
	"github.com/menta2k/product-analyzer/pkg/llamacpp"
	"github.com/menta2k/product-analyzer/pkg/ollama"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// Backend names accepted by New.
const (
	BackendRembg    = "rembg"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
	BackendNone     = "none"
)

// DefaultCacheSize is the number of mattes kept by the cache wrapper.
const DefaultCacheSize = 32

// Endpoints and models used when Config leaves them empty.
const (
	DefaultRembgURL    = "http://localhost:7000"
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultVisionModel = "qwen2.5vl:7b"
)

// Config selects and configures a segmentation backend.
type Config struct {
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
	// Prompt replaces the product locator prompt of vision backends.
	Prompt    string        `json:"prompt,omitempty"`
	Timeout   time.Duration `json:"timeout"`
	CacheSize int           `json:"cache_size"`
}

// New builds the segmenter described by cfg. A "none" backend returns a nil
// segmenter, which leaves only the adaptive-threshold strategy usable.
func New(cfg Config, logger *slog.Logger) (foreground.SubjectSegmenter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultVisionModel
	}

	var seg foreground.SubjectSegmenter
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendRembg:
		r, err := NewRemote(orDefault(cfg.URL, DefaultRembgURL), cfg.Timeout)
		if err != nil {
			return nil, err
		}
		seg = r
	case BackendOllama:
		c, err := ollama.NewClient(orDefault(cfg.URL, DefaultOllamaURL), cfg.Timeout)
		if err != nil {
			return nil, err
		}
		seg = NewVision(newDetector(c, cfg.Prompt), model)
	case BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.URL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		seg = NewVision(newDetector(c, cfg.Prompt), model)
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown segmenter backend %q", types.ErrInvalidInput, cfg.Backend)
	}

	logger.Debug("segmenter configured", "backend", cfg.Backend, "url", cfg.URL, "model", model)

	if cfg.CacheSize <= 0 {
		return seg, nil
	}
	cached, err := NewCached(seg, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func newDetector(c client.VisionClient, prompt string) *detection.Detector {
	d := detection.NewDetector(c)
	d.SetPrompt(prompt)
	return d
}
