// Package foreground separates the product from its background. Two
// strategies share one refinement step so their masks are comparable: an
// alpha matte from a subject segmentation backend, and Otsu thresholding of
// the blurred grayscale image in both polarities.
package foreground

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// SubjectSegmenter produces a per-pixel alpha channel for encoded image
// bytes. The alpha must have the decoded image's dimensions.
type SubjectSegmenter interface {
	Segment(ctx context.Context, data []byte) (*image.Alpha, error)
}

// Warmer is implemented by segmenters that can load their model ahead of
// the first request.
type Warmer interface {
	WarmUp(ctx context.Context) error
}

// Options tunes both strategies.
type Options struct {
	// BlurSigma is the Gaussian sigma applied to grayscale before Otsu.
	BlurSigma float64
	// SmoothSigma is the Gaussian sigma applied to the reconstructed RGB.
	SmoothSigma float64
	EdgeLow     float64
	EdgeHigh    float64
	Refine      imageops.RefineOptions
}

// DefaultOptions approximates a 5x5 Gaussian for grayscale and a 3x3 one
// for color smoothing.
func DefaultOptions() Options {
	return Options{
		BlurSigma:   1.1,
		SmoothSigma: 0.8,
		EdgeLow:     50,
		EdgeHigh:    150,
		Refine:      imageops.DefaultRefine,
	}
}

// Polarity records which threshold side was taken as foreground.
type Polarity string

const (
	PolarityBright Polarity = "bright"
	PolarityDark   Polarity = "dark"
	PolarityEdges  Polarity = "edges"
	PolarityAlpha  Polarity = "alpha"
)

// Result is the outcome of an extraction.
type Result struct {
	Method types.Method
	// Mask marks subject pixels.
	Mask *types.Mask
	// RGB is the smoothed color reconstruction used for sampling.
	RGB *image.NRGBA
	// Base is the image previews are drawn on: the original pixels for
	// adaptive-threshold, the smoothed white composite for alpha-matte.
	Base image.Image

	Polarity  Polarity
	Threshold uint8
	Elapsed   time.Duration
}

// Strategy is one way of producing a Result.
type Strategy interface {
	Method() types.Method
	Extract(ctx context.Context, in types.Input) (*Result, error)
}

// Extractor dispatches to the strategy registered for a method.
type Extractor struct {
	strategies map[types.Method]Strategy
	segmenter  SubjectSegmenter
	logger     *slog.Logger
}

// New creates an extractor with both strategies. segmenter may be nil, in
// which case the alpha-matte method reports ErrModelUnavailable.
func New(opts Options, segmenter SubjectSegmenter) *Extractor {
	e := &Extractor{
		strategies: make(map[types.Method]Strategy, 2),
		segmenter:  segmenter,
		logger:     slog.New(slog.DiscardHandler),
	}
	e.Register(&AlphaMatte{Segmenter: segmenter, Options: opts})
	e.Register(&AdaptiveThreshold{Options: opts})
	return e
}

// SetLogger sets the logger used for debug output.
func (e *Extractor) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Register replaces the strategy for s.Method().
func (e *Extractor) Register(s Strategy) {
	e.strategies[s.Method()] = s
}

// Extract runs the strategy registered for method.
func (e *Extractor) Extract(ctx context.Context, in types.Input, method types.Method) (*Result, error) {
	s, ok := e.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", types.ErrInvalidInput, method)
	}
	start := time.Now()
	res, err := s.Extract(ctx, in)
	if err != nil {
		e.logger.Debug("extraction failed", "method", method, "error", err)
		return nil, err
	}
	res.Method = method
	res.Elapsed = time.Since(start)
	e.logger.Debug("foreground extracted",
		"method", method,
		"polarity", res.Polarity,
		"pixels", res.Mask.Count(),
		"elapsed", res.Elapsed)
	return res, nil
}

// WarmUp loads the segmentation model when the backend supports it.
func (e *Extractor) WarmUp(ctx context.Context) error {
	if e.segmenter == nil {
		return fmt.Errorf("%w: no segmentation backend configured", types.ErrModelUnavailable)
	}
	w, ok := e.segmenter.(Warmer)
	if !ok {
		return nil
	}
	start := time.Now()
	if err := w.WarmUp(ctx); err != nil {
		return err
	}
	e.logger.Info("segmentation backend ready", "elapsed", time.Since(start))
	return nil
}
