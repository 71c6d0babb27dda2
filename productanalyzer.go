// Package productanalyzer measures product photos.
//
// Two measurements share one pipeline: the subject is separated from its
// background, then either the fill ratio of its outline inside the tightest
// rotated rectangle is computed, or the subject's pixels are reduced to a
// small perceptual palette, or both from the same extraction.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		productanalyzer "github.com/menta2k/product-analyzer"
//		"github.com/menta2k/product-analyzer/pkg/types"
//	)
//
//	func main() {
//		a := productanalyzer.New(nil)
//
//		in, err := a.LoadImage(context.Background(), "product.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		report, err := a.AreaRatio(context.Background(), in, types.MethodAdaptiveThreshold)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("area ratio: %.4f\n", report.Area.Ratio)
//	}
//
// The package consists of three main components:
//
// 1. Extractor (pkg/foreground): alpha-matte and adaptive-threshold masks
// 2. Area engine (pkg/arearatio): contour versus minimum-area rectangle
// 3. Quantizer (pkg/colorquant): elbow-selected k-means with perceptual merging
//
// The alpha-matte method needs a segmentation backend from pkg/segment.
package productanalyzer

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/product-analyzer/internal/utils"
	"github.com/menta2k/product-analyzer/pkg/arearatio"
	"github.com/menta2k/product-analyzer/pkg/colorquant"
	"github.com/menta2k/product-analyzer/pkg/foreground"
	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// Version of the product analyzer library
const Version = "1.0.0"

// Config assembles an Analyzer.
type Config struct {
	Extraction foreground.Options
	Colors     colorquant.Options
	// Stroke is the preview line width.
	Stroke int
	// Preview enables the contour overlay on area results.
	Preview   bool
	Segmenter foreground.SubjectSegmenter
	Logger    *slog.Logger
}

// DefaultConfig returns the default tuning with no segmentation backend.
func DefaultConfig() Config {
	return Config{
		Extraction: foreground.DefaultOptions(),
		Colors:     colorquant.DefaultOptions(),
		Stroke:     arearatio.DefaultStroke,
	}
}

// Analyzer runs extract, then measure and/or quantize, then report.
type Analyzer struct {
	extractor *foreground.Extractor
	area      *arearatio.Engine
	quantizer *colorquant.Quantizer
	colors    colorquant.Options
	preview   bool
	logger    *slog.Logger
}

// New creates an Analyzer with default configuration. segmenter may be nil
// when only the adaptive-threshold method is used.
func New(segmenter foreground.SubjectSegmenter) *Analyzer {
	cfg := DefaultConfig()
	cfg.Segmenter = segmenter
	return NewWithConfig(cfg)
}

// NewWithConfig creates an Analyzer with custom configuration
func NewWithConfig(cfg Config) *Analyzer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	extractor := foreground.New(cfg.Extraction, cfg.Segmenter)
	extractor.SetLogger(logger)
	quantizer := colorquant.New()
	quantizer.SetLogger(logger)

	return &Analyzer{
		extractor: extractor,
		area:      &arearatio.Engine{Stroke: cfg.Stroke},
		quantizer: quantizer,
		colors:    cfg.Colors,
		preview:   cfg.Preview,
		logger:    logger,
	}
}

// Report is the outcome of one analysis. Area and Colors are set according
// to the operation that produced it.
type Report struct {
	Method   types.Method        `json:"method"`
	Polarity foreground.Polarity `json:"polarity"`
	Area     *arearatio.Result   `json:"area,omitempty"`
	Colors   *colorquant.Result  `json:"colors,omitempty"`
	Trace    types.Trace         `json:"trace"`
}

// LoadImage reads a file path or http(s) URL into an Input carrying both
// the encoded bytes and the decoded image.
func (a *Analyzer) LoadImage(ctx context.Context, source string) (types.Input, error) {
	img, data, err := imageops.Load(ctx, source)
	if err != nil {
		return types.Input{}, fmt.Errorf("failed to load image: %w", err)
	}
	return types.Input{Data: data, Image: img}, nil
}

// LoadImageFromReader loads an image from an io.Reader
func (a *Analyzer) LoadImageFromReader(reader io.Reader) (types.Input, error) {
	img, data, err := imageops.DecodeReader(reader)
	if err != nil {
		return types.Input{}, fmt.Errorf("failed to load image: %w", err)
	}
	return types.Input{Data: data, Image: img}, nil
}

// AreaRatio extracts the subject and measures how much of its minimum-area
// rectangle it fills. When in.Image is nil, in.Data is decoded here; the
// lower stages expect a decoded image.
func (a *Analyzer) AreaRatio(ctx context.Context, in types.Input, method types.Method) (*Report, error) {
	return a.run(ctx, in, method, true, nil)
}

// Colors extracts the subject and reduces it to a palette. Zero fields in
// opts fall back to the analyzer's configured options. in.Data is decoded
// when in.Image is nil.
func (a *Analyzer) Colors(ctx context.Context, in types.Input, method types.Method, opts colorquant.Options) (*Report, error) {
	return a.run(ctx, in, method, false, &opts)
}

// Analyze computes the area ratio and the palette from a single extraction.
// Like AreaRatio it accepts raw bytes and decodes them once.
func (a *Analyzer) Analyze(ctx context.Context, in types.Input, method types.Method, opts colorquant.Options) (*Report, error) {
	return a.run(ctx, in, method, true, &opts)
}

func (a *Analyzer) run(ctx context.Context, in types.Input, method types.Method, area bool, colors *colorquant.Options) (*Report, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown method %q", types.ErrInvalidInput, method)
	}
	if in.Image == nil && len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: no image supplied", types.ErrInvalidInput)
	}
	if in.Image == nil {
		img, err := imageops.Decode(in.Data)
		if err != nil {
			return nil, err
		}
		in.Image = img
	}
	if err := imageops.Validate(in.Image, 1); err != nil {
		return nil, err
	}

	report := &Report{Method: method, Trace: types.Trace{Method: method}}

	start := time.Now()
	fg, err := a.extractor.Extract(ctx, in, method)
	if err != nil {
		return nil, fmt.Errorf("foreground extraction failed: %w", err)
	}
	report.Polarity = fg.Polarity
	report.Trace.Record("extract", start, "polarity=%s threshold=%d pixels=%d", fg.Polarity, fg.Threshold, fg.Mask.Count())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if area {
		start = time.Now()
		var base image.Image
		if a.preview {
			base = fg.Base
		}
		res, err := a.area.Compute(fg.Mask, base)
		if err != nil {
			return nil, fmt.Errorf("area ratio failed: %w", err)
		}
		report.Area = res
		report.Trace.Record("area", start, "ratio=%.4f contour=%.1f rect=%.1f", res.Ratio, res.ContourArea, res.RectArea)
	}

	if colors != nil {
		start = time.Now()
		res, err := a.quantizer.Quantize(fg.Mask, fg.RGB, a.mergeOptions(*colors))
		if err != nil {
			return nil, fmt.Errorf("color quantization failed: %w", err)
		}
		report.Colors = res
		report.Trace.Record("quantize", start, "k=%d clustered=%d count=%d threshold=%.1f",
			res.SelectedK, res.Clustered, res.Count, res.FinalThreshold)
	}

	a.logger.Info("analysis complete",
		"method", method,
		"stages", len(report.Trace.Stages),
		"elapsed", report.Trace.Total())
	return report, nil
}

// mergeOptions overlays the non-zero fields of opts on the configured
// options.
func (a *Analyzer) mergeOptions(opts colorquant.Options) colorquant.Options {
	base := a.colors
	if opts.MinClusterRatio != 0 {
		base.MinClusterRatio = opts.MinClusterRatio
	}
	if opts.TargetMaxColors != 0 {
		base.TargetMaxColors = opts.TargetMaxColors
	}
	if opts.HardMaxOutputColors != 0 {
		base.HardMaxOutputColors = opts.HardMaxOutputColors
	}
	if opts.MergeThreshold != 0 {
		base.MergeThreshold = opts.MergeThreshold
	}
	if opts.MergeStep != 0 {
		base.MergeStep = opts.MergeStep
	}
	if opts.MergeThresholdMax != 0 {
		base.MergeThresholdMax = opts.MergeThresholdMax
	}
	if opts.NeutralChroma != 0 {
		base.NeutralChroma = opts.NeutralChroma
	}
	if opts.NeutralLightnessCutoff != 0 {
		base.NeutralLightnessCutoff = opts.NeutralLightnessCutoff
	}
	if opts.KMin != 0 {
		base.KMin = opts.KMin
	}
	if opts.KMax != 0 {
		base.KMax = opts.KMax
	}
	if opts.SampleCap != 0 {
		base.SampleCap = opts.SampleCap
	}
	if opts.MaxIterations != 0 {
		base.MaxIterations = opts.MaxIterations
	}
	if opts.Seed != 0 {
		base.Seed = opts.Seed
	}
	if opts.Partitioner != "" {
		base.Partitioner = opts.Partitioner
	}
	return base
}

// WarmUp loads the segmentation model ahead of the first alpha-matte call.
func (a *Analyzer) WarmUp(ctx context.Context) error {
	return a.extractor.WarmUp(ctx)
}

// SavePreview writes the area preview of report into dir under a random
// analysis_<hex> name and returns the path.
func (a *Analyzer) SavePreview(report *Report, dir string, opts imageops.EncodeOptions) (string, error) {
	if report == nil || report.Area == nil || report.Area.Preview == nil {
		return "", fmt.Errorf("%w: report has no preview", types.ErrInvalidInput)
	}
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "png"
		opts.Format = format
	}
	if format == "jpeg" {
		format = "jpg"
	}
	path := filepath.Join(dir, utils.UniqueName("analysis", format))
	if err := imageops.Save(report.Area.Preview, path, opts); err != nil {
		return "", err
	}
	a.logger.Debug("preview saved", "path", path)
	return path, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
