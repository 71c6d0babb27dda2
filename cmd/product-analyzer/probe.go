package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/menta2k/product-analyzer/internal/config"
	"github.com/menta2k/product-analyzer/internal/utils"
	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/segment"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// probe checks a vision backend: it prints what the model sees and writes
// the detected product box over the input.
func probe(ctx context.Context, cfg *config.Config, sources []string, logger *slog.Logger) error {
	scfg := cfg.SegmentConfig()
	scfg.CacheSize = 0
	seg, err := segment.New(scfg, logger)
	if err != nil {
		return err
	}
	vision, ok := seg.(*segment.Vision)
	if !ok {
		return fmt.Errorf("%w: -probe needs the ollama or llamacpp backend, got %q", types.ErrInvalidInput, cfg.Segmenter.Backend)
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, src := range sources {
		data, err := imageops.ReadSource(ctx, src)
		if err != nil {
			return err
		}

		desc, err := vision.Describe(ctx, data)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		fmt.Printf("%s: model sees: %s\n", src, desc)

		result, img, err := vision.Locate(ctx, data)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		p := result.Primary
		fmt.Printf("%s: primary=%q conf=%.2f box=%.3fx%.3f@%.3f,%.3f tags=%v\n",
			src, p.Label, p.Confidence, p.Box.W, p.Box.H, p.Box.X, p.Box.Y, result.Tags)
		if !result.Found() {
			continue
		}

		overlay, err := boxOverlay(img, p.Box)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		opts := cfg.EncodeOptions()
		out := utils.GenerateOutputFilename(src, cfg.Output.OutputDir, "", "_box", opts.Format)
		if err := imageops.Save(overlay, out, opts); err != nil {
			return err
		}
		logger.Info("wrote probe overlay", "path", out)
	}
	return nil
}

func boxOverlay(img image.Image, box types.Box) (*image.NRGBA, error) {
	canvas, err := imageops.NewCanvas(img)
	if err != nil {
		return nil, err
	}
	defer canvas.Close()
	canvas.DrawBox(box, imageops.BoxColor, 3)
	return canvas.Image()
}
