// Package arearatio measures how much of its minimum-area rotated bounding
// rectangle the dominant foreground region occupies.
package arearatio

import (
	"fmt"
	"image"

	"github.com/menta2k/product-analyzer/pkg/geometry"
	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// DefaultStroke is the line width used in previews.
const DefaultStroke = 2

// Result holds the measurement and the geometry it was derived from.
type Result struct {
	Ratio       float64              `json:"ratio"`
	ContourArea float64              `json:"contour_area"`
	RectArea    float64              `json:"rect_area"`
	Rect        geometry.RotatedRect `json:"rect"`
	Contour     geometry.Contour     `json:"-"`
	Preview     *image.NRGBA         `json:"-"`
}

// Engine computes area ratios. The zero value is usable.
type Engine struct {
	// Stroke is the preview line width; zero means DefaultStroke.
	Stroke int
}

// New creates an engine with default settings
func New() *Engine {
	return &Engine{Stroke: DefaultStroke}
}

// Compute selects the largest contour in mask and relates its area to the
// area of its minimum rotated rectangle. When base is non-nil a preview with
// the contour and rectangle drawn over base is attached to the result.
func (e *Engine) Compute(mask *types.Mask, base image.Image) (*Result, error) {
	if mask == nil {
		return nil, fmt.Errorf("%w: nil mask", types.ErrInvalidInput)
	}
	if base != nil && !mask.SameSize(base.Bounds()) {
		return nil, fmt.Errorf("%w: mask %dx%d does not match image %dx%d", types.ErrInvalidInput,
			mask.Width, mask.Height, base.Bounds().Dx(), base.Bounds().Dy())
	}

	contour, area, err := geometry.LargestContour(mask)
	if err != nil {
		return nil, err
	}

	rect := geometry.MinAreaRect(contour)
	res := &Result{
		ContourArea: area,
		RectArea:    rect.Area(),
		Rect:        rect,
		Contour:     contour,
	}
	if !rect.Degenerate() {
		res.Ratio = clamp01(area / rect.Area())
	}

	if base != nil {
		if res.Preview, err = e.Preview(base, contour, rect); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Preview draws the contour in green and the rotated rectangle in red on a
// copy of base.
func (e *Engine) Preview(base image.Image, contour geometry.Contour, rect geometry.RotatedRect) (*image.NRGBA, error) {
	stroke := e.Stroke
	if stroke <= 0 {
		stroke = DefaultStroke
	}
	canvas, err := imageops.NewCanvas(base)
	if err != nil {
		return nil, err
	}
	defer canvas.Close()
	canvas.DrawContour(contour, imageops.ContourColor, stroke)
	canvas.DrawPolygon(rect.Polygon(), imageops.RectColor, stroke)
	return canvas.Image()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
