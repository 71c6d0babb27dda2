package segment

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/product-analyzer/pkg/detection"
	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// Vision builds a matte from a vision model's bounding box. Pixels inside
// the box are opaque in proportion to how far their color is from the
// backdrop; everything outside the box is transparent.
type Vision struct {
	detector *detection.Detector
	model    string

	// Low and High bound the CIEDE2000 ramp from transparent to opaque.
	Low  float64
	High float64
	// MaxDim caps the long side of the image sent to the model.
	MaxDim int
}

// NewVision creates a segmenter that asks model through detector.
func NewVision(detector *detection.Detector, model string) *Vision {
	return &Vision{
		detector: detector,
		model:    model,
		Low:      10,
		High:     25,
		MaxDim:   1024,
	}
}

// Segment implements foreground.SubjectSegmenter.
func (v *Vision) Segment(ctx context.Context, data []byte) (*image.Alpha, error) {
	result, src, err := v.Locate(ctx, data)
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()

	alpha := image.NewAlpha(bounds)
	if !result.Found() {
		return alpha, nil
	}
	box := result.Primary.Box.Pixels(bounds)
	if box.Empty() {
		return alpha, nil
	}

	backdrop := Backdrop(src, box)
	matteBox(alpha, src, box, backdrop, v.Low, v.High)
	return alpha, nil
}

// Locate decodes data and asks the model for the product box. The decoded
// image is returned with its origin at (0,0).
func (v *Vision) Locate(ctx context.Context, data []byte) (*types.AnalysisResult, *image.NRGBA, error) {
	src, b64, err := v.prepare(data)
	if err != nil {
		return nil, nil, err
	}
	result, err := v.detector.DetectProduct(ctx, v.model, b64)
	if err != nil {
		return nil, nil, fmt.Errorf("vision segmentation: %w", err)
	}
	return result, src, nil
}

// Describe asks the model for a free-form description, which shows whether
// it receives the image at all.
func (v *Vision) Describe(ctx context.Context, data []byte) (string, error) {
	_, b64, err := v.prepare(data)
	if err != nil {
		return "", err
	}
	return v.detector.TestVision(ctx, v.model, b64)
}

func (v *Vision) prepare(data []byte) (*image.NRGBA, string, error) {
	img, err := imageops.Decode(data)
	if err != nil {
		return nil, "", err
	}
	src := imaging.Clone(img)
	b64, err := imageops.PrepareForModel(src, "jpg", v.MaxDim, 85)
	if err != nil {
		return nil, "", fmt.Errorf("failed to prepare image for model: %w", err)
	}
	return src, b64, nil
}

// WarmUp loads the model on the vision server.
func (v *Vision) WarmUp(ctx context.Context) error {
	return v.detector.WarmUp(ctx, v.model)
}

// Backdrop estimates the background color from a strip along the frame
// edges, skipping pixels that fall inside box.
func Backdrop(img *image.NRGBA, box image.Rectangle) color.RGBA {
	b := img.Bounds()
	strip := max(2, min(b.Dx(), b.Dy())/20)
	inner := b.Inset(strip)

	var ring []color.NRGBA
	collect := func(skipBox bool) {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				p := image.Pt(x, y)
				if p.In(inner) || skipBox && p.In(box) {
					continue
				}
				ring = append(ring, img.NRGBAAt(x, y))
			}
		}
	}
	collect(true)
	if len(ring) == 0 {
		collect(false)
	}
	if len(ring) == 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	// Lay the ring out as a square tile so the color finder sees only it.
	side := int(math.Ceil(math.Sqrt(float64(len(ring)))))
	tile := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < side*side; i++ {
		tile.SetNRGBA(i%side, i/side, ring[i%len(ring)])
	}

	best := dominantcolor.Color{RGBA: color.RGBA{R: 255, G: 255, B: 255, A: 255}}
	for _, c := range dominantcolor.FindWeight(tile, 3) {
		if c.Weight > best.Weight {
			best = c
		}
	}
	best.RGBA.A = 255
	return best.RGBA
}

func matteBox(alpha *image.Alpha, img *image.NRGBA, box image.Rectangle, backdrop color.RGBA, lo, hi float64) {
	bg, _ := colorful.MakeColor(backdrop)
	if hi <= lo {
		hi = lo + 1
	}
	dist := make(map[uint32]uint8)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
			a, ok := dist[key]
			if !ok {
				px := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
				d := px.DistanceCIEDE2000(bg) * 100
				a = ramp(d, lo, hi)
				dist[key] = a
			}
			alpha.SetAlpha(x, y, color.Alpha{A: a})
		}
	}
}

func ramp(d, lo, hi float64) uint8 {
	switch {
	case d <= lo:
		return 0
	case d >= hi:
		return 255
	}
	return uint8(math.Round((d - lo) / (hi - lo) * 255))
}
