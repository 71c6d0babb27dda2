package foreground

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/product-analyzer/pkg/geometry"
	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// AlphaMatte builds the mask from a segmentation backend's alpha channel.
type AlphaMatte struct {
	Segmenter SubjectSegmenter
	Options   Options
}

func (a *AlphaMatte) Method() types.Method { return types.MethodAlphaMatte }

// Extract segments in.Data. in.Image is used as the color source when set,
// otherwise the bytes are decoded.
func (a *AlphaMatte) Extract(ctx context.Context, in types.Input) (*Result, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: %s requires encoded image bytes", types.ErrInvalidInput, types.MethodAlphaMatte)
	}
	if a.Segmenter == nil {
		return nil, fmt.Errorf("%w: no segmentation backend configured", types.ErrModelUnavailable)
	}

	img := in.Image
	if img == nil {
		var err error
		if img, err = imageops.Decode(in.Data); err != nil {
			return nil, err
		}
	}

	alpha, err := a.Segmenter.Segment(ctx, in.Data)
	if err != nil {
		if errors.Is(err, types.ErrModelUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", types.ErrModelUnavailable, err)
	}
	if alpha == nil {
		return nil, fmt.Errorf("%w: backend returned no alpha", types.ErrModelUnavailable)
	}
	ab, ib := alpha.Bounds(), img.Bounds()
	if ab.Dx() != ib.Dx() || ab.Dy() != ib.Dy() {
		return nil, fmt.Errorf("%w: alpha %dx%d does not match image %dx%d",
			types.ErrModelUnavailable, ab.Dx(), ab.Dy(), ib.Dx(), ib.Dy())
	}
	if ab.Min != (image.Point{}) {
		alpha = rebase(alpha)
	}

	opts := a.Options
	mask, err := imageops.Refine(imageops.MaskFromAlpha(alpha), opts.Refine)
	if err != nil {
		return nil, err
	}
	rgb, err := imageops.Smooth(imageops.CompositeOverWhite(img, alpha), opts.SmoothSigma)
	if err != nil {
		return nil, err
	}
	return &Result{
		Mask:     mask,
		RGB:      rgb,
		Base:     rgb,
		Polarity: PolarityAlpha,
	}, nil
}

func rebase(a *image.Alpha) *image.Alpha {
	b := a.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], a.Pix[a.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}

// AdaptiveThreshold builds the mask with Otsu's threshold on the blurred
// grayscale image.
type AdaptiveThreshold struct {
	Options Options
}

func (a *AdaptiveThreshold) Method() types.Method { return types.MethodAdaptiveThreshold }

// Extract thresholds in.Image in both polarities and keeps the one whose
// refined mask holds the larger contour, preferring bright on ties. When
// neither polarity has a contour, dilated edges are used instead.
func (a *AdaptiveThreshold) Extract(ctx context.Context, in types.Input) (*Result, error) {
	if in.Image == nil {
		return nil, fmt.Errorf("%w: %s requires decoded pixels", types.ErrInvalidInput, types.MethodAdaptiveThreshold)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := a.Options
	img := in.Image

	gray, err := imageops.Gray(img)
	if err != nil {
		return nil, err
	}
	if gray, err = imageops.BlurGray(gray, opts.BlurSigma); err != nil {
		return nil, err
	}

	bright, t, err := a.polarity(gray, false)
	if err != nil {
		return nil, err
	}
	dark, _, err := a.polarity(gray, true)
	if err != nil {
		return nil, err
	}
	brightArea, brightOK, err := largestArea(bright)
	if err != nil {
		return nil, err
	}
	darkArea, darkOK, err := largestArea(dark)
	if err != nil {
		return nil, err
	}

	rgb, err := imageops.Smooth(img, opts.SmoothSigma)
	if err != nil {
		return nil, err
	}
	res := &Result{
		RGB:       rgb,
		Base:      img,
		Threshold: t,
	}
	switch {
	case brightOK && brightArea >= darkArea:
		res.Mask, res.Polarity = bright, PolarityBright
	case darkOK:
		res.Mask, res.Polarity = dark, PolarityDark
	default:
		edges, err := imageops.Edges(gray, opts.EdgeLow, opts.EdgeHigh)
		if err != nil {
			return nil, err
		}
		if edges, err = imageops.Dilate(edges); err != nil {
			return nil, err
		}
		if _, ok, err := largestArea(edges); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%w: neither threshold polarity nor edges produced a contour", types.ErrNoForegroundDetected)
		}
		res.Mask, res.Polarity = edges, PolarityEdges
	}
	return res, nil
}

// polarity thresholds gray with Otsu's level on one side and refines the
// result.
func (a *AdaptiveThreshold) polarity(gray *image.Gray, dark bool) (*types.Mask, uint8, error) {
	raw, t, err := imageops.Otsu(gray, dark)
	if err != nil {
		return nil, 0, err
	}
	mask, err := imageops.Refine(raw, a.Options.Refine)
	if err != nil {
		return nil, 0, err
	}
	return mask, t, nil
}

// largestArea reports the area of the largest contour in m. ok is false
// when m has no contour with positive area.
func largestArea(m *types.Mask) (float64, bool, error) {
	_, area, err := geometry.LargestContour(m)
	switch {
	case errors.Is(err, types.ErrNoForegroundDetected):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return area, true, nil
}
