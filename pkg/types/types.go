// Package types holds the data model shared by the extraction, geometry and
// color quantization packages.
package types

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Method selects the foreground extraction strategy.
type Method string

const (
	// MethodAlphaMatte delegates to a subject segmentation backend that
	// produces a per-pixel alpha channel. Requires encoded bytes.
	MethodAlphaMatte Method = "alpha-matte"
	// MethodAdaptiveThreshold binarizes a blurred grayscale image with Otsu's
	// threshold in both polarities. Requires decoded pixels.
	MethodAdaptiveThreshold Method = "adaptive-threshold"
)

// Methods returns every recognized extraction method.
func Methods() []Method {
	return []Method{MethodAlphaMatte, MethodAdaptiveThreshold}
}

// ParseMethod converts a selector string into a Method. Unrecognized values
// are rejected, never defaulted.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidInput, s)
	}
	return m, nil
}

// Valid reports whether m is a recognized method.
func (m Method) Valid() bool {
	return m == MethodAlphaMatte || m == MethodAdaptiveThreshold
}

func (m Method) String() string {
	return string(m)
}

// Input carries the image representations supplied by the caller. The
// alpha-matte method needs Data, the adaptive-threshold method needs Image.
type Input struct {
	Data  []byte
	Image image.Image
}

// Swatch is one palette entry.
type Swatch struct {
	Color  color.RGBA `json:"-"`
	RGB    [3]uint8   `json:"rgb"`
	Weight int        `json:"count"`
	Ratio  float64    `json:"ratio"`
}

// NewSwatch builds a swatch from an 8-bit color and its pixel weight.
func NewSwatch(rgb [3]uint8, weight, total int) Swatch {
	ratio := 0.0
	if total > 0 {
		ratio = float64(weight) / float64(total)
	}
	return Swatch{
		Color:  color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255},
		RGB:    rgb,
		Weight: weight,
		Ratio:  ratio,
	}
}

// Hex returns the swatch color as #rrggbb.
func (s Swatch) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", s.RGB[0], s.RGB[1], s.RGB[2])
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pixels converts the box into a pixel rectangle clipped to bounds.
func (b Box) Pixels(bounds image.Rectangle) image.Rectangle {
	fw, fh := float64(bounds.Dx()), float64(bounds.Dy())
	x0 := bounds.Min.X + int(clamp01(b.X)*fw+0.5)
	y0 := bounds.Min.Y + int(clamp01(b.Y)*fh+0.5)
	x1 := bounds.Min.X + int(clamp01(b.X+b.W)*fw+0.5)
	y1 := bounds.Min.Y + int(clamp01(b.Y+b.H)*fh+0.5)
	return image.Rect(x0, y0, x1, y1).Intersect(bounds)
}

// Primary represents the primary subject detected in an image
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// AnalysisResult contains the subject location returned by a vision model
type AnalysisResult struct {
	Primary     Primary  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Found reports whether the model located a subject.
func (r *AnalysisResult) Found() bool {
	return r != nil && !strings.EqualFold(r.Primary.Label, "none") &&
		r.Primary.Box.W > 0 && r.Primary.Box.H > 0
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
