package imageops

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// AlphaOf extracts the alpha channel of img. The second result is false
// when every pixel is fully opaque.
func AlphaOf(img image.Image) (*image.Alpha, bool) {
	src := imaging.Clone(img)
	b := src.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	translucent := false
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			a := src.Pix[y*src.Stride+x*4+3]
			out.Pix[y*out.Stride+x] = a
			if a != 255 {
				translucent = true
			}
		}
	}
	return out, translucent
}

// MaskFromAlpha marks every pixel with non-zero alpha.
func MaskFromAlpha(a *image.Alpha) *types.Mask {
	b := a.Bounds()
	m := types.NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if a.Pix[y*a.Stride+x] > 0 {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

// CompositeOverWhite blends img over a white background using alpha as the
// opacity. The result has the same size as img and is fully opaque.
func CompositeOverWhite(img image.Image, alpha *image.Alpha) *image.NRGBA {
	src := imaging.Clone(img)
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			si := y*src.Stride + x*4
			a := 255
			if alpha != nil {
				a = int(alpha.Pix[y*alpha.Stride+x])
			}
			for c := 0; c < 3; c++ {
				v := (int(src.Pix[si+c])*a + 255*(255-a) + 127) / 255
				out.Pix[si+c] = uint8(v)
			}
			out.Pix[si+3] = 255
		}
	}
	return out
}
