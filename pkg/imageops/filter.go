package imageops

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// grayOp runs op on a Mat copy of g and returns the single-channel result.
func grayOp(g *image.Gray, op func(src gocv.Mat, dst *gocv.Mat)) (*image.Gray, error) {
	src, err := MatFromGray(g)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	op(src, &dst)
	return GrayFromMat(dst)
}

// maskOp is grayOp for operations whose output is a binary image.
func maskOp(g *image.Gray, op func(src gocv.Mat, dst *gocv.Mat)) (*types.Mask, error) {
	out, err := grayOp(g, op)
	if err != nil {
		return nil, err
	}
	return types.MaskFromGray(out), nil
}

// Gray converts img to an 8-bit luminance image using Rec.601 weights.
func Gray(img image.Image) (*image.Gray, error) {
	bgr, err := MatFromImage(img)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return GrayFromMat(gray)
}

// gaussianKernel returns the odd square kernel whose default sigma is
// sigma: 0.8 gives 3x3 and 1.1 gives 5x5.
func gaussianKernel(sigma float64) image.Point {
	k := int(math.Round(((sigma-0.8)/0.3+1)*2 + 1))
	if k < 3 {
		k = 3
	}
	if k%2 == 0 {
		k++
	}
	return image.Pt(k, k)
}

// BlurGray applies a Gaussian blur to a grayscale image.
func BlurGray(g *image.Gray, sigma float64) (*image.Gray, error) {
	if sigma <= 0 {
		return g, nil
	}
	return grayOp(g, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, gaussianKernel(sigma), sigma, sigma, gocv.BorderDefault)
	})
}

// Smooth applies a light Gaussian blur to a color image.
func Smooth(img image.Image, sigma float64) (*image.NRGBA, error) {
	if sigma <= 0 {
		return imaging.Clone(img), nil
	}
	src, err := MatFromImage(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, gaussianKernel(sigma), sigma, sigma, gocv.BorderDefault)
	return ImageFromMat(blurred)
}

// Otsu thresholds g at the level that maximises between-class variance.
// Pixels strictly above the level form the mask, or the remaining pixels
// when invert is set. A uniform image yields level 0.
func Otsu(g *image.Gray, invert bool) (*types.Mask, uint8, error) {
	typ := gocv.ThresholdBinary
	if invert {
		typ = gocv.ThresholdBinaryInv
	}
	var level float32
	mask, err := maskOp(g, func(src gocv.Mat, dst *gocv.Mat) {
		level = gocv.Threshold(src, dst, 0, 255, typ|gocv.ThresholdOtsu)
	})
	if err != nil {
		return nil, 0, err
	}
	return mask, uint8(level), nil
}

// Edges runs the Canny detector with hysteresis between low and high.
func Edges(g *image.Gray, low, high float64) (*types.Mask, error) {
	return maskOp(g, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Canny(src, dst, float32(low), float32(high))
	})
}
