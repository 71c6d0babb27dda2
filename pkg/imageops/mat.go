package imageops

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// matFromBytes wraps data in a Mat and returns an owned copy, so the Go
// slice does not need to outlive the result.
func matFromBytes(rows, cols int, mt gocv.MatType, data []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %dx%d matrix: %v", types.ErrInvalidInput, cols, rows, err)
	}
	defer view.Close()
	return view.Clone(), nil
}

// MatFromGray copies g into a single-channel 8-bit Mat.
func MatFromGray(g *image.Gray) (gocv.Mat, error) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := g.Pix
	if g.Stride != w || len(buf) != w*h {
		buf = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(buf[y*w:(y+1)*w], g.Pix[y*g.Stride:])
		}
	}
	return matFromBytes(h, w, gocv.MatTypeCV8UC1, buf)
}

// GrayFromMat copies a single-channel 8-bit Mat into an image.Gray.
func GrayFromMat(mat gocv.Mat) (*image.Gray, error) {
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("expected a single-channel matrix, got %d channels", mat.Channels())
	}
	w, h := mat.Cols(), mat.Rows()
	data := mat.ToBytes()
	if len(data) != w*h {
		return nil, fmt.Errorf("matrix holds %d bytes, want %d", len(data), w*h)
	}
	return &image.Gray{Pix: data, Stride: w, Rect: image.Rect(0, 0, w, h)}, nil
}

// MatFromMask renders m as a 0/255 single-channel Mat.
func MatFromMask(m *types.Mask) (gocv.Mat, error) {
	return MatFromGray(m.Gray())
}

// MaskFromMat marks every non-zero pixel of a single-channel Mat.
func MaskFromMat(mat gocv.Mat) (*types.Mask, error) {
	g, err := GrayFromMat(mat)
	if err != nil {
		return nil, err
	}
	return types.MaskFromGray(g), nil
}

// MatFromImage converts img to a 3-channel BGR Mat. Alpha is dropped.
func MatFromImage(img image.Image) (gocv.Mat, error) {
	src := imaging.Clone(img)
	b := src.Bounds()
	rgba, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, src.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %dx%d image: %v", types.ErrInvalidInput, b.Dx(), b.Dy(), err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// ImageFromMat converts a BGR Mat to an opaque NRGBA image.
func ImageFromMat(mat gocv.Mat) (*image.NRGBA, error) {
	if mat.Channels() != 3 {
		return nil, fmt.Errorf("expected a BGR matrix, got %d channels", mat.Channels())
	}
	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(mat, &rgba, gocv.ColorBGRToRGBA)

	w, h := rgba.Cols(), rgba.Rows()
	data := rgba.ToBytes()
	if len(data) != w*h*4 {
		return nil, fmt.Errorf("matrix holds %d bytes, want %d", len(data), w*h*4)
	}
	return &image.NRGBA{Pix: data, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}
