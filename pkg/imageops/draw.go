package imageops

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/menta2k/product-analyzer/pkg/types"
)

var (
	// ContourColor outlines the subject contour in previews.
	ContourColor = color.RGBA{0, 255, 0, 255}
	// RectColor outlines the minimum-area rectangle in previews.
	RectColor = color.RGBA{255, 0, 0, 255}
	// BoxColor outlines a detector bounding box in debug overlays.
	BoxColor = color.RGBA{255, 204, 0, 255}
)

// Canvas is a BGR drawing surface. Close must be called to release it.
type Canvas struct {
	mat gocv.Mat
}

// NewCanvas copies img onto a new canvas with its origin at (0,0).
func NewCanvas(img image.Image) (*Canvas, error) {
	mat, err := MatFromImage(img)
	if err != nil {
		return nil, err
	}
	return &Canvas{mat: mat}, nil
}

// Close releases the underlying matrix.
func (c *Canvas) Close() error {
	return c.mat.Close()
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.mat.Cols(), c.mat.Rows())
}

// DrawContour draws pts as a closed contour.
func (c *Canvas) DrawContour(pts []image.Point, col color.RGBA, stroke int) {
	if len(pts) == 0 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.DrawContours(&c.mat, pv, -1, col, max(stroke, 1))
}

// DrawPolygon draws a closed polyline through pts.
func (c *Canvas) DrawPolygon(pts []image.Point, col color.RGBA, stroke int) {
	if len(pts) == 0 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.Polylines(&c.mat, pv, true, col, max(stroke, 1))
}

// DrawBox outlines a normalized box.
func (c *Canvas) DrawBox(box types.Box, col color.RGBA, stroke int) {
	r := box.Pixels(c.Bounds())
	if r.Empty() {
		return
	}
	// cv::rectangle treats both corners as inclusive.
	gocv.Rectangle(&c.mat, image.Rect(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1), col, max(stroke, 1))
}

// Image renders the canvas as an opaque NRGBA image.
func (c *Canvas) Image() (*image.NRGBA, error) {
	return ImageFromMat(c.mat)
}
