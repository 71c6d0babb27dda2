// Package geometry finds mask contours and fits minimum-area rectangles.
package geometry

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// Contour is the outer boundary of one 8-connected component, with runs of
// collinear boundary pixels compressed to their end points.
type Contour []image.Point

// withVector runs fn on a temporary PointVector holding c.
func (c Contour) withVector(fn func(pv gocv.PointVector)) {
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	fn(pv)
}

// Area returns the polygon area enclosed by the contour.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var area float64
	c.withVector(func(pv gocv.PointVector) { area = gocv.ContourArea(pv) })
	return area
}

// Bounds returns the smallest rectangle containing every contour pixel.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	var r image.Rectangle
	c.withVector(func(pv gocv.PointVector) { r = gocv.BoundingRect(pv) })
	return r
}

// FindContours returns the outer boundary of every 8-connected component
// of m in OpenCV's retrieval order.
func FindContours(m *types.Mask) ([]Contour, error) {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return nil, nil
	}
	mat, err := imageops.MatFromMask(m)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()
	pts := found.ToPoints()
	out := make([]Contour, len(pts))
	for i, p := range pts {
		out[i] = Contour(p)
	}
	return out, nil
}

// LargestContour returns the contour with the greatest positive area. The
// first contour wins ties. It returns ErrNoForegroundDetected when no
// contour encloses any area.
func LargestContour(m *types.Mask) (Contour, float64, error) {
	contours, err := FindContours(m)
	if err != nil {
		return nil, 0, err
	}
	var best Contour
	bestArea := 0.0
	for _, c := range contours {
		if a := c.Area(); a > bestArea {
			best, bestArea = c, a
		}
	}
	if best == nil {
		return nil, 0, types.ErrNoForegroundDetected
	}
	return best, bestArea, nil
}
