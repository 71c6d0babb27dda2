package geometry

import (
	"image"

	"gocv.io/x/gocv"
)

// RotatedRect is a rectangle of arbitrary orientation as fitted by OpenCV.
// Width and Height are rounded to whole pixels and Angle is in degrees.
type RotatedRect struct {
	Center image.Point   `json:"center"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Angle  float64       `json:"angle"`
	Points []image.Point `json:"points"`
}

// Area returns Width*Height.
func (r RotatedRect) Area() float64 {
	return r.Width * r.Height
}

// Degenerate reports whether the rectangle has zero area.
func (r RotatedRect) Degenerate() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Polygon returns the four corners in drawing order.
func (r RotatedRect) Polygon() []image.Point {
	out := make([]image.Point, len(r.Points))
	copy(out, r.Points)
	return out
}

// MinAreaRect returns the rotated rectangle of smallest area enclosing pts.
func MinAreaRect(pts []image.Point) RotatedRect {
	if len(pts) == 0 {
		return RotatedRect{}
	}
	pv := gocv.NewPointVectorFromPoints(pts)
	defer pv.Close()
	rr := gocv.MinAreaRect(pv)
	return RotatedRect{
		Center: rr.Center,
		Width:  float64(rr.Width),
		Height: float64(rr.Height),
		Angle:  rr.Angle,
		Points: rr.Points,
	}
}
