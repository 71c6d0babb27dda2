package imageops

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// RefineOptions sets the iteration counts of each refinement step.
type RefineOptions struct {
	Open  int
	Close int
	Erode int
}

// DefaultRefine is one opening, two closings and one final erosion.
var DefaultRefine = RefineOptions{Open: 1, Close: 2, Erode: 1}

// morpher applies 3x3 rectangular morphology to a 0/255 Mat in place.
// OpenCV's default border makes pixels outside the frame count as subject
// for erosion and as background for dilation.
type morpher struct {
	kernel gocv.Mat
}

func newMorpher() *morpher {
	return &morpher{kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))}
}

func (p *morpher) Close() error {
	return p.kernel.Close()
}

func (p *morpher) erode(m *gocv.Mat, n int) {
	for i := 0; i < n; i++ {
		gocv.Erode(*m, m, p.kernel)
	}
}

func (p *morpher) dilate(m *gocv.Mat, n int) {
	for i := 0; i < n; i++ {
		gocv.Dilate(*m, m, p.kernel)
	}
}

// morphologyEx matches cv::morphologyEx with n iterations: n erosions then
// n dilations for an opening, the reverse for a closing.
func (p *morpher) morphologyEx(m *gocv.Mat, op gocv.MorphType, n int) {
	switch {
	case n <= 0:
	case n == 1:
		gocv.MorphologyEx(*m, m, op, p.kernel)
	case op == gocv.MorphOpen:
		p.erode(m, n)
		p.dilate(m, n)
	default:
		p.dilate(m, n)
		p.erode(m, n)
	}
}

// apply converts m, runs fn on it and converts back.
func apply(m *types.Mask, fn func(p *morpher, mat *gocv.Mat)) (*types.Mask, error) {
	mat, err := MatFromMask(m)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	p := newMorpher()
	defer p.Close()
	fn(p, &mat)
	return MaskFromMat(mat)
}

// Erode applies a 3x3 erosion. Pixels outside the frame count as subject,
// so a mask touching the border is not eaten from that side.
func Erode(m *types.Mask) (*types.Mask, error) {
	return apply(m, func(p *morpher, mat *gocv.Mat) { p.erode(mat, 1) })
}

// Dilate applies a 3x3 dilation. Pixels outside the frame count as background.
func Dilate(m *types.Mask) (*types.Mask, error) {
	return apply(m, func(p *morpher, mat *gocv.Mat) { p.dilate(mat, 1) })
}

// Open erodes n times then dilates n times, removing specks.
func Open(m *types.Mask, n int) (*types.Mask, error) {
	return apply(m, func(p *morpher, mat *gocv.Mat) { p.morphologyEx(mat, gocv.MorphOpen, n) })
}

// Close dilates n times then erodes n times, filling small holes.
func Close(m *types.Mask, n int) (*types.Mask, error) {
	return apply(m, func(p *morpher, mat *gocv.Mat) { p.morphologyEx(mat, gocv.MorphClose, n) })
}

// Refine cleans a raw mask: open, then close, then erode.
func Refine(m *types.Mask, opts RefineOptions) (*types.Mask, error) {
	return apply(m, func(p *morpher, mat *gocv.Mat) {
		p.morphologyEx(mat, gocv.MorphOpen, opts.Open)
		p.morphologyEx(mat, gocv.MorphClose, opts.Close)
		p.erode(mat, opts.Erode)
	})
}
