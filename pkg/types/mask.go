package types

import "image"

// Mask is a binary occupancy grid, one byte per pixel, non-zero where the
// pixel belongs to the subject. Its origin is always (0,0).
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask returns an all-false mask of the given size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// MaskFromGray marks every pixel of g brighter than zero as subject.
func MaskFromGray(g *image.Gray) *Mask {
	return MaskFromGrayFunc(g, func(v uint8) bool { return v > 0 })
}

// MaskFromGrayFunc marks the pixels of g for which keep returns true.
func MaskFromGrayFunc(g *image.Gray, keep func(uint8) bool) *Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+m.Width]
		for x, v := range row {
			if keep(v) {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

// Bounds returns the mask rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// In reports whether (x,y) lies inside the mask.
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At reports whether (x,y) is a subject pixel. Out-of-range points are background.
func (m *Mask) At(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x,y) as subject or background.
func (m *Mask) Set(x, y int, v bool) {
	if !m.In(x, y) {
		return
	}
	if v {
		m.Pix[y*m.Width+x] = 1
	} else {
		m.Pix[y*m.Width+x] = 0
	}
}

// Count returns the number of subject pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether the mask has no subject pixels.
func (m *Mask) Empty() bool {
	for _, v := range m.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// SameSize reports whether r has exactly the mask dimensions.
func (m *Mask) SameSize(r image.Rectangle) bool {
	return r.Dx() == m.Width && r.Dy() == m.Height
}

// Gray renders the mask as a 0/255 grayscale image.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(m.Bounds())
	for i, v := range m.Pix {
		if v != 0 {
			g.Pix[i] = 255
		}
	}
	return g
}
