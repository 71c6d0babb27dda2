package colorquant

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// lab is a CIE L*a*b* color on the conventional scale: L in 0..100, a and b
// roughly -128..127.
type lab struct {
	L, A, B float64
}

// go-colorful works on L in 0..1 and scales a/b by the same factor.
const labScale = 100

func labOf(rgb [3]uint8) lab {
	c := colorful.Color{R: float64(rgb[0]) / 255, G: float64(rgb[1]) / 255, B: float64(rgb[2]) / 255}
	l, a, b := c.Lab()
	return lab{L: l * labScale, A: a * labScale, B: b * labScale}
}

func (l lab) color() colorful.Color {
	return colorful.Lab(l.L/labScale, l.A/labScale, l.B/labScale)
}

// chroma is the distance from the neutral axis.
func (l lab) chroma() float64 {
	return math.Hypot(l.A, l.B)
}

func (l lab) rgb() [3]uint8 {
	r, g, b := l.color().Clamped().RGB255()
	return [3]uint8{r, g, b}
}

// deltaE returns the CIEDE2000 difference in the usual JND units.
func deltaE(a, b lab) float64 {
	return a.color().DistanceCIEDE2000(b.color()) * labScale
}

// labCache memoizes conversions of packed 0xRRGGBB colors.
type labCache map[uint32]lab

func pack(rgb [3]uint8) uint32 {
	return uint32(rgb[0])<<16 | uint32(rgb[1])<<8 | uint32(rgb[2])
}

func unpack(v uint32) [3]uint8 {
	return [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

func (c labCache) get(key uint32) lab {
	if l, ok := c[key]; ok {
		return l
	}
	l := labOf(unpack(key))
	c[key] = l
	return l
}
