package geometry

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/menta2k/product-analyzer/pkg/types"
)

func rectMask(w, h int, r image.Rectangle) *types.Mask {
	m := types.NewMask(w, h)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

func diskMask(size int, cx, cy, radius float64) *types.Mask {
	m := types.NewMask(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= radius*radius {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

func TestSquareContour(t *testing.T) {
	m := rectMask(4, 4, image.Rect(1, 1, 3, 3))
	cs, err := FindContours(m)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(cs))
	}
	want := map[image.Point]bool{{1, 1}: true, {2, 1}: true, {2, 2}: true, {1, 2}: true}
	if len(cs[0]) != len(want) {
		t.Fatalf("Expected 4 corner points, got %v", cs[0])
	}
	for _, p := range cs[0] {
		if !want[p] {
			t.Errorf("Unexpected contour point %v", p)
		}
	}
	if cs[0].Area() != 1 {
		t.Errorf("Expected area 1, got %f", cs[0].Area())
	}
}

func TestFilledRectangle(t *testing.T) {
	m := rectMask(20, 20, image.Rect(2, 3, 12, 9))
	c, area, err := LargestContour(m)
	if err != nil {
		t.Fatalf("LargestContour failed: %v", err)
	}
	if area != 45 {
		t.Errorf("Expected area 45, got %f", area)
	}
	if b := c.Bounds(); b != image.Rect(2, 3, 12, 9) {
		t.Errorf("Unexpected bounds %v", b)
	}
	r := MinAreaRect(c)
	if math.Abs(r.Area()-45) > 1e-6 {
		t.Errorf("Expected rect area 45, got %f", r.Area())
	}
}

func TestFullFrame(t *testing.T) {
	m := rectMask(16, 10, image.Rect(0, 0, 16, 10))
	c, area, err := LargestContour(m)
	if err != nil {
		t.Fatalf("LargestContour failed: %v", err)
	}
	r := MinAreaRect(c)
	if math.Abs(area/r.Area()-1) > 1e-9 {
		t.Errorf("Expected ratio 1, got %f", area/r.Area())
	}
}

func TestSinglePixel(t *testing.T) {
	m := rectMask(5, 5, image.Rect(2, 2, 3, 3))
	cs, err := FindContours(m)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(cs) != 1 || len(cs[0]) != 1 {
		t.Fatalf("Expected a single one-point contour, got %v", cs)
	}
	if _, _, err := LargestContour(m); !errors.Is(err, types.ErrNoForegroundDetected) {
		t.Errorf("Single pixel should not count as positive area, got %v", err)
	}
}

func TestEmptyMask(t *testing.T) {
	if cs, err := FindContours(types.NewMask(8, 8)); err != nil || len(cs) != 0 {
		t.Errorf("Expected no contours, got %d (%v)", len(cs), err)
	}
	if _, _, err := LargestContour(types.NewMask(8, 8)); !errors.Is(err, types.ErrNoForegroundDetected) {
		t.Errorf("Expected ErrNoForegroundDetected for empty mask, got %v", err)
	}
	if cs, err := FindContours(nil); err != nil || cs != nil {
		t.Errorf("Expected nil result for nil mask, got %v (%v)", cs, err)
	}
}

func TestLargestOfSeveral(t *testing.T) {
	m := rectMask(40, 40, image.Rect(1, 1, 5, 5))
	big := rectMask(40, 40, image.Rect(10, 10, 30, 25))
	for i, v := range big.Pix {
		if v != 0 {
			m.Pix[i] = 1
		}
	}
	cs, err := FindContours(m)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(cs) != 2 {
		t.Fatalf("Expected 2 contours, got %d", len(cs))
	}
	c, area, err := LargestContour(m)
	if err != nil {
		t.Fatalf("LargestContour failed: %v", err)
	}
	if area != 19*14 {
		t.Errorf("Expected area %d, got %f", 19*14, area)
	}
	if b := c.Bounds(); b != image.Rect(10, 10, 30, 25) {
		t.Errorf("Expected the larger rectangle, got bounds %v", b)
	}
}

func TestHoleIsIgnored(t *testing.T) {
	m := rectMask(30, 30, image.Rect(5, 5, 25, 25))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			m.Set(x, y, false)
		}
	}
	cs, err := FindContours(m)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("Expected only the outer contour, got %d", len(cs))
	}
	if a := cs[0].Area(); a != 19*19 {
		t.Errorf("Expected outer area %d, got %f", 19*19, a)
	}
}

func TestDiamondFitsRotatedRect(t *testing.T) {
	m := types.NewMask(41, 41)
	for y := 0; y < 41; y++ {
		for x := 0; x < 41; x++ {
			if abs(x-20)+abs(y-20) <= 10 {
				m.Set(x, y, true)
			}
		}
	}
	c, area, err := LargestContour(m)
	if err != nil {
		t.Fatalf("LargestContour failed: %v", err)
	}
	if math.Abs(area-200) > 1e-9 {
		t.Errorf("Expected diamond area 200, got %f", area)
	}
	r := MinAreaRect(c)
	if ratio := area / r.Area(); ratio < 0.99 {
		t.Errorf("Expected rotated rect to hug the diamond, ratio %f", ratio)
	}
	if math.Abs(math.Mod(math.Abs(r.Angle), 90)-45) > 0.5 {
		t.Errorf("Expected a 45 degree rectangle, got %f", r.Angle)
	}
}

func TestDiskRatio(t *testing.T) {
	m := diskMask(101, 50, 50, 40)
	c, area, err := LargestContour(m)
	if err != nil {
		t.Fatalf("LargestContour failed: %v", err)
	}
	ratio := area / MinAreaRect(c).Area()
	if ratio < 0.74 || ratio > 0.83 {
		t.Errorf("Expected ratio near pi/4, got %f", ratio)
	}
}

func TestCollinearIsDegenerate(t *testing.T) {
	pts := []image.Point{{0, 0}, {5, 0}, {10, 0}, {5, 0}}
	r := MinAreaRect(pts)
	if !r.Degenerate() {
		t.Errorf("Expected degenerate rect, got %+v", r)
	}
	if r.Area() != 0 {
		t.Errorf("Expected zero area, got %f", r.Area())
	}
	if !MinAreaRect(nil).Degenerate() {
		t.Error("Expected empty input to be degenerate")
	}
}

func TestAxisAlignedPolygon(t *testing.T) {
	r := MinAreaRect([]image.Point{{3, 4}, {7, 4}, {7, 6}, {3, 6}})
	if r.Area() != 8 {
		t.Errorf("Expected area 8, got %f", r.Area())
	}
	if r.Center != image.Pt(5, 5) {
		t.Errorf("Expected center (5,5), got %v", r.Center)
	}
	poly := r.Polygon()
	if len(poly) != 4 {
		t.Fatalf("Expected 4 corners, got %v", poly)
	}
	want := map[image.Point]bool{{3, 4}: true, {7, 4}: true, {7, 6}: true, {3, 6}: true}
	for _, p := range poly {
		if !want[p] {
			t.Errorf("Unexpected corner %v", p)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
