package arearatio

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// createTestImage creates a uniform gray image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func fullMask(w, h int) *types.Mask {
	m := types.NewMask(w, h)
	for i := range m.Pix {
		m.Pix[i] = 1
	}
	return m
}

func TestFullFrameRatio(t *testing.T) {
	res, err := New().Compute(fullMask(64, 48), nil)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if math.Abs(res.Ratio-1) > 1e-9 {
		t.Errorf("Expected ratio 1.0, got %f", res.Ratio)
	}
	if res.Preview != nil {
		t.Error("Expected no preview without a base image")
	}
}

func TestInscribedCircleRatio(t *testing.T) {
	const size = 200
	m := types.NewMask(size, size)
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy <= c*c {
				m.Set(x, y, true)
			}
		}
	}
	res, err := New().Compute(m, nil)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if math.Abs(res.Ratio-math.Pi/4) > 0.03 {
		t.Errorf("Expected ratio near %f, got %f", math.Pi/4, res.Ratio)
	}
}

func TestEmptyMask(t *testing.T) {
	_, err := New().Compute(types.NewMask(10, 10), nil)
	if !errors.Is(err, types.ErrNoForegroundDetected) {
		t.Errorf("Expected ErrNoForegroundDetected, got %v", err)
	}
}

func TestThinLineHasNoArea(t *testing.T) {
	m := types.NewMask(10, 10)
	for x := 1; x < 9; x++ {
		m.Set(x, 5, true)
	}
	_, err := New().Compute(m, nil)
	if !errors.Is(err, types.ErrNoForegroundDetected) {
		t.Errorf("Expected ErrNoForegroundDetected for a line, got %v", err)
	}
}

func TestSizeMismatch(t *testing.T) {
	_, err := New().Compute(fullMask(10, 10), createTestImage(12, 10))
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestRatioBounds(t *testing.T) {
	shapes := []func(x, y int) bool{
		func(x, y int) bool { return x+y < 30 },
		func(x, y int) bool { return x > 5 && y > 5 && x < 35 && y < 20 },
		func(x, y int) bool { return (x/4+y/4)%2 == 0 && x < 20 },
		func(x, y int) bool { return x > 10 && x < 14 },
	}
	for i, shape := range shapes {
		m := types.NewMask(40, 40)
		for y := 0; y < 40; y++ {
			for x := 0; x < 40; x++ {
				m.Set(x, y, shape(x, y))
			}
		}
		res, err := New().Compute(m, nil)
		if err != nil {
			t.Fatalf("shape %d: Compute failed: %v", i, err)
		}
		if res.Ratio < 0 || res.Ratio > 1 {
			t.Errorf("shape %d: ratio %f out of range", i, res.Ratio)
		}
	}
}

func TestPreview(t *testing.T) {
	m := types.NewMask(40, 40)
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			m.Set(x, y, true)
		}
	}
	base := createTestImage(40, 40)
	res, err := New().Compute(m, base)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if res.Preview == nil {
		t.Fatal("Expected a preview")
	}
	if res.Preview.Bounds() != base.Bounds() {
		t.Errorf("Preview bounds %v differ from base %v", res.Preview.Bounds(), base.Bounds())
	}
	if got := res.Preview.NRGBAAt(0, 0); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("Expected untouched background, got %v", got)
	}
	p := res.Preview.NRGBAAt(20, 10)
	painted := color.RGBA{p.R, p.G, p.B, p.A}
	if painted != imageops.ContourColor && painted != imageops.RectColor {
		t.Errorf("Expected outline on the top edge, got %v", painted)
	}
	if got := res.Preview.NRGBAAt(20, 20); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("Expected untouched interior, got %v", got)
	}
}

func BenchmarkCompute(b *testing.B) {
	m := fullMask(256, 256)
	e := New()
	for i := 0; i < b.N; i++ {
		_, _ = e.Compute(m, nil)
	}
}
