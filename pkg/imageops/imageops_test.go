package imageops

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// createSplitImage creates an image whose left half is dark and right half is light
func createSplitImage(width, height int, dark, light uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := dark
			if x >= width/2 {
				v = light
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func squareMask(size, x0, y0, side int) *types.Mask {
	m := types.NewMask(size, size)
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

func TestInfo(t *testing.T) {
	info := Info(image.NewRGBA(image.Rect(0, 0, 400, 300)))
	if info.Width != 400 || info.Height != 300 {
		t.Errorf("Expected 400x300, got %dx%d", info.Width, info.Height)
	}
	if info.Area != 120000 {
		t.Errorf("Expected area 120000, got %d", info.Area)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(image.NewRGBA(image.Rect(0, 0, 10, 10)), 20); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for small image, got %v", err)
	}
	if err := Validate(nil, 1); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil image, got %v", err)
	}
	if err := Validate(image.NewRGBA(image.Rect(0, 0, 10, 10)), 5); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := Decode([]byte("not an image")); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := createSplitImage(32, 16, 10, 240)
	for _, format := range []string{"png", "jpg", "webp"} {
		var buf bytes.Buffer
		if err := Encode(&buf, src, EncodeOptions{Format: format, Quality: 90}); err != nil {
			t.Fatalf("Encode(%s) failed: %v", format, err)
		}
		img, err := Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("Decode(%s) failed: %v", format, err)
		}
		if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
			t.Errorf("%s: expected 32x16, got %v", format, img.Bounds())
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]string{
		"a.png":      "png",
		"a.JPG":      "jpg",
		"a.jpeg":     "jpg",
		"dir/a.webp": "webp",
		"noext":      "png",
	}
	for in, want := range cases {
		if got := FormatFromPath(in); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func grayOf(t *testing.T, img image.Image) *image.Gray {
	t.Helper()
	g, err := Gray(img)
	if err != nil {
		t.Fatalf("Gray failed: %v", err)
	}
	return g
}

func mustMask(t *testing.T) func(m *types.Mask, err error) *types.Mask {
	t.Helper()
	return func(m *types.Mask, err error) *types.Mask {
		t.Helper()
		if err != nil {
			t.Fatalf("Mask operation failed: %v", err)
		}
		return m
	}
}

func TestGrayRoundTrip(t *testing.T) {
	g := grayOf(t, createSplitImage(8, 4, 30, 220))
	if g.Bounds() != image.Rect(0, 0, 8, 4) {
		t.Fatalf("Unexpected bounds %v", g.Bounds())
	}
	if g.GrayAt(0, 0).Y != 30 || g.GrayAt(7, 3).Y != 220 {
		t.Errorf("Unexpected gray levels %d and %d", g.GrayAt(0, 0).Y, g.GrayAt(7, 3).Y)
	}

	m := squareMask(6, 1, 1, 3)
	mat, err := MatFromMask(m)
	if err != nil {
		t.Fatalf("MatFromMask failed: %v", err)
	}
	defer mat.Close()
	back, err := MaskFromMat(mat)
	if err != nil {
		t.Fatalf("MaskFromMat failed: %v", err)
	}
	if back.Count() != 9 || !back.At(1, 1) || back.At(0, 0) {
		t.Errorf("Mask did not survive the round trip: %v", back.Pix)
	}
}

func TestBlurGrayKeepsFlatRegions(t *testing.T) {
	g := grayOf(t, createSplitImage(20, 10, 50, 200))
	blurred, err := BlurGray(g, 1.1)
	if err != nil {
		t.Fatalf("BlurGray failed: %v", err)
	}
	if blurred.GrayAt(0, 5).Y != 50 || blurred.GrayAt(19, 5).Y != 200 {
		t.Errorf("Expected flat regions unchanged, got %d and %d", blurred.GrayAt(0, 5).Y, blurred.GrayAt(19, 5).Y)
	}
	if v := blurred.GrayAt(10, 5).Y; v <= 50 || v >= 200 {
		t.Errorf("Expected the step to be softened, got %d", v)
	}
	if k := gaussianKernel(1.1); k.X != 5 {
		t.Errorf("Expected a 5x5 kernel for sigma 1.1, got %v", k)
	}
	if k := gaussianKernel(0.8); k.X != 3 {
		t.Errorf("Expected a 3x3 kernel for sigma 0.8, got %v", k)
	}
}

func TestOtsuSeparatesBimodal(t *testing.T) {
	g := grayOf(t, createSplitImage(40, 20, 40, 200))
	bright, th, err := Otsu(g, false)
	if err != nil {
		t.Fatalf("Otsu failed: %v", err)
	}
	if th < 40 || th >= 200 {
		t.Fatalf("Expected threshold between modes, got %d", th)
	}
	if bright.Count() != 400 {
		t.Errorf("Expected 400 bright pixels, got %d", bright.Count())
	}
	dark, darkTh, err := Otsu(g, true)
	if err != nil {
		t.Fatalf("Otsu failed: %v", err)
	}
	if darkTh != th {
		t.Errorf("Expected the same level for both polarities, got %d and %d", th, darkTh)
	}
	if dark.Count() != 400 {
		t.Errorf("Expected 400 dark pixels, got %d", dark.Count())
	}
	if !bright.At(30, 5) || bright.At(5, 5) {
		t.Error("Bright mask covers the wrong half")
	}
}

func TestOtsuUniform(t *testing.T) {
	g := grayOf(t, createSplitImage(10, 10, 128, 128))
	bright, th, err := Otsu(g, false)
	if err != nil {
		t.Fatalf("Otsu failed: %v", err)
	}
	if th != 0 {
		t.Errorf("Expected level 0 on a uniform image, got %d", th)
	}
	if bright.Count() != 100 {
		t.Errorf("Expected every pixel above level 0, got %d", bright.Count())
	}
}

func TestErodeDilate(t *testing.T) {
	m := squareMask(30, 10, 10, 10)
	if got := mustMask(t)(Erode(m)).Count(); got != 64 {
		t.Errorf("Expected eroded area 64, got %d", got)
	}
	if got := mustMask(t)(Dilate(m)).Count(); got != 144 {
		t.Errorf("Expected dilated area 144, got %d", got)
	}
}

func TestErodeKeepsBorder(t *testing.T) {
	m := squareMask(10, 0, 0, 10)
	if got := mustMask(t)(Erode(m)).Count(); got != 100 {
		t.Errorf("Expected full mask to survive erosion, got %d", got)
	}
	if got := mustMask(t)(Refine(m, DefaultRefine)).Count(); got != 100 {
		t.Errorf("Expected full mask to survive refinement, got %d", got)
	}
}

func TestOpenRemovesSpeck(t *testing.T) {
	m := squareMask(30, 10, 10, 10)
	m.Set(2, 2, true)
	opened := mustMask(t)(Open(m, 1))
	if opened.At(2, 2) {
		t.Error("Expected isolated pixel to be removed")
	}
	if opened.Count() != 100 {
		t.Errorf("Expected square to survive opening, got %d", opened.Count())
	}
}

func TestCloseFillsHole(t *testing.T) {
	m := squareMask(30, 10, 10, 10)
	m.Set(15, 15, false)
	closed := mustMask(t)(Close(m, 1))
	if !closed.At(15, 15) {
		t.Error("Expected hole to be filled")
	}
}

func TestCloseIterations(t *testing.T) {
	// A 4px gap survives one closing but is bridged by two iterations.
	m := squareMask(40, 5, 5, 10)
	for y := 5; y < 15; y++ {
		for x := 19; x < 29; x++ {
			m.Set(x, y, true)
		}
	}
	if mustMask(t)(Close(m, 1)).At(17, 10) {
		t.Error("Expected one closing to leave the gap open")
	}
	if !mustMask(t)(Close(m, 2)).At(17, 10) {
		t.Error("Expected two closing iterations to bridge the gap")
	}
}

func TestEdges(t *testing.T) {
	edges := mustMask(t)(Edges(grayOf(t, createSplitImage(20, 20, 0, 255)), 50, 150))
	if edges.Empty() {
		t.Fatal("Expected edges on a step image")
	}
	flat := mustMask(t)(Edges(grayOf(t, createSplitImage(20, 20, 90, 90)), 50, 150))
	if !flat.Empty() {
		t.Errorf("Expected no edges on a flat image, got %d", flat.Count())
	}
}

func TestCompositeOverWhite(t *testing.T) {
	src := createSplitImage(4, 1, 0, 0)
	alpha := image.NewAlpha(image.Rect(0, 0, 4, 1))
	alpha.Pix[0] = 0
	alpha.Pix[1] = 255
	out := CompositeOverWhite(src, alpha)
	if out.Pix[0] != 255 {
		t.Errorf("Expected transparent pixel to become white, got %d", out.Pix[0])
	}
	if out.Pix[4] != 0 {
		t.Errorf("Expected opaque pixel unchanged, got %d", out.Pix[4])
	}
	if out.Pix[3] != 255 || out.Pix[7] != 255 {
		t.Error("Expected composite to be opaque")
	}
}

func TestAlphaOf(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 0})
	a, translucent := AlphaOf(img)
	if !translucent {
		t.Error("Expected image to be reported translucent")
	}
	m := MaskFromAlpha(a)
	if !m.At(0, 0) || m.At(1, 0) {
		t.Errorf("Unexpected alpha mask %v", m.Pix)
	}
}

func rgbaAt(img *image.NRGBA, x, y int) color.RGBA {
	c := img.NRGBAAt(x, y)
	return color.RGBA{c.R, c.G, c.B, c.A}
}

func newCanvas(t *testing.T, img image.Image) *Canvas {
	t.Helper()
	c, err := NewCanvas(img)
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func render(t *testing.T, c *Canvas) *image.NRGBA {
	t.Helper()
	img, err := c.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	return img
}

func TestDrawPolygon(t *testing.T) {
	canvas := newCanvas(t, image.NewRGBA(image.Rect(0, 0, 20, 20)))
	canvas.DrawPolygon([]image.Point{{2, 2}, {17, 2}, {17, 17}, {2, 17}}, ContourColor, 2)
	img := render(t, canvas)
	if got := rgbaAt(img, 10, 2); got != ContourColor {
		t.Errorf("Expected contour color on edge, got %v", got)
	}
	if got := rgbaAt(img, 10, 10); got == ContourColor {
		t.Error("Interior should not be painted")
	}
}

func TestDrawContour(t *testing.T) {
	canvas := newCanvas(t, createSplitImage(20, 20, 128, 128))
	canvas.DrawContour([]image.Point{{4, 4}, {4, 15}, {15, 15}, {15, 4}}, RectColor, 1)
	img := render(t, canvas)
	if got := rgbaAt(img, 4, 10); got != RectColor {
		t.Errorf("Expected outline on the left edge, got %v", got)
	}
	if got := rgbaAt(img, 10, 10); got != (color.RGBA{128, 128, 128, 255}) {
		t.Errorf("Expected untouched interior, got %v", got)
	}
}

func TestDrawBox(t *testing.T) {
	canvas := newCanvas(t, image.NewNRGBA(image.Rect(0, 0, 20, 10)))
	canvas.DrawBox(types.Box{X: 0.25, Y: 0.2, W: 0.5, H: 0.6}, BoxColor, 1)
	canvas.DrawBox(types.Box{}, RectColor, 2)
	img := render(t, canvas)

	if got := rgbaAt(img, 5, 2); got != BoxColor {
		t.Errorf("Expected box corner at (5,2), got %v", got)
	}
	if got := rgbaAt(img, 14, 7); got != BoxColor {
		t.Errorf("Expected box corner at (14,7), got %v", got)
	}
	if got := rgbaAt(img, 15, 8); got == BoxColor {
		t.Error("Box should stop inside its exclusive corner")
	}
	if got := rgbaAt(img, 10, 5); got == BoxColor {
		t.Error("Box interior should not be painted")
	}
	if got := rgbaAt(img, 0, 0); got == RectColor {
		t.Error("Empty box should draw nothing")
	}
}
