// Package imageops contains the pixel-level building blocks of the pipeline:
// decoding and encoding, grayscale filtering, thresholding, 3x3 morphology,
// alpha compositing and overlay drawing.
package imageops

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// MaxSourceBytes bounds how much ReadSource will read from a file or URL.
const MaxSourceBytes = 64 << 20

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

// Info returns basic information about an image
func Info(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	ratio := 0.0
	if height > 0 {
		ratio = float64(width) / float64(height)
	}
	return ImageInfo{
		Width:       width,
		Height:      height,
		AspectRatio: ratio,
		Area:        width * height,
	}
}

// Validate checks that an image has at least minSize pixels on each side.
func Validate(img image.Image, minSize int) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", types.ErrInvalidInput)
	}
	if minSize < 1 {
		minSize = 1
	}
	bounds := img.Bounds()
	if bounds.Dx() < minSize || bounds.Dy() < minSize {
		return fmt.Errorf("%w: image too small: %dx%d (minimum: %d)",
			types.ErrInvalidInput, bounds.Dx(), bounds.Dy(), minSize)
	}
	return nil
}

// Decode decodes encoded image bytes. JPEG, PNG, GIF and WebP are supported.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", types.ErrInvalidInput)
	}

	// Try registered decoders first
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("%w: unknown or unsupported image format", types.ErrInvalidInput)
}

// DecodeReader reads r fully and decodes it.
func DecodeReader(r io.Reader) (image.Image, []byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSourceBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image data: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// ReadSource returns the raw bytes of a file path or an http(s) URL.
func ReadSource(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return readURL(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Load reads and decodes a file path or URL, returning both representations.
func Load(ctx context.Context, source string) (image.Image, []byte, error) {
	data, err := ReadSource(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	return img, data, nil
}

func readURL(ctx context.Context, imageURL string) ([]byte, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Product-Analyzer/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}
