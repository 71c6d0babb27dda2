package imageops

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// EncodeOptions controls preview encoding.
type EncodeOptions struct {
	Format   string // png, jpg or webp
	Quality  int
	Lossless bool
}

// FormatFromPath derives the output format from a file extension.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg", "jpeg":
		return "jpg"
	case "webp":
		return "webp"
	default:
		return "png"
	}
}

// Encode writes img to w in the requested format.
func Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 92
	}
	switch strings.ToLower(opts.Format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(quality)})
	case "jpg", "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case "png", "":
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// Save writes img to path, creating parent directories as needed.
func Save(img image.Image, path string, opts EncodeOptions) error {
	if opts.Format == "" {
		opts.Format = FormatFromPath(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Encode(f, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// PrepareForModel downsizes img so its long side is at most maxDim and
// returns it base64 encoded, ready for a vision model request.
func PrepareForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
