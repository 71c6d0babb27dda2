package segment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/product-analyzer/pkg/imageops"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// RemovePath is the rembg endpoint that returns the cut-out subject.
const RemovePath = "/api/remove"

// Remote talks to a rembg-compatible background removal server.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a client for the server at serverURL.
func NewRemote(serverURL string, timeout time.Duration) (*Remote, error) {
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("%w: invalid segmenter URL %q", types.ErrInvalidInput, serverURL)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Remote{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Segment uploads the encoded image and returns the alpha channel of the
// cut-out the server sends back.
func (r *Remote) Segment(ctx context.Context, data []byte) (*image.Alpha, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", types.ErrInvalidInput)
	}

	respBody, err := r.remove(ctx, data)
	if err != nil {
		return nil, err
	}

	cut, err := imageops.Decode(respBody)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable segmenter response: %w", types.ErrModelUnavailable, err)
	}
	alpha, translucent := imageops.AlphaOf(cut)
	if !translucent {
		// An echoed or flattened image would make the whole frame the subject.
		return nil, fmt.Errorf("%w: segmenter returned a fully opaque image", types.ErrModelUnavailable)
	}
	return alpha, nil
}

// WarmUp pushes a single pixel through the server so the model is loaded
// before the first real request.
func (r *Remote) WarmUp(ctx context.Context) error {
	px := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	px.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, px); err != nil {
		return fmt.Errorf("failed to encode warm-up image: %w", err)
	}
	_, err := r.remove(ctx, buf.Bytes())
	return err
}

func (r *Remote) remove(ctx context.Context, data []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+RemovePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "image/png")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", types.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, imageops.MaxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", types.ErrModelUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: segmenter returned status %d: %s", types.ErrModelUnavailable, resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
