// Package ollama implements client.VisionClient on top of the Ollama API.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/product-analyzer/pkg/client"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
// Vision models on CPU can take minutes on a cold start.
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	timeout time.Duration
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a new Ollama client
func NewClient(ollamaURL string, timeout time.Duration) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", types.ErrInvalidInput, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: invalid URL %q", types.ErrInvalidInput, ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Create client with the specified URL, ignoring environment
	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		timeout: timeout,
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) chat(ctx context.Context, model, prompt, imgB64 string, options map[string]any) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode base64 image: %v", types.ErrInvalidInput, err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: options,
	}

	var sb strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat error: %w", types.ErrModelUnavailable, err)
	}
	return sb.String(), nil
}

// SimpleQuery performs a simple query with an image without expecting JSON
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, model, prompt, imgB64, nil)
}

// AnalyzeImage asks the model to locate the product and parses its JSON answer.
func (c *Client) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error) {
	// Low temperature keeps the box stable between runs.
	options := map[string]any{
		"temperature": 0.1,
		"top_p":       0.8,
	}
	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v") || strings.Contains(modelLower, "minicpmv") {
		options["num_ctx"] = 4096
	}

	content, err := c.chat(ctx, model, prompt, imgB64, options)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty response from ollama", types.ErrModelUnavailable)
	}
	return client.ParseAnalysisResult(content)
}

// WarmUp checks the server and loads model into memory. An empty generate
// request makes Ollama load the model without producing output.
func (c *Client) WarmUp(ctx context.Context, model string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("%w: ollama not reachable: %w", types.ErrModelUnavailable, err)
	}
	if model == "" {
		return nil
	}
	streamFalse := false
	req := &api.GenerateRequest{Model: model, Stream: &streamFalse}
	if err := c.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return fmt.Errorf("%w: failed to load %s: %w", types.ErrModelUnavailable, model, err)
	}
	return nil
}
