package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/menta2k/product-analyzer/pkg/types"
)

func newTestServer(t *testing.T, status int, content any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/v1/chat/completions":
			var req ChatCompletionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			parts, _ := req.Messages[0].Content.([]any)
			if len(parts) != 2 {
				http.Error(w, "expected text and image parts", http.StatusBadRequest)
				return
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(ChatCompletionResponse{
				Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeImage(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"primary":{"label":"bag","confidence":0.7,"box":{"x":0.1,"y":0.1,"w":0.8,"h":0.8}},"description":"a bag","tags":[]}`)
	c, err := NewClient(srv.URL+"/", 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	res, err := c.AnalyzeImage(context.Background(), "qwen2-vl", "locate", "aGVsbG8=")
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if res.Primary.Label != "bag" || res.Primary.Box.W != 0.8 {
		t.Errorf("Unexpected result %+v", res.Primary)
	}
}

func TestContentParts(t *testing.T) {
	parts := []map[string]any{{"type": "text", "text": "hello there"}}
	srv := newTestServer(t, http.StatusOK, parts)
	c, _ := NewClient(srv.URL, 0)
	got, err := c.SimpleQuery(context.Background(), "m", "hi", "aGVsbG8=")
	if err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if got != "hello there" {
		t.Errorf("Unexpected answer %q", got)
	}
}

func TestServerError(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, "loading")
	c, _ := NewClient(srv.URL, 0)
	_, err := c.AnalyzeImage(context.Background(), "m", "locate", "aGVsbG8=")
	if !errors.Is(err, types.ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("Expected status in error, got %v", err)
	}
	if err := c.WarmUp(context.Background(), ""); !errors.Is(err, types.ErrModelUnavailable) {
		t.Errorf("Expected WarmUp to fail with ErrModelUnavailable, got %v", err)
	}
}

func TestWarmUp(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "")
	c, _ := NewClient(srv.URL, 0)
	if err := c.WarmUp(context.Background(), "ignored"); err != nil {
		t.Errorf("WarmUp failed: %v", err)
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("", 0)
	if err != nil || c.baseURL != DefaultURL {
		t.Errorf("Expected default URL, got %v (%v)", c, err)
	}
	if _, err := NewClient("localhost:8080", 0); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
