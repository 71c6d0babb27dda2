// Package client defines the vision model interface shared by the ollama and
// llama.cpp backends, and the parsing of their JSON answers.
package client

import (
	"context"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// VisionClient talks to a multimodal model server.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
	// WarmUp checks the server is reachable and loads model when the server
	// supports explicit loading.
	WarmUp(ctx context.Context, model string) error
}
