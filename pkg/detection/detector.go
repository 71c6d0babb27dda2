// Package detection asks a vision model where the product is.
package detection

import (
	"context"
	"strings"

	"github.com/menta2k/product-analyzer/pkg/client"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks for the tight box around the photographed product.
const DefaultPrompt = `You are a product locator for catalogue photos.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  },
  "description": "short neutral sentence (<= 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- The box must tightly include the whole product and nothing of the backdrop that can be excluded.
- Ignore shadows, reflections, props, price tags and watermarks.
- Tags: lowercase, concise, no punctuation or duplicates. Name the product type and its main materials.
- If no product is visible, return:
  {"primary":{"label":"none","confidence":0.0,"box":{"x":0,"y":0,"w":0,"h":0}},"description":"no product","tags":[]}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// MinConfidence is the confidence below which a detection is treated as a miss.
const MinConfidence = 0.2

// Detector handles product detection using vision models
type Detector struct {
	client client.VisionClient
	prompt string
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client, prompt: DefaultPrompt}
}

// SetPrompt replaces the detection prompt.
func (d *Detector) SetPrompt(prompt string) {
	if strings.TrimSpace(prompt) != "" {
		d.prompt = prompt
	}
}

// DetectProduct locates the product in a base64 encoded image.
func (d *Detector) DetectProduct(ctx context.Context, model, imageB64 string) (*types.AnalysisResult, error) {
	result, err := d.client.AnalyzeImage(ctx, model, d.prompt, imageB64)
	if err != nil {
		return nil, err
	}

	result.Primary.Box = normalizeBox(result.Primary.Box)
	result.Tags = normalizeTags(result.Tags)
	return validate(result), nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// WarmUp loads model on the backing server.
func (d *Detector) WarmUp(ctx context.Context, model string) error {
	return d.client.WarmUp(ctx, model)
}

// validate turns low-confidence or empty answers into an explicit miss.
func validate(result *types.AnalysisResult) *types.AnalysisResult {
	if strings.EqualFold(result.Primary.Label, "none") {
		return result
	}
	if result.Primary.Confidence > 0 && result.Primary.Confidence < MinConfidence ||
		result.Primary.Box.W <= 0 || result.Primary.Box.H <= 0 {
		result.Primary.Label = "none"
		result.Primary.Confidence = 0
		result.Primary.Box = types.Box{}
	}
	return result
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clamps the box into the unit square.
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// normalizeTags ensures tags are cleaned and limited to 5 entries
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}
