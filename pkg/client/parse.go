package client

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/product-analyzer/pkg/types"
)

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline   = regexp.MustCompile(`(?m)\s//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseAnalysisResult decodes a model answer into an AnalysisResult. Answers
// without usable JSON are errors wrapping ErrModelUnavailable so callers can
// retry or fall back to another method.
func ParseAnalysisResult(raw string) (*types.AnalysisResult, error) {
	cleaned := SanitizeModelJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("%w: model returned non-JSON response: %q", types.ErrModelUnavailable, truncate(raw, 120))
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse model response: %v", types.ErrModelUnavailable, err)
	}
	return &result, nil
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
