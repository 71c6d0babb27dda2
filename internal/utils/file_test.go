package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"b.JPEG", true},
		{"c.webp", true},
		{"d.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsImageFile(tt.name); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	got := GenerateOutputFilename("/in/shoe:1.jpg", "out", "p_", "_preview", "png")
	if got != filepath.Join("out", "p_shoe_1_preview.png") {
		t.Errorf("Unexpected output name %s", got)
	}
	if got := GenerateOutputFilename("x", "o", "", "", ""); got != filepath.Join("o", "x.png") {
		t.Errorf("Expected png fallback, got %s", got)
	}
}

func TestUniqueName(t *testing.T) {
	a, b := UniqueName("analysis", ".png"), UniqueName("analysis", "png")
	if a == b {
		t.Error("Expected distinct names")
	}
	if !strings.HasPrefix(a, "analysis_") || !strings.HasSuffix(a, ".png") || len(a) != len("analysis_")+32+4 {
		t.Errorf("Unexpected name %s", a)
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ExpandInputs(dir)
	if err != nil {
		t.Fatalf("ExpandInputs failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected 2 image files, got %v", files)
	}

	single, err := ExpandInputs(filepath.Join(dir, "a.png"))
	if err != nil || len(single) != 1 {
		t.Errorf("Expected single file, got %v (%v)", single, err)
	}

	if urls, _ := ExpandInputs("https://example.com/p.jpg"); len(urls) != 1 {
		t.Error("Expected URL to pass through")
	}

	if _, err := ExpandInputs(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for missing input")
	}
	if _, err := ExpandInputs(t.TempDir()); err == nil {
		t.Error("Expected error for directory without images")
	}
}

func TestFormatFileSize(t *testing.T) {
	if got := FormatFileSize(1536); got != "1.5 KiB" {
		t.Errorf("FormatFileSize(1536) = %q", got)
	}
	if got := FormatFileSize(-1); got != "0 B" {
		t.Errorf("FormatFileSize(-1) = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" ./a|b. "); got != "_a_b" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}
