package main

import (
	"strings"
	"testing"
	"time"

	productanalyzer "github.com/menta2k/product-analyzer"
	"github.com/menta2k/product-analyzer/pkg/arearatio"
	"github.com/menta2k/product-analyzer/pkg/colorquant"
	"github.com/menta2k/product-analyzer/pkg/types"
)

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{0.785398, 4, 0.7854},
		{0.12345678, 6, 0.123457},
		{1, 4, 1},
	}
	for _, tt := range tests {
		if got := round(tt.v, tt.places); got != tt.want {
			t.Errorf("round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestRecordFill(t *testing.T) {
	rep := &productanalyzer.Report{
		Method:   types.MethodAlphaMatte,
		Polarity: "alpha",
		Area:     &arearatio.Result{Ratio: 0.785398163},
		Colors: &colorquant.Result{
			Count:     1,
			SelectedK: 3,
			Palette:   []types.Swatch{types.NewSwatch([3]uint8{255, 0, 0}, 1, 3)},
		},
		Trace: types.Trace{Stages: []types.Stage{{Name: "extract", Duration: 1500 * time.Microsecond}}},
	}

	var r record
	r.Source = "p.jpg"
	r.fill(rep)
	if *r.Ratio != 0.7854 {
		t.Errorf("Expected ratio 0.7854, got %v", *r.Ratio)
	}
	if r.Colors[0].Ratio != 0.333333 || r.Colors[0].Hex != "#ff0000" {
		t.Errorf("Unexpected swatch %+v", r.Colors[0])
	}
	if r.ElapsedMS != 1 {
		t.Errorf("Expected 1ms, got %d", r.ElapsedMS)
	}

	s := r.String()
	if !strings.Contains(s, "ratio=0.7854") || !strings.Contains(s, "#ff0000(33.3%)") {
		t.Errorf("Unexpected text output %q", s)
	}

	failed := record{Source: "x", Error: "boom"}
	if failed.String() != "x: error: boom" {
		t.Errorf("Unexpected error output %q", failed.String())
	}
}
