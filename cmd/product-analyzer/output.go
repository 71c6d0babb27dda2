package main

import (
	"fmt"
	"math"
	"strings"

	productanalyzer "github.com/menta2k/product-analyzer"
)

// record is one line of CLI output. Numbers are rounded for display only.
type record struct {
	Source    string   `json:"source"`
	Size      string   `json:"size,omitempty"`
	Method    string   `json:"method"`
	Polarity  string   `json:"polarity,omitempty"`
	Ratio     *float64 `json:"ratio,omitempty"`
	Count     *int     `json:"count,omitempty"`
	Colors    []swatch `json:"colors,omitempty"`
	SelectedK int      `json:"selected_k,omitempty"`
	Preview   string   `json:"preview,omitempty"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Error     string   `json:"error,omitempty"`
}

type swatch struct {
	Hex   string   `json:"hex"`
	RGB   [3]uint8 `json:"rgb"`
	Ratio float64  `json:"ratio"`
}

func (r *record) fill(rep *productanalyzer.Report) {
	r.Polarity = string(rep.Polarity)
	r.ElapsedMS = rep.Trace.Total().Milliseconds()
	if rep.Area != nil {
		ratio := round(rep.Area.Ratio, 4)
		r.Ratio = &ratio
	}
	if rep.Colors != nil {
		count := rep.Colors.Count
		r.Count = &count
		r.SelectedK = rep.Colors.SelectedK
		for _, s := range rep.Colors.Palette {
			r.Colors = append(r.Colors, swatch{Hex: s.Hex(), RGB: s.RGB, Ratio: round(s.Ratio, 6)})
		}
	}
}

func (r record) String() string {
	if r.Error != "" {
		return fmt.Sprintf("%s: error: %s", r.Source, r.Error)
	}
	var b strings.Builder
	b.WriteString(r.Source)
	if r.Ratio != nil {
		fmt.Fprintf(&b, " ratio=%.4f", *r.Ratio)
	}
	if r.Count != nil {
		fmt.Fprintf(&b, " colors=%d", *r.Count)
		for _, s := range r.Colors {
			fmt.Fprintf(&b, " %s(%.1f%%)", s.Hex, s.Ratio*100)
		}
	}
	if r.Preview != "" {
		fmt.Fprintf(&b, " preview=%s", r.Preview)
	}
	return b.String()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
