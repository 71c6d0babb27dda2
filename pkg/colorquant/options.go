package colorquant

import (
	"fmt"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// Partitioner names.
const (
	PartitionerLloyd  = "lloyd"
	PartitionerMuesli = "muesli"
)

// Options tunes the quantizer. A zero field takes its default value, so the
// zero Options is the default configuration.
type Options struct {
	// MinClusterRatio drops clusters holding less than this share of the
	// sampled pixels.
	MinClusterRatio float64 `json:"min_cluster_ratio"`
	// TargetMaxColors is the count that threshold escalation and greedy
	// reduction aim for.
	TargetMaxColors int `json:"target_max_colors"`
	// HardMaxOutputColors caps the palette length.
	HardMaxOutputColors int `json:"hard_max_output_colors"`

	MergeThreshold    float64 `json:"merge_threshold"`
	MergeStep         float64 `json:"merge_step"`
	MergeThresholdMax float64 `json:"merge_threshold_max"`

	NeutralChroma          float64 `json:"neutral_chroma"`
	NeutralLightnessCutoff float64 `json:"neutral_lightness_cutoff"`

	KMin          int `json:"k_min"`
	KMax          int `json:"k_max"`
	SampleCap     int `json:"sample_cap"`
	MaxIterations int `json:"max_iterations"`

	// Seed drives subsampling and cluster initialization.
	Seed int64 `json:"seed"`
	// Partitioner selects the clustering implementation. The muesli
	// partitioner is not seedable.
	Partitioner string `json:"partitioner,omitempty"`
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		MinClusterRatio:        0.05,
		TargetMaxColors:        6,
		HardMaxOutputColors:    18,
		MergeThreshold:         24,
		MergeStep:              4,
		MergeThresholdMax:      50,
		NeutralChroma:          8,
		NeutralLightnessCutoff: 50,
		KMin:                   2,
		KMax:                   10,
		SampleCap:              20000,
		MaxIterations:          20,
		Seed:                   42,
		Partitioner:            PartitionerLloyd,
	}
}

// WithDefaults fills every zero field from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.MinClusterRatio == 0 {
		o.MinClusterRatio = d.MinClusterRatio
	}
	if o.TargetMaxColors == 0 {
		o.TargetMaxColors = d.TargetMaxColors
	}
	if o.HardMaxOutputColors == 0 {
		o.HardMaxOutputColors = d.HardMaxOutputColors
	}
	if o.MergeThreshold == 0 {
		o.MergeThreshold = d.MergeThreshold
	}
	if o.MergeStep == 0 {
		o.MergeStep = d.MergeStep
	}
	if o.MergeThresholdMax == 0 {
		o.MergeThresholdMax = d.MergeThresholdMax
	}
	if o.NeutralChroma == 0 {
		o.NeutralChroma = d.NeutralChroma
	}
	if o.NeutralLightnessCutoff == 0 {
		o.NeutralLightnessCutoff = d.NeutralLightnessCutoff
	}
	if o.KMin == 0 {
		o.KMin = d.KMin
	}
	if o.KMax == 0 {
		o.KMax = d.KMax
	}
	if o.SampleCap == 0 {
		o.SampleCap = d.SampleCap
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	if o.Partitioner == "" {
		o.Partitioner = d.Partitioner
	}
	return o
}

// Validate rejects out-of-range options. Call it after WithDefaults.
func (o Options) Validate() error {
	switch {
	case o.MinClusterRatio < 0 || o.MinClusterRatio > 1:
		return fmt.Errorf("%w: min cluster ratio %v outside [0,1]", types.ErrInvalidInput, o.MinClusterRatio)
	case o.TargetMaxColors < 1:
		return fmt.Errorf("%w: target max colors must be positive", types.ErrInvalidInput)
	case o.HardMaxOutputColors < 1:
		return fmt.Errorf("%w: hard max output colors must be positive", types.ErrInvalidInput)
	case o.MergeThreshold < 0 || o.MergeStep <= 0:
		return fmt.Errorf("%w: merge threshold and step must be positive", types.ErrInvalidInput)
	case o.MergeThresholdMax < o.MergeThreshold:
		return fmt.Errorf("%w: merge threshold max %v below start %v", types.ErrInvalidInput, o.MergeThresholdMax, o.MergeThreshold)
	case o.NeutralChroma < 0 || o.NeutralLightnessCutoff < 0 || o.NeutralLightnessCutoff > 100:
		return fmt.Errorf("%w: neutral fold parameters out of range", types.ErrInvalidInput)
	case o.KMin < 1 || o.KMax < o.KMin:
		return fmt.Errorf("%w: invalid k range %d..%d", types.ErrInvalidInput, o.KMin, o.KMax)
	case o.SampleCap < 1 || o.MaxIterations < 1:
		return fmt.Errorf("%w: sample cap and iterations must be positive", types.ErrInvalidInput)
	case o.Partitioner != PartitionerLloyd && o.Partitioner != PartitionerMuesli:
		return fmt.Errorf("%w: unknown partitioner %q", types.ErrInvalidInput, o.Partitioner)
	}
	return nil
}
