// Package colorquant counts the perceptually distinct colors of a masked
// subject and reports a weighted palette.
//
// The pipeline samples every masked pixel, converts it to Lab, selects a
// cluster count with the elbow method, clusters, merges clusters closer than
// a CIEDE2000 threshold, folds near-neutral clusters into one dark and one
// light neutral, escalates the threshold or merges greedily until the count
// reaches a target, drops negligible clusters and caps the palette size.
//
// Two sources of randomness exist: the subsample used for the elbow curve
// when the subject has more than SampleCap pixels, and the k-means++
// initialization. Both derive from Options.Seed, so identical input and
// options give identical output with the default partitioner.
package colorquant

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// Result is the outcome of a quantization.
type Result struct {
	Count   int            `json:"count"`
	Palette []types.Swatch `json:"palette"`

	TotalPixels    int       `json:"total_pixels"`
	SelectedK      int       `json:"selected_k"`
	Candidates     []int     `json:"candidates"`
	SSE            []float64 `json:"sse"`
	Subsampled     bool      `json:"subsampled"`
	Clustered      int       `json:"clustered"`
	FinalThreshold float64   `json:"final_threshold"`
}

// Quantizer runs the palette pipeline. It holds no per-call state and is
// safe for concurrent use.
type Quantizer struct {
	logger *slog.Logger
}

// New creates a quantizer that logs nothing.
func New() *Quantizer {
	return &Quantizer{logger: slog.New(slog.DiscardHandler)}
}

// SetLogger sets the logger used for debug output.
func (q *Quantizer) SetLogger(l *slog.Logger) {
	if l != nil {
		q.logger = l
	}
}

// Quantize samples the pixels of rgb selected by mask and returns the
// palette. rgb must have the mask's dimensions.
func (q *Quantizer) Quantize(mask *types.Mask, rgb image.Image, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if mask == nil || rgb == nil {
		return nil, fmt.Errorf("%w: mask and image are required", types.ErrInvalidInput)
	}
	if !mask.SameSize(rgb.Bounds()) {
		return nil, fmt.Errorf("%w: mask %dx%d does not match image %dx%d", types.ErrInvalidInput,
			mask.Width, mask.Height, rgb.Bounds().Dx(), rgb.Bounds().Dy())
	}

	start := time.Now()
	samples := sampleMasked(mask, rgb)
	if len(samples) == 0 {
		return nil, types.ErrNoSubjectPixels
	}
	total := len(samples)
	cache := make(labCache, 4096)

	// Elbow curve on a bounded subsample.
	sample, subsampled := subsample(samples, opts.SampleCap, rand.New(rand.NewSource(opts.Seed)))
	var sampleSet *dataset
	if opts.Partitioner == PartitionerLloyd {
		sampleSet = aggregate(sample, cache)
	}
	ks := make([]int, 0, opts.KMax-opts.KMin+1)
	sse := make([]float64, 0, cap(ks))
	for k := opts.KMin; k <= opts.KMax; k++ {
		p, err := q.partition(sampleSet, sample, k, opts, cache)
		if err != nil {
			return nil, err
		}
		ks = append(ks, k)
		sse = append(sse, p.sse)
	}
	bestK, _ := elbow(ks, sse)

	// Full clustering on every sampled pixel.
	var fullSet *dataset
	if opts.Partitioner == PartitionerLloyd {
		fullSet = aggregate(samples, cache)
	}
	full, err := q.partition(fullSet, samples, bestK, opts, cache)
	if err != nil {
		return nil, err
	}

	cl := make([]cluster, 0, len(full.centers))
	for i, c := range full.centers {
		w := int(full.weights[i] + 0.5)
		if w == 0 {
			continue
		}
		l := lab{L: c[0], A: c[1], B: c[2]}
		cl = append(cl, newCluster(l.rgb(), w))
	}
	clustered := len(cl)

	cl = mergeWithin(cl, opts.MergeThreshold)
	cl = foldNeutrals(cl, opts.NeutralChroma, opts.NeutralLightnessCutoff)
	cl = mergeWithin(cl, opts.MergeThreshold)

	cl, finalTh := escalate(cl, opts.TargetMaxColors, opts.MergeThreshold, opts.MergeStep, opts.MergeThresholdMax)
	if len(cl) > opts.TargetMaxColors {
		cl = reduceGreedy(cl, opts.TargetMaxColors)
		// Greedy merges can land next to another cluster.
		cl = mergeWithin(cl, opts.MergeThreshold)
	}

	cl = dropBelow(cl, total, opts.MinClusterRatio)
	sortByWeight(cl)
	if len(cl) > opts.HardMaxOutputColors {
		cl = capClusters(cl, opts.HardMaxOutputColors)
		sortByWeight(cl)
	}
	if len(cl) == 0 {
		return nil, fmt.Errorf("%w: no cluster reached %.2f%% of %d pixels",
			types.ErrQuantizationFailed, opts.MinClusterRatio*100, total)
	}

	res := &Result{
		Count:          len(cl),
		Palette:        make([]types.Swatch, len(cl)),
		TotalPixels:    total,
		SelectedK:      bestK,
		Candidates:     ks,
		SSE:            sse,
		Subsampled:     subsampled,
		Clustered:      clustered,
		FinalThreshold: finalTh,
	}
	for i, c := range cl {
		res.Palette[i] = types.NewSwatch(c.rgb, c.weight, total)
	}

	q.logger.Debug("colors quantized",
		"pixels", total,
		"k", bestK,
		"clusters", clustered,
		"colors", res.Count,
		"threshold", finalTh,
		"elapsed", time.Since(start))
	return res, nil
}

func (q *Quantizer) partition(ds *dataset, samples []uint32, k int, opts Options, cache labCache) (partition, error) {
	if opts.Partitioner == PartitionerMuesli {
		return partitionMuesli(samples, k, cache)
	}
	rng := rand.New(rand.NewSource(opts.Seed + int64(k)))
	return lloyd(ds, k, opts.MaxIterations, rng), nil
}

// sampleMasked returns the packed RGB value of every masked pixel in
// raster order.
func sampleMasked(mask *types.Mask, img image.Image) []uint32 {
	src := imaging.Clone(img)
	out := make([]uint32, 0, mask.Count())
	for y := 0; y < mask.Height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < mask.Width; x++ {
			if mask.Pix[y*mask.Width+x] == 0 {
				continue
			}
			i := x * 4
			out = append(out, pack([3]uint8{row[i], row[i+1], row[i+2]}))
		}
	}
	return out
}
