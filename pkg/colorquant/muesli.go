package colorquant

import (
	"fmt"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/menta2k/product-analyzer/pkg/types"
)

// partitionMuesli clusters every sample individually with muesli/kmeans.
// Its initialization draws from the global random source, so results are
// not reproducible across runs.
func partitionMuesli(samples []uint32, k int, cache labCache) (partition, error) {
	obs := make(clusters.Observations, len(samples))
	for i, s := range samples {
		l := cache.get(s)
		obs[i] = clusters.Coordinates{l.L, l.A, l.B}
	}
	if k > len(obs) {
		k = len(obs)
	}
	if k < 1 {
		return partition{}, nil
	}

	km := kmeans.New()
	cc, err := km.Partition(obs, k)
	if err != nil {
		return partition{}, fmt.Errorf("%w: kmeans partition: %v", types.ErrQuantizationFailed, err)
	}

	p := partition{
		centers: make([]clusters.Coordinates, 0, len(cc)),
		weights: make([]float64, 0, len(cc)),
	}
	for _, c := range cc {
		p.centers = append(p.centers, c.Center)
		p.weights = append(p.weights, float64(len(c.Observations)))
		for _, o := range c.Observations {
			p.sse += sqDist(o.Coordinates(), c.Center)
		}
	}
	return p, nil
}
