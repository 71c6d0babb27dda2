package colorquant

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// subsample draws cap samples without replacement using a partial
// Fisher-Yates shuffle. Inputs at or below cap are returned as is.
func subsample(samples []uint32, limit int, rng *rand.Rand) ([]uint32, bool) {
	n := len(samples)
	if n <= limit {
		return samples, false
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := make([]uint32, limit)
	for i := 0; i < limit; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = samples[idx[i]]
	}
	return out, true
}

// elbow picks the k whose (k, SSE) point lies farthest from the straight
// line joining the first and last points of the curve. Ties go to the
// smaller k.
func elbow(ks []int, sse []float64) (int, []float64) {
	if len(ks) == 0 {
		return 0, nil
	}
	dists := make([]float64, len(ks))
	if len(ks) < 3 {
		return ks[0], dists
	}
	x1, y1 := float64(ks[0]), sse[0]
	vec := []float64{float64(ks[len(ks)-1]) - x1, sse[len(sse)-1] - y1}
	den := floats.Norm(vec, 2) + 1e-6
	for i := range ks {
		px, py := float64(ks[i])-x1, sse[i]-y1
		dists[i] = math.Abs(vec[0]*py-vec[1]*px) / den
	}
	return ks[floats.MaxIdx(dists)], dists
}
