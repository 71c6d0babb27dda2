package colorquant

import (
	"math"
	"math/rand"
	"slices"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/floats"
)

// dataset is a weighted set of distinct Lab points. Identical pixels are
// collapsed into one point whose weight is their count, which keeps Lloyd
// iterations proportional to the number of distinct colors.
type dataset struct {
	points  clusters.Observations
	weights []float64
}

func (d *dataset) Len() int { return len(d.points) }

// aggregate builds a dataset from packed RGB samples. Points are ordered by
// color value so the result does not depend on map iteration.
func aggregate(samples []uint32, cache labCache) *dataset {
	counts := make(map[uint32]int, 1024)
	for _, s := range samples {
		counts[s]++
	}
	keys := make([]uint32, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ds := &dataset{
		points:  make(clusters.Observations, len(keys)),
		weights: make([]float64, len(keys)),
	}
	for i, k := range keys {
		l := cache.get(k)
		ds.points[i] = clusters.Coordinates{l.L, l.A, l.B}
		ds.weights[i] = float64(counts[k])
	}
	return ds
}

// partition is the outcome of one clustering run.
type partition struct {
	centers []clusters.Coordinates
	weights []float64
	sse     float64
}

func sqDist(a, b clusters.Coordinates) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// lloyd runs weighted k-means with k-means++ seeding. Fewer than k centers
// are returned when the data has fewer than k distinct points.
func lloyd(ds *dataset, k, maxIter int, rng *rand.Rand) partition {
	n := ds.Len()
	if n == 0 || k < 1 {
		return partition{}
	}
	centers := seedPlusPlus(ds, k, rng)
	k = len(centers)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for it := 0; it < maxIter; it++ {
		if !assign(ds, centers, labels) {
			break
		}
		centers = recenter(ds, centers, labels)
	}
	assign(ds, centers, labels)

	weights := make([]float64, k)
	errs := make([]float64, n)
	for i, p := range ds.points {
		c := labels[i]
		weights[c] += ds.weights[i]
		errs[i] = ds.weights[i] * sqDist(p.Coordinates(), centers[c])
	}
	return partition{centers: centers, weights: weights, sse: floats.Sum(errs)}
}

func seedPlusPlus(ds *dataset, k int, rng *rand.Rand) []clusters.Coordinates {
	n := ds.Len()
	pick := func(w []float64, total float64) int {
		r := rng.Float64() * total
		for i, v := range w {
			r -= v
			if r < 0 {
				return i
			}
		}
		return n - 1
	}

	centers := make([]clusters.Coordinates, 0, k)
	first := pick(ds.weights, floats.Sum(ds.weights))
	centers = append(centers, copyCoords(ds.points[first].Coordinates()))

	d2 := make([]float64, n)
	score := make([]float64, n)
	for i, p := range ds.points {
		d2[i] = sqDist(p.Coordinates(), centers[0])
	}
	for len(centers) < k {
		for i := range score {
			score[i] = ds.weights[i] * d2[i]
		}
		total := floats.Sum(score)
		if total <= 0 {
			break
		}
		next := pick(score, total)
		c := copyCoords(ds.points[next].Coordinates())
		centers = append(centers, c)
		for i, p := range ds.points {
			if d := sqDist(p.Coordinates(), c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// assign labels every point with its nearest center and reports whether
// any label changed.
func assign(ds *dataset, centers []clusters.Coordinates, labels []int) bool {
	changed := false
	for i, p := range ds.points {
		coords := p.Coordinates()
		best, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(coords, center); d < bestD {
				best, bestD = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recenter moves each center to the weighted mean of its points. A center
// that lost all its points stays where it was.
func recenter(ds *dataset, centers []clusters.Coordinates, labels []int) []clusters.Coordinates {
	dim := len(centers[0])
	sums := make([]clusters.Coordinates, len(centers))
	totals := make([]float64, len(centers))
	for c := range sums {
		sums[c] = make(clusters.Coordinates, dim)
	}
	for i, p := range ds.points {
		c := labels[i]
		w := ds.weights[i]
		floats.AddScaled(sums[c], w, p.Coordinates())
		totals[c] += w
	}
	out := make([]clusters.Coordinates, len(centers))
	for c := range centers {
		if totals[c] == 0 {
			out[c] = centers[c]
			continue
		}
		floats.Scale(1/totals[c], sums[c])
		out[c] = sums[c]
	}
	return out
}

func copyCoords(c clusters.Coordinates) clusters.Coordinates {
	out := make(clusters.Coordinates, len(c))
	copy(out, c)
	return out
}
