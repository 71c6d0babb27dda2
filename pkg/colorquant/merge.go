package colorquant

import (
	"math"
	"slices"
)

// cluster is a representative color and the number of samples it stands for.
type cluster struct {
	rgb    [3]uint8
	lab    lab
	weight int
}

func newCluster(rgb [3]uint8, weight int) cluster {
	return cluster{rgb: rgb, lab: labOf(rgb), weight: weight}
}

// combine returns the weight-weighted RGB average of a and b.
func combine(a, b cluster) cluster {
	w := a.weight + b.weight
	if w == 0 {
		return a
	}
	var rgb [3]uint8
	for c := 0; c < 3; c++ {
		v := (float64(a.rgb[c])*float64(a.weight) + float64(b.rgb[c])*float64(b.weight)) / float64(w)
		rgb[c] = uint8(math.Min(255, math.Round(v)))
	}
	return newCluster(rgb, w)
}

// closestPair returns the indices (i < j) of the perceptually closest pair.
// The first pair found wins ties.
func closestPair(cl []cluster) (int, int, float64) {
	bi, bj, best := -1, -1, math.Inf(1)
	for i := 0; i < len(cl); i++ {
		for j := i + 1; j < len(cl); j++ {
			if d := deltaE(cl[i].lab, cl[j].lab); d < best {
				bi, bj, best = i, j, d
			}
		}
	}
	return bi, bj, best
}

// mergePair folds cl[j] into cl[i] and removes cl[j].
func mergePair(cl []cluster, i, j int) []cluster {
	cl[i] = combine(cl[i], cl[j])
	return slices.Delete(cl, j, j+1)
}

// mergeWithin repeatedly merges the closest pair while its distance is at
// most threshold.
func mergeWithin(cl []cluster, threshold float64) []cluster {
	for len(cl) > 1 {
		i, j, d := closestPair(cl)
		if d > threshold {
			break
		}
		cl = mergePair(cl, i, j)
	}
	return cl
}

// foldNeutrals collapses near-achromatic clusters into at most two: one for
// lightness below cutoff and one for the rest. Chromatic clusters keep their
// order and the dark then light neutral are appended after them.
func foldNeutrals(cl []cluster, chroma, cutoff float64) []cluster {
	out := make([]cluster, 0, len(cl))
	var dark, light *cluster
	for _, c := range cl {
		if c.lab.chroma() >= chroma {
			out = append(out, c)
			continue
		}
		bucket := &light
		if c.lab.L < cutoff {
			bucket = &dark
		}
		if *bucket == nil {
			cp := c
			*bucket = &cp
		} else {
			merged := combine(**bucket, c)
			*bucket = &merged
		}
	}
	if dark != nil {
		out = append(out, *dark)
	}
	if light != nil {
		out = append(out, *light)
	}
	return out
}

// escalate reruns the merge with a threshold that grows by step whenever a
// pass makes no progress, until the count reaches target or the threshold
// passes limit. It returns the last threshold used.
func escalate(cl []cluster, target int, start, step, limit float64) ([]cluster, float64) {
	th := start
	for len(cl) > target && th <= limit {
		before := len(cl)
		cl = mergeWithin(cl, th)
		if len(cl) >= before {
			th += step
		}
	}
	return cl, th
}

// reduceGreedy merges the closest pair regardless of distance until at most
// target clusters remain.
func reduceGreedy(cl []cluster, target int) []cluster {
	for len(cl) > target && len(cl) > 1 {
		i, j, _ := closestPair(cl)
		cl = mergePair(cl, i, j)
	}
	return cl
}

// dropBelow removes clusters whose share of total is below ratio.
func dropBelow(cl []cluster, total int, ratio float64) []cluster {
	if total <= 0 {
		return cl[:0]
	}
	return slices.DeleteFunc(cl, func(c cluster) bool {
		return float64(c.weight)/float64(total) < ratio
	})
}

// sortByWeight orders clusters by descending weight, keeping the existing
// order among equals.
func sortByWeight(cl []cluster) {
	slices.SortStableFunc(cl, func(a, b cluster) int {
		return b.weight - a.weight
	})
}

// capClusters keeps the first limit clusters of a weight-sorted slice and
// adds the weight of every dropped cluster to its perceptually nearest
// survivor.
func capClusters(cl []cluster, limit int) []cluster {
	if len(cl) <= limit {
		return cl
	}
	keep := cl[:limit]
	for _, t := range cl[limit:] {
		nearest, best := 0, math.Inf(1)
		for i, k := range keep {
			if d := deltaE(k.lab, t.lab); d < best {
				nearest, best = i, d
			}
		}
		keep[nearest].weight += t.weight
	}
	return keep
}
