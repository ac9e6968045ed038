package engine

import (
	"math"
	"sort"
)

// clusterResult is the outcome of one k-means pass over tracker scores.
type clusterResult struct {
	// buckets are sorted by centroid ascending: worst, average, best.
	buckets    [3]clusterBucket
	iterations int
}

type clusterBucket struct {
	centroid float64
	factors  []float64
	scores   []float64
}

// percentile computes the p-quantile (0..100) of sorted data with linear
// interpolation between adjacent ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// seedCentroids re-seeds from the 25/50/75th percentiles of the current
// scores only, so stale history cannot bias a fresh pass.
func seedCentroids(scores []float64) [3]float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	return [3]float64{
		percentile(sorted, 25),
		percentile(sorted, 50),
		percentile(sorted, 75),
	}
}

// kmeans partitions the scores into three buckets with Lloyd's algorithm.
// Ties go to the lowest-indexed centroid; an empty bucket keeps its centroid.
// It stops when assignments are stable or maxIter passes have run.
func kmeans(scores, factors []float64, maxIter int) clusterResult {
	centroids := seedCentroids(scores)
	assign := make([]int, len(scores))
	for i := range assign {
		assign[i] = -1
	}

	iterations := 0
	for iterations < maxIter {
		iterations++
		changed := false
		for i, s := range scores {
			best := 0
			bestDist := math.Abs(s - centroids[0])
			for j := 1; j < 3; j++ {
				if d := math.Abs(s - centroids[j]); d < bestDist {
					best = j
					bestDist = d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		for j := 0; j < 3; j++ {
			sum, n := 0.0, 0
			for i, a := range assign {
				if a == j {
					sum += scores[i]
					n++
				}
			}
			if n > 0 {
				centroids[j] = sum / float64(n)
			}
		}
	}

	var res clusterResult
	res.iterations = iterations
	for j := 0; j < 3; j++ {
		res.buckets[j].centroid = centroids[j]
	}
	for i, a := range assign {
		res.buckets[a].scores = append(res.buckets[a].scores, scores[i])
		res.buckets[a].factors = append(res.buckets[a].factors, factors[i])
	}

	// Percentile seeding keeps centroids ordered in the common case, but
	// mean recomputation can cross them. Label by value, not by seed slot.
	sort.SliceStable(res.buckets[:], func(a, b int) bool {
		return res.buckets[a].centroid < res.buckets[b].centroid
	})
	return res
}

// meanOf returns the arithmetic mean, or NaN for an empty slice.
func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
