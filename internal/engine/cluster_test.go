package engine

import (
	"math"
	"testing"
)

func TestPercentileInterpolation(t *testing.T) {
	data := []float64{10, 20, 30, 40}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{25, 17.5},
		{50, 25},
		{75, 32.5},
		{100, 40},
	}
	for _, c := range cases {
		if got := percentile(data, c.p); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("percentile(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPercentileSingleElement(t *testing.T) {
	if got := percentile([]float64{42}, 75); got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestSeedCentroidsUsesCurrentScoresOnly(t *testing.T) {
	scores := []float64{5, 1, 3, 2, 4}
	a := seedCentroids(scores)
	b := seedCentroids(scores)
	if a != b {
		t.Fatalf("re-seeding with identical scores diverged: %v vs %v", a, b)
	}
	if a[0] >= a[1] || a[1] >= a[2] {
		t.Fatalf("expected ordered seeds, got %v", a)
	}
	if scores[0] != 5 {
		t.Fatalf("seedCentroids must not mutate input")
	}
}

func TestKmeansPartitionComplete(t *testing.T) {
	scores := []float64{-3, -2.5, -0.1, 0, 0.2, 2.9, 3, 3.1, 4}
	factors := []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}
	res := kmeans(scores, factors, 100)

	total := 0
	for _, b := range res.buckets {
		total += len(b.scores)
		if len(b.scores) != len(b.factors) {
			t.Fatalf("bucket scores/factors out of sync")
		}
	}
	if total != len(scores) {
		t.Fatalf("partition lost members: %d of %d", total, len(scores))
	}
	if res.buckets[0].centroid > res.buckets[1].centroid || res.buckets[1].centroid > res.buckets[2].centroid {
		t.Fatalf("buckets not sorted by centroid: %+v", res.buckets)
	}
}

func TestKmeansTieGoesToLowestCentroid(t *testing.T) {
	// Percentile seeds here are 5, 5 and 6, so the three 5-scores are at
	// distance zero from two centroids at once. They must all land in the
	// lower-indexed bucket, leaving the middle one empty.
	scores := []float64{5, 5, 5, 9}
	factors := []float64{1, 2, 3, 4}
	res := kmeans(scores, factors, 100)

	if len(res.buckets[0].scores) != 3 {
		t.Fatalf("tied scores should collapse into the lowest bucket: %+v", res.buckets)
	}
	if len(res.buckets[1].scores) != 0 {
		t.Fatalf("middle bucket should stay empty on ties: %+v", res.buckets)
	}
	if len(res.buckets[2].scores) != 1 || res.buckets[2].scores[0] != 9 {
		t.Fatalf("outlier should own the top bucket: %+v", res.buckets)
	}
}

func TestKmeansEmptyBucketKeepsCentroid(t *testing.T) {
	// All identical scores collapse into the first bucket; the others keep
	// their seeded centroid instead of going NaN.
	scores := []float64{1, 1, 1, 1}
	factors := []float64{1, 2, 3, 4}
	res := kmeans(scores, factors, 50)

	total := 0
	for _, b := range res.buckets {
		if math.IsNaN(b.centroid) {
			t.Fatalf("empty bucket produced NaN centroid")
		}
		total += len(b.scores)
	}
	if total != len(scores) {
		t.Fatalf("partition incomplete")
	}
}

func TestKmeansDeterministic(t *testing.T) {
	scores := []float64{0.3, -1.2, 4.4, 2.2, 2.3, -0.8, 1.1, 0.9}
	factors := []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5}
	a := kmeans(scores, factors, 1000)
	b := kmeans(scores, factors, 1000)
	if a.iterations != b.iterations {
		t.Fatalf("iteration counts differ: %d vs %d", a.iterations, b.iterations)
	}
	for j := 0; j < 3; j++ {
		if a.buckets[j].centroid != b.buckets[j].centroid {
			t.Fatalf("centroid %d differs: %v vs %v", j, a.buckets[j].centroid, b.buckets[j].centroid)
		}
		if len(a.buckets[j].scores) != len(b.buckets[j].scores) {
			t.Fatalf("bucket %d sizes differ", j)
		}
	}
}

func TestKmeansRespectsMaxIter(t *testing.T) {
	scores := []float64{-5, -4, 0, 0.1, 6, 7, 8, 9}
	factors := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	res := kmeans(scores, factors, 2)
	if res.iterations > 2 {
		t.Fatalf("exceeded iteration cap: %d", res.iterations)
	}
}

func TestMeanOf(t *testing.T) {
	if got := meanOf([]float64{1, 2, 3}); got != 2 {
		t.Fatalf("mean = %v, want 2", got)
	}
	if !math.IsNaN(meanOf(nil)) {
		t.Fatalf("empty mean should be NaN")
	}
}
