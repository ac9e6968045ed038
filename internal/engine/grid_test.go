package engine

import (
	"math"
	"testing"
)

func TestFactorGridCount(t *testing.T) {
	got := factorGrid(1, 5, 0.5)
	if len(got) != 9 {
		t.Fatalf("expected 9 factors, got %d", len(got))
	}
	if got[0] != 1 || got[len(got)-1] != 5 {
		t.Fatalf("unexpected bounds %v .. %v", got[0], got[len(got)-1])
	}
}

func TestFactorGridOrdered(t *testing.T) {
	got := factorGrid(0.5, 3.5, 0.25)
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("grid not strictly increasing at %d: %v", i, got)
		}
	}
}

func TestFactorGridFloatDrift(t *testing.T) {
	// 0.1 steps accumulate binary drift; the epsilon must keep the top factor.
	got := factorGrid(1, 2, 0.1)
	if len(got) != 11 {
		t.Fatalf("expected 11 factors, got %d", len(got))
	}
	if math.Abs(got[10]-2) > 1e-6 {
		t.Fatalf("top factor drifted: %v", got[10])
	}
}
