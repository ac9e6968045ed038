package engine

// gridEpsilon absorbs float drift when stepping from min to max factor.
const gridEpsilon = 1e-9

// gridSize returns the number of multipliers the grid will contain.
func gridSize(min, max, step float64) int {
	if step <= 0 || max < min {
		return 0
	}
	return int((max-min+gridEpsilon)/step) + 1
}

// factorGrid generates the ordered, strictly increasing multiplier grid.
// Factors are derived by index so the grid is identical across runs.
func factorGrid(min, max, step float64) []float64 {
	n := gridSize(min, max, step)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, min+float64(i)*step)
	}
	return out
}
