package engine

import "fmt"

// ClusterChoice selects which performance tier drives the adaptive factor.
type ClusterChoice string

const (
	ClusterWorst   ClusterChoice = "worst"
	ClusterAverage ClusterChoice = "average"
	ClusterBest    ClusterChoice = "best"
)

// Config holds the engine parameters. All values are fixed for the lifetime
// of an Engine; invalid combinations are rejected at construction.
type Config struct {
	ATRLength   int
	MinFactor   float64
	MaxFactor   float64
	FactorStep  float64
	PerfAlpha   float64
	FromCluster ClusterChoice
	MaxIter     int
	MaxData     int
}

// DefaultConfig mirrors the conventional SuperTrend AI parameterization.
func DefaultConfig() Config {
	return Config{
		ATRLength:   10,
		MinFactor:   1,
		MaxFactor:   5,
		FactorStep:  0.5,
		PerfAlpha:   10,
		FromCluster: ClusterBest,
		MaxIter:     1000,
		MaxData:     200,
	}
}

// Validate checks the configuration. It fails fast so a bad config never
// reaches bar processing.
func (c Config) Validate() error {
	if c.ATRLength <= 0 {
		return fmt.Errorf("atr_length must be positive, got %d", c.ATRLength)
	}
	if c.MaxFactor < c.MinFactor {
		return fmt.Errorf("max_factor %v must be >= min_factor %v", c.MaxFactor, c.MinFactor)
	}
	if c.MinFactor <= 0 {
		return fmt.Errorf("min_factor must be positive, got %v", c.MinFactor)
	}
	if c.FactorStep <= 0 {
		return fmt.Errorf("factor_step must be positive, got %v", c.FactorStep)
	}
	if c.PerfAlpha <= 0 {
		return fmt.Errorf("perf_alpha must be positive, got %v", c.PerfAlpha)
	}
	switch c.FromCluster {
	case ClusterWorst, ClusterAverage, ClusterBest:
	default:
		return fmt.Errorf("from_cluster must be worst, average or best, got %q", c.FromCluster)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("max_iter must be positive, got %d", c.MaxIter)
	}
	if c.MaxData < 0 {
		return fmt.Errorf("max_data must be >= 0, got %d", c.MaxData)
	}
	if n := gridSize(c.MinFactor, c.MaxFactor, c.FactorStep); n < 3 {
		return fmt.Errorf("factor grid has %d entries, need at least 3 for clustering", n)
	}
	return nil
}
