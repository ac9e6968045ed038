package models

import "time"

// TrendPoint is the per-bar output of the adaptive trend engine.
// Valid is false during warmup (no volatility or no cluster target yet);
// numeric fields carry no meaning in that case.
type TrendPoint struct {
	Bucket       time.Time `json:"bucket"`
	TrailingStop float64   `json:"trailing_stop"`
	TrendUp      bool      `json:"trend_up"`
	AMA          float64   `json:"ama"`
	PerfIndex    float64   `json:"perf_index"`
	TargetFactor float64   `json:"target_factor"`
	Valid        bool      `json:"valid"`
}

// TrendSignal is emitted when the adaptive trailing stop flips direction.
type TrendSignal struct {
	RunID        string    `json:"run_id"`
	Symbol       string    `json:"symbol"`
	Bucket       time.Time `json:"bucket"`
	Direction    string    `json:"direction"` // "long" or "short"
	Price        float64   `json:"price"`
	Strength     int       `json:"strength"` // 0..10, from the performance index
	TargetFactor float64   `json:"target_factor"`
	PerfIndex    float64   `json:"perf_index"`
}

// Signal direction values.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// ClusterBucket describes one performance tier after k-means labeling.
type ClusterBucket struct {
	Label    string    `json:"label"` // "worst", "average", "best"
	Centroid float64   `json:"centroid"`
	Size     int       `json:"size"`
	Factors  []float64 `json:"factors"`
}

// ClusterSnapshot is the diagnostic view of the most recent clustering pass.
type ClusterSnapshot struct {
	Bucket     time.Time       `json:"bucket"`
	Iterations int             `json:"iterations"`
	Buckets    []ClusterBucket `json:"buckets"`
}

// TrendResult is a full engine run over a candle series.
type TrendResult struct {
	RunID     string           `json:"run_id"`
	Symbol    string           `json:"symbol"`
	Timeframe string           `json:"timeframe"`
	Count     int              `json:"count"`
	Points    []TrendPoint     `json:"points"`
	Signals   []TrendSignal    `json:"signals"`
	Clusters  *ClusterSnapshot `json:"clusters,omitempty"`
}
