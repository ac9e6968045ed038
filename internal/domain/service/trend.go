package service

import "TrendPull/internal/domain/models"

// VolatilityEstimator produces one volatility value per input bar.
// Warmup entries must be NaN so the engine holds state until enough data exists.
type VolatilityEstimator interface {
	Series(candles []models.Candle) []float64
}

// TrendAnalyzer runs the adaptive trend computation over a finite bar series.
type TrendAnalyzer interface {
	Run(candles []models.Candle, vols []float64) ([]models.TrendPoint, []models.TrendSignal, *models.ClusterSnapshot, error)
}
