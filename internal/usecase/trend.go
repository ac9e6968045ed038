package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	domsvc "TrendPull/internal/domain/service"
	"TrendPull/internal/engine"
	pkgcache "TrendPull/pkg/cache"
	applogger "TrendPull/pkg/logger"
)

// AnalyzerFactory builds a fresh analyzer per request so every run starts
// from clean state and identical inputs reproduce identical outputs.
type AnalyzerFactory func(cfg engine.Config) (domsvc.TrendAnalyzer, error)

// TrendUseCase computes the adaptive trend series for a symbol from stored
// candles, with a read-through cache in front of the computation.
type TrendUseCase struct {
	store   domrepo.FeatureStore
	vol     domsvc.VolatilityEstimator
	factory AnalyzerFactory
	cache   pkgcache.Service
	metrics domrepo.Metrics
	base    engine.Config
	l       *applogger.Logger
}

func NewTrendUseCase(
	store domrepo.FeatureStore,
	vol domsvc.VolatilityEstimator,
	factory AnalyzerFactory,
	cache pkgcache.Service,
	metrics domrepo.Metrics,
	base engine.Config,
) *TrendUseCase {
	return &TrendUseCase{
		store:   store,
		vol:     vol,
		factory: factory,
		cache:   cache,
		metrics: metrics,
		base:    base,
	}
}

// SetLogger injects a structured logger.
func (uc *TrendUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

type TrendParams struct {
	Symbol      string
	N           int
	Timeframe   domrepo.Timeframe
	FromCluster engine.ClusterChoice
	PerfAlpha   float64
}

func (p TrendParams) cacheKey() string {
	return pkgcache.GenerateKeyWithParams("trendpull:trend",
		p.Symbol, string(p.Timeframe), p.N, string(p.FromCluster), p.PerfAlpha)
}

// ttlForTF keeps cached results around no longer than one bar of staleness
// is worth.
func ttlForTF(tf domrepo.Timeframe) time.Duration {
	switch tf {
	case domrepo.TF1s:
		return 2 * time.Second
	case domrepo.TF5m:
		return 2 * time.Minute
	default:
		return 30 * time.Second
	}
}

// ComputeTrend runs the full pipeline: candles, volatility, analyzer. Cached
// results are returned as-is, including their original run id.
func (uc *TrendUseCase) ComputeTrend(ctx context.Context, p TrendParams) (*models.TrendResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}

	key := p.cacheKey()
	if uc.cache != nil {
		var cached models.TrendResult
		if err := uc.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	start := time.Now()
	result, err := uc.compute(ctx, p)
	if err != nil {
		uc.metrics.RecordError("trend_compute")
		return nil, err
	}
	uc.metrics.RecordLatency("trend_compute", time.Since(start).Seconds())

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, result, ttlForTF(p.Timeframe)); err != nil && uc.l != nil {
			uc.l.Warn("trend cache set failed",
				applogger.String("key", key),
				applogger.Error(err),
			)
		}
	}
	return result, nil
}

func (uc *TrendUseCase) compute(ctx context.Context, p TrendParams) (*models.TrendResult, error) {
	cfg := uc.base
	if p.FromCluster != "" {
		cfg.FromCluster = p.FromCluster
	}
	if p.PerfAlpha > 0 {
		cfg.PerfAlpha = p.PerfAlpha
	}

	analyzer, err := uc.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}

	candles, err := uc.store.GetLatestNCandles(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}

	vols := uc.vol.Series(candles)
	points, signals, clusters, err := analyzer.Run(candles, vols)
	if err != nil {
		return nil, fmt.Errorf("run analyzer: %w", err)
	}
	// Warmup points carry NaN internally, which JSON cannot represent.
	for i := range points {
		if !points[i].Valid {
			points[i].TrailingStop = 0
			points[i].AMA = 0
			points[i].PerfIndex = 0
			points[i].TargetFactor = 0
		}
	}

	runID := uuid.NewString()
	for i := range signals {
		signals[i].RunID = runID
	}

	if uc.l != nil {
		uc.l.Info("trend computed",
			applogger.String("symbol", p.Symbol),
			applogger.String("tf", string(p.Timeframe)),
			applogger.Int("candles", len(candles)),
			applogger.Int("signals", len(signals)),
			applogger.String("run_id", runID),
		)
	}

	return &models.TrendResult{
		RunID:     runID,
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Count:     len(points),
		Points:    points,
		Signals:   signals,
		Clusters:  clusters,
	}, nil
}

// InvalidateSymbol drops every cached trend result for a symbol, for use
// after backfills or data repairs.
func (uc *TrendUseCase) InvalidateSymbol(ctx context.Context, symbol string) error {
	if uc.cache == nil {
		return nil
	}
	pattern := pkgcache.BuildPattern(pkgcache.GenerateKey("trendpull:trend", symbol))
	return uc.cache.DeleteByPattern(ctx, pattern)
}
