package usecase

import (
	"context"
	"testing"
	"time"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	domsvc "TrendPull/internal/domain/service"
	"TrendPull/internal/engine"
	"TrendPull/internal/services/volatility"
	pkgcache "TrendPull/pkg/cache"
)

type fakeFeatureStore struct {
	candles []models.Candle
}

func (f *fakeFeatureStore) GetCandles(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	return f.candles, nil
}

func (f *fakeFeatureStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if n >= len(f.candles) {
		return f.candles, nil
	}
	return f.candles[len(f.candles)-n:], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordBarProcessed(string)           {}
func (nopMetrics) RecordLastPrice(string, float64)     {}
func (nopMetrics) RecordSignal(string, string, string) {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordTrailingStop(string, float64)  {}
func (nopMetrics) RecordClusterRun(string, int)        {}
func (nopMetrics) RecordLatency(string, float64)       {}

func risingCandles(n int) []models.Candle {
	base := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	out := make([]models.Candle, 0, n)
	close := 100.0
	for i := 0; i < n; i++ {
		close += 2
		out = append(out, models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "AAPL",
			Open:   close - 2,
			High:   close + 1,
			Low:    close - 3,
			Close:  close,
		})
	}
	return out
}

func newTrendUseCase(store domrepo.FeatureStore, cache pkgcache.Service) *TrendUseCase {
	cfg := engine.DefaultConfig()
	factory := func(c engine.Config) (domsvc.TrendAnalyzer, error) { return engine.New(c) }
	return NewTrendUseCase(store, volatility.NewATR(cfg.ATRLength), factory, cache, nopMetrics{}, cfg)
}

func TestComputeTrendTagsSignalsWithRunID(t *testing.T) {
	uc := newTrendUseCase(&fakeFeatureStore{candles: risingCandles(300)}, nil)

	res, err := uc.ComputeTrend(context.Background(), TrendParams{
		Symbol:    "AAPL",
		N:         300,
		Timeframe: domrepo.TF1m,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
	if res.Count != 300 {
		t.Fatalf("expected 300 points, got %d", res.Count)
	}
	if len(res.Signals) == 0 {
		t.Fatalf("rising series should flip at least once")
	}
	for _, s := range res.Signals {
		if s.RunID != res.RunID {
			t.Fatalf("signal run id %q differs from result %q", s.RunID, res.RunID)
		}
	}
	for _, p := range res.Points {
		if !p.Valid && p.TrailingStop != 0 {
			t.Fatalf("warmup point leaked a non-zero stop: %+v", p)
		}
	}
}

func TestComputeTrendServesCachedResult(t *testing.T) {
	cache := pkgcache.NewMemoryCache()
	uc := newTrendUseCase(&fakeFeatureStore{candles: risingCandles(300)}, cache)

	params := TrendParams{Symbol: "AAPL", N: 300, Timeframe: domrepo.TF1m}
	first, err := uc.ComputeTrend(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	second, err := uc.ComputeTrend(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	// A cache hit keeps the original run id; a recompute would mint a new one.
	if first.RunID != second.RunID {
		t.Fatalf("expected cached result, got a fresh run: %q vs %q", first.RunID, second.RunID)
	}
}

func TestComputeTrendRejectsBadParams(t *testing.T) {
	uc := newTrendUseCase(&fakeFeatureStore{candles: risingCandles(10)}, nil)
	if _, err := uc.ComputeTrend(context.Background(), TrendParams{N: 10}); err == nil {
		t.Fatalf("expected error on empty symbol")
	}
	if _, err := uc.ComputeTrend(context.Background(), TrendParams{Symbol: "AAPL"}); err == nil {
		t.Fatalf("expected error on non-positive n")
	}
}
