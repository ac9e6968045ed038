package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	domsvc "TrendPull/internal/domain/service"
	"TrendPull/internal/engine"
	"TrendPull/internal/services/volatility"
	"TrendPull/internal/usecase"
	applogger "TrendPull/pkg/logger"
)

type stubFeatureStore struct {
	candles []models.Candle
}

func (s *stubFeatureStore) GetCandles(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	return s.candles, nil
}

func (s *stubFeatureStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if n >= len(s.candles) {
		return s.candles, nil
	}
	return s.candles[len(s.candles)-n:], nil
}

type stubSignalStorage struct {
	signals []*models.TrendSignal
}

func (s *stubSignalStorage) Init(context.Context) error                          { return nil }
func (s *stubSignalStorage) Store(context.Context, *models.TrendSignal) error    { return nil }
func (s *stubSignalStorage) StoreBatch(context.Context, []*models.TrendSignal) error {
	return nil
}
func (s *stubSignalStorage) Query(context.Context, string, time.Time, time.Time, int) ([]*models.TrendSignal, error) {
	return s.signals, nil
}
func (s *stubSignalStorage) Health(context.Context) error { return nil }
func (s *stubSignalStorage) Close() error                 { return nil }

type quietMetrics struct{}

func (quietMetrics) RecordBarProcessed(string)           {}
func (quietMetrics) RecordLastPrice(string, float64)     {}
func (quietMetrics) RecordSignal(string, string, string) {}
func (quietMetrics) RecordError(string)                  {}
func (quietMetrics) RecordTrailingStop(string, float64)  {}
func (quietMetrics) RecordClusterRun(string, int)        {}
func (quietMetrics) RecordLatency(string, float64)       {}

func trendingCandles(n int) []models.Candle {
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

func newTestHandler(t *testing.T, candles []models.Candle, stored []*models.TrendSignal) *TrendHandler {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	store := &stubFeatureStore{candles: candles}
	cfg := engine.DefaultConfig()
	factory := func(c engine.Config) (domsvc.TrendAnalyzer, error) { return engine.New(c) }
	trend := usecase.NewTrendUseCase(store, volatility.NewATR(cfg.ATRLength), factory, nil, quietMetrics{}, cfg)
	return NewTrendHandler(l, trend, usecase.NewCandlesUseCase(store), &stubSignalStorage{signals: stored})
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func doGET(t *testing.T, h *TrendHandler, target string) envelope {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestTrendRejectsMissingSymbol(t *testing.T) {
	h := newTestHandler(t, trendingCandles(300), nil)
	env := doGET(t, h, "/api/trend")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope, got %d", env.Status)
	}
}

func TestTrendRejectsBadTimeframe(t *testing.T) {
	h := newTestHandler(t, trendingCandles(300), nil)
	env := doGET(t, h, "/api/trend?symbol=AAPL&tf=7h")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope, got %d", env.Status)
	}
}

func TestTrendReturnsSeries(t *testing.T) {
	h := newTestHandler(t, trendingCandles(300), nil)
	env := doGET(t, h, "/api/trend?symbol=AAPL&n=300")
	if env.Status != http.StatusOK {
		t.Fatalf("expected 200 envelope, got %d", env.Status)
	}
	var res models.TrendResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Count != 300 || res.RunID == "" {
		t.Fatalf("unexpected result: count=%d run_id=%q", res.Count, res.RunID)
	}
}

func TestSignalsPrefersStoredFlips(t *testing.T) {
	stored := []*models.TrendSignal{{
		Symbol:    "AAPL",
		Direction: models.DirectionLong,
		Price:     123.4,
		Strength:  7,
	}}
	h := newTestHandler(t, trendingCandles(300), stored)
	env := doGET(t, h, "/api/signals?symbol=AAPL")
	if env.Status != http.StatusOK {
		t.Fatalf("expected 200 envelope, got %d", env.Status)
	}
	var got []models.TrendSignal
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Price != 123.4 {
		t.Fatalf("expected the stored signal back, got %+v", got)
	}
}

func TestClustersBeforeWarmupIsNotFound(t *testing.T) {
	// Too few bars for the volatility estimator, so no cluster pass can run.
	h := newTestHandler(t, trendingCandles(5), nil)
	env := doGET(t, h, "/api/clusters?symbol=AAPL")
	if env.Status != http.StatusNotFound {
		t.Fatalf("expected 404 envelope, got %d", env.Status)
	}
}
