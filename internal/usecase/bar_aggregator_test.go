package usecase

import (
	"testing"
	"time"

	"TrendPull/internal/domain/models"
)

func tradeAt(symbol string, ts int64, price, vol float64) *models.Trade {
	return &models.Trade{Symbol: symbol, Timestamp: ts, Price: price, Volume: vol}
}

func TestAggregatorBuildsOHLCV(t *testing.T) {
	agg := NewBarAggregator(time.Minute)
	base := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC).Unix()

	if got := agg.Add(tradeAt("AAPL", base, 100, 1)); got != nil {
		t.Fatalf("first trade should not close a bar")
	}
	agg.Add(tradeAt("AAPL", base+10, 105, 2))
	agg.Add(tradeAt("AAPL", base+30, 98, 1))
	agg.Add(tradeAt("AAPL", base+59, 101, 3))

	done := agg.Add(tradeAt("AAPL", base+60, 102, 1))
	if done == nil {
		t.Fatalf("bucket rollover should close the bar")
	}
	if done.Open != 100 || done.High != 105 || done.Low != 98 || done.Close != 101 {
		t.Fatalf("bad OHLC: %+v", done)
	}
	if done.Volume != 7 {
		t.Fatalf("volume should sum to 7, got %v", done.Volume)
	}
	if !done.Bucket.Equal(time.Unix(base, 0).UTC()) {
		t.Fatalf("bad bucket: %v", done.Bucket)
	}
}

func TestAggregatorKeepsSymbolsApart(t *testing.T) {
	agg := NewBarAggregator(time.Minute)
	base := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC).Unix()

	agg.Add(tradeAt("AAPL", base, 100, 1))
	agg.Add(tradeAt("MSFT", base, 300, 1))

	done := agg.Add(tradeAt("AAPL", base+60, 101, 1))
	if done == nil || done.Symbol != "AAPL" {
		t.Fatalf("rollover should only close the rolling symbol, got %+v", done)
	}

	bars := agg.Flush()
	if len(bars) != 2 {
		t.Fatalf("expected two open bars after flush, got %d", len(bars))
	}
}

func TestAggregatorDropsLateTrades(t *testing.T) {
	agg := NewBarAggregator(time.Minute)
	base := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC).Unix()

	agg.Add(tradeAt("AAPL", base+60, 100, 1))
	if got := agg.Add(tradeAt("AAPL", base, 90, 1)); got != nil {
		t.Fatalf("late trade must not close a bar")
	}
	bars := agg.Flush()
	if len(bars) != 1 || bars[0].Low != 100 {
		t.Fatalf("late trade leaked into the open bar: %+v", bars)
	}
}

func TestAggregatorIgnoresInvalidTrades(t *testing.T) {
	agg := NewBarAggregator(time.Minute)
	if got := agg.Add(nil); got != nil {
		t.Fatalf("nil trade should be ignored")
	}
	if got := agg.Add(tradeAt("", 100, 1, 1)); got != nil {
		t.Fatalf("empty symbol should be ignored")
	}
	if got := agg.Add(tradeAt("AAPL", 0, 1, 1)); got != nil {
		t.Fatalf("zero timestamp should be ignored")
	}
	if bars := agg.Flush(); len(bars) != 0 {
		t.Fatalf("no bars should be open, got %d", len(bars))
	}
}
