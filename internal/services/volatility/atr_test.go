package volatility

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"TrendPull/internal/domain/models"
)

func makeCandles(seed int64, n int) []models.Candle {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	out := make([]models.Candle, 0, n)
	close := 50.0
	for i := 0; i < n; i++ {
		close += rng.Float64()*2 - 1
		out = append(out, models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "MSFT",
			High:   close + rng.Float64(),
			Low:    close - rng.Float64(),
			Close:  close,
		})
	}
	return out
}

func TestSeriesWarmupIsNaN(t *testing.T) {
	candles := makeCandles(3, 40)
	got := NewATR(14).Series(candles)
	if len(got) != len(candles) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(candles))
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("warmup index %d not NaN: %v", i, got[i])
		}
	}
	for i := 14; i < len(got); i++ {
		if math.IsNaN(got[i]) || got[i] <= 0 {
			t.Fatalf("index %d: expected positive estimate, got %v", i, got[i])
		}
	}
}

func TestSeriesTooShortIsAllNaN(t *testing.T) {
	got := NewATR(14).Series(makeCandles(1, 14))
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("index %d should be NaN on a too-short series, got %v", i, v)
		}
	}
}

func TestStreamMatchesBatch(t *testing.T) {
	candles := makeCandles(7, 250)
	batch := NewATR(10).Series(candles)
	stream := NewStream(10)
	for i, c := range candles {
		got := stream.Update(c.High, c.Low, c.Close)
		if math.IsNaN(batch[i]) {
			if !math.IsNaN(got) {
				t.Fatalf("bar %d: stream ready before batch: %v", i, got)
			}
			continue
		}
		if math.Abs(got-batch[i]) > 1e-9 {
			t.Fatalf("bar %d: stream %v diverged from batch %v", i, got, batch[i])
		}
	}
}

func TestStreamConstantRange(t *testing.T) {
	s := NewStream(5)
	var last float64
	for i := 0; i < 50; i++ {
		last = s.Update(102, 98, 100)
	}
	if math.Abs(last-4) > 1e-9 {
		t.Fatalf("constant 4-point range should converge to 4, got %v", last)
	}
}
