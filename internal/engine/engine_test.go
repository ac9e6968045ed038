package engine

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"TrendPull/internal/domain/models"
)

var testBase = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func barAt(i int, high, low, close float64) models.Candle {
	return models.Candle{
		Bucket: testBase.Add(time.Duration(i) * time.Minute),
		Symbol: "AAPL",
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero atr length", func(c *Config) { c.ATRLength = 0 }},
		{"negative min factor", func(c *Config) { c.MinFactor = -1 }},
		{"max below min", func(c *Config) { c.MinFactor = 4; c.MaxFactor = 2 }},
		{"zero step", func(c *Config) { c.FactorStep = 0 }},
		{"zero perf alpha", func(c *Config) { c.PerfAlpha = 0 }},
		{"unknown cluster", func(c *Config) { c.FromCluster = "median" }},
		{"zero max iter", func(c *Config) { c.MaxIter = 0 }},
		{"negative max data", func(c *Config) { c.MaxData = -1 }},
		{"grid too small", func(c *Config) { c.MinFactor = 1; c.MaxFactor = 1.5; c.FactorStep = 1 }},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected construction error", c.name)
		}
	}
	if _, err := New(DefaultConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestRunRejectsLengthMismatch(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	candles := []models.Candle{barAt(0, 101, 99, 100)}
	if _, _, _, err := e.Run(candles, []float64{1, 1}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func randomSeries(seed int64, n int) ([]models.Candle, []float64) {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]models.Candle, 0, n)
	vols := make([]float64, 0, n)
	close := 100.0
	for i := 0; i < n; i++ {
		close += rng.Float64()*2 - 1
		candles = append(candles, barAt(i, close+rng.Float64(), close-rng.Float64(), close))
		vols = append(vols, 0.5+rng.Float64())
	}
	return candles, vols
}

func pointsEqual(a, b models.TrendPoint) bool {
	feq := func(x, y float64) bool {
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y
	}
	return a.Bucket.Equal(b.Bucket) &&
		a.Valid == b.Valid &&
		a.TrendUp == b.TrendUp &&
		feq(a.TrailingStop, b.TrailingStop) &&
		feq(a.AMA, b.AMA) &&
		feq(a.PerfIndex, b.PerfIndex) &&
		feq(a.TargetFactor, b.TargetFactor)
}

func TestRunDeterministic(t *testing.T) {
	candles, vols := randomSeries(11, 800)

	run := func() ([]models.TrendPoint, []models.TrendSignal) {
		e, err := New(DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		points, signals, _, err := e.Run(candles, vols)
		if err != nil {
			t.Fatal(err)
		}
		return points, signals
	}

	p1, s1 := run()
	p2, s2 := run()
	if len(p1) != len(p2) {
		t.Fatalf("point counts differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if !pointsEqual(p1[i], p2[i]) {
			t.Fatalf("point %d differs: %+v vs %+v", i, p1[i], p2[i])
		}
	}
	if !reflect.DeepEqual(s1, s2) {
		t.Fatalf("signals differ: %+v vs %+v", s1, s2)
	}
}

func TestNaNVolatilityHoldsState(t *testing.T) {
	candles, vols := randomSeries(23, 400)

	ref, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := range candles {
		ref.Step(candles[i], vols[i])
	}

	withGaps, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	nan := math.NaN()
	for i := range candles {
		withGaps.Step(candles[i], vols[i])
		if i%50 == 0 {
			// A bar with missing volatility must leave everything untouched.
			pt, sig := withGaps.Step(barAt(i, 1e6, -1e6, 5e5), nan)
			if pt.Valid {
				t.Fatalf("bar %d: point valid despite missing volatility", i)
			}
			if sig != nil {
				t.Fatalf("bar %d: signal emitted despite missing volatility", i)
			}
		}
	}

	if ref.synth != withGaps.synth {
		t.Fatalf("synthesizer state diverged after hold bars:\n%+v\n%+v", ref.synth, withGaps.synth)
	}
	for i := range ref.trackers {
		if ref.trackers[i] != withGaps.trackers[i] {
			t.Fatalf("tracker %d diverged after hold bars", i)
		}
	}
}

func TestMaxDataZeroNeverClusters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxData = 0
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	candles, vols := randomSeries(5, 600)
	points, signals, snap, err := e.Run(candles, vols)
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Fatalf("clustering ran with max_data 0")
	}
	if len(signals) != 0 {
		t.Fatalf("got %d signals without a cluster target", len(signals))
	}
	for i, p := range points {
		if p.Valid {
			t.Fatalf("point %d valid without a cluster target", i)
		}
	}
}

func TestMonotoneRiseFlipsLongExactlyOnce(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	candles := make([]models.Candle, 0, 300)
	vols := make([]float64, 0, 300)
	close := 100.0
	for i := 0; i < 300; i++ {
		close += 2
		candles = append(candles, barAt(i, close+1, close-1, close))
		vols = append(vols, 1)
	}
	points, signals, snap, err := e.Run(candles, vols)
	if err != nil {
		t.Fatal(err)
	}

	if snap == nil {
		t.Fatalf("expected a cluster snapshot on a long series")
	}
	if len(signals) != 1 {
		t.Fatalf("expected exactly one flip in a monotone rise, got %d", len(signals))
	}
	if signals[0].Direction != models.DirectionLong {
		t.Fatalf("monotone rise flipped %s", signals[0].Direction)
	}
	if signals[0].Strength < 0 || signals[0].Strength > 10 {
		t.Fatalf("strength out of range: %d", signals[0].Strength)
	}

	last := points[len(points)-1]
	if !last.Valid || !last.TrendUp {
		t.Fatalf("expected a valid uptrend at the end, got %+v", last)
	}
	if last.TrailingStop >= close {
		t.Fatalf("trailing stop %v should sit below price %v in an uptrend", last.TrailingStop, close)
	}
}

func TestFlatSeriesStaysSilent(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	candles := make([]models.Candle, 0, 200)
	vols := make([]float64, 0, 200)
	for i := 0; i < 200; i++ {
		candles = append(candles, barAt(i, 100, 100, 100))
		vols = append(vols, 0)
	}
	points, signals, _, err := e.Run(candles, vols)
	if err != nil {
		t.Fatal(err)
	}

	// All tracker scores stay at zero, so the best tier never fills and
	// the synthesizer never activates.
	if len(signals) != 0 {
		t.Fatalf("flat series produced %d signals", len(signals))
	}
	for i, p := range points {
		if p.Valid {
			t.Fatalf("point %d valid on a flat series", i)
		}
	}
	for i := range e.trackers {
		if e.trackers[i].upper != 100 || e.trackers[i].lower != 100 {
			t.Fatalf("tracker %d bands drifted off a flat price", i)
		}
	}
}

func TestAMABoundedByObservedStops(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	candles, vols := randomSeries(99, 1500)
	points, _, _, err := e.Run(candles, vols)
	if err != nil {
		t.Fatal(err)
	}

	minStop, maxStop := math.Inf(1), math.Inf(-1)
	seen := false
	for _, p := range points {
		if !p.Valid {
			continue
		}
		seen = true
		minStop = math.Min(minStop, p.TrailingStop)
		maxStop = math.Max(maxStop, p.TrailingStop)
		if p.AMA < minStop-1e-9 || p.AMA > maxStop+1e-9 {
			t.Fatalf("AMA %v escaped the observed stop range [%v, %v]", p.AMA, minStop, maxStop)
		}
		if p.PerfIndex < 0 || p.PerfIndex > 1+1e-9 {
			t.Fatalf("performance index out of [0,1]: %v", p.PerfIndex)
		}
	}
	if !seen {
		t.Fatalf("no valid points produced on a long random series")
	}
}
