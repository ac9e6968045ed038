package volatility

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/domain/service"
)

// ATR estimates per-bar volatility as Wilder's average true range. Bars that
// fall inside the warmup window come back as NaN so downstream consumers can
// tell "no estimate yet" apart from a zero-range market.
type ATR struct {
	length int
}

func NewATR(length int) *ATR {
	return &ATR{length: length}
}

// Series computes the ATR for a finite candle slice. The output aligns
// one-to-one with the input; the first `length` entries are NaN.
func (a *ATR) Series(candles []models.Candle) []float64 {
	n := len(candles)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= a.length {
		return out
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	atr := talib.Atr(highs, lows, closes, a.length)
	copy(out[a.length:], atr[a.length:])
	return out
}

var _ service.VolatilityEstimator = (*ATR)(nil)

// Stream is the incremental counterpart of ATR for the live tick path. It
// reproduces the batch series bar for bar, so a restart from history and a
// long-running stream agree.
type Stream struct {
	length    int
	prevClose float64
	hasPrev   bool

	warmupSum float64
	warmupN   int
	atr       float64
	ready     bool
}

func NewStream(length int) *Stream {
	return &Stream{length: length}
}

// Update folds in one bar and returns the current estimate, or NaN while the
// warmup window is still filling.
func (s *Stream) Update(high, low, close float64) float64 {
	if !s.hasPrev {
		s.prevClose = close
		s.hasPrev = true
		return math.NaN()
	}

	tr := math.Max(high-low, math.Max(math.Abs(high-s.prevClose), math.Abs(low-s.prevClose)))
	s.prevClose = close

	if !s.ready {
		s.warmupSum += tr
		s.warmupN++
		if s.warmupN < s.length {
			return math.NaN()
		}
		s.atr = s.warmupSum / float64(s.length)
		s.ready = true
		return s.atr
	}

	s.atr = (s.atr*float64(s.length-1) + tr) / float64(s.length)
	return s.atr
}
