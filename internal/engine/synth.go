package engine

import "math"

// synthesizer maintains the adaptive trailing stop driven by the cluster
// target factor, plus the smoothed output line (AMA) and performance index.
// Its ratchet state is independent from every grid tracker.
type synthesizer struct {
	targetFactor float64
	perfIndex    float64
	hasTarget    bool

	// EMA of absolute close-to-close moves, the performance index denominator.
	den float64

	upper     float64
	lower     float64
	trendUp   bool
	stop      float64
	prevClose float64
	seeded    bool

	ama     float64
	amaInit bool
}

// setTarget installs a fresh cluster outcome. meanScore is the mean tracker
// score of the selected tier; negative means are floored to zero so the
// index never goes negative.
func (s *synthesizer) setTarget(targetFactor, meanScore float64) {
	s.targetFactor = targetFactor
	if s.den > 0 {
		s.perfIndex = math.Max(meanScore, 0) / s.den
	} else {
		s.perfIndex = 0
	}
	s.hasTarget = true
}

// updateDen advances the denominator EMA. Called once per valid bar after
// the first, before any perf index read.
func (s *synthesizer) updateDen(close, prevClose, alpha float64) {
	s.den += alpha * (math.Abs(close-prevClose) - s.den)
}

// update advances the adaptive stop by one valid bar. Returns true when the
// trend direction flipped on this bar.
func (s *synthesizer) update(high, low, close, vol float64) bool {
	if !s.hasTarget {
		return false
	}
	mid := (high + low) / 2
	band := vol * s.targetFactor
	up := mid + band
	dn := mid - band

	if !s.seeded {
		s.upper = mid
		s.lower = mid
		s.trendUp = false
		s.stop = s.upper
		s.prevClose = close
		s.seeded = true
		s.ama = s.stop
		s.amaInit = true
		return false
	}

	prevClose := s.prevClose
	prevTrend := s.trendUp

	if prevClose < s.upper {
		s.upper = math.Min(up, s.upper)
	} else {
		s.upper = up
	}
	if prevClose > s.lower {
		s.lower = math.Max(dn, s.lower)
	} else {
		s.lower = dn
	}

	switch {
	case close > s.upper:
		s.trendUp = true
	case close < s.lower:
		s.trendUp = false
	}

	if s.trendUp {
		s.stop = s.lower
	} else {
		s.stop = s.upper
	}
	s.prevClose = close

	// AMA chases the stop at a rate set by the performance index, so the
	// line goes flat when recent performance is poor.
	s.ama += s.perfIndex * (s.stop - s.ama)

	return s.trendUp != prevTrend
}

// strength maps the performance index onto a 0..10 integer for signals.
func (s *synthesizer) strength() int {
	return int(math.Min(s.perfIndex, 1) * 10)
}
