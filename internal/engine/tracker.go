package engine

import "math"

// tracker is a ratcheting trailing-stop state machine for one factor.
// The first valid bar seeds both bands at the bar midpoint with the trend
// flag down; from then on bands only tighten while price stays inside them.
type tracker struct {
	factor    float64
	upper     float64
	lower     float64
	trendUp   bool
	output    float64
	score     float64
	prevClose float64
	seeded    bool
}

// update advances the tracker by one bar. vol must be a finite volatility
// value; NaN bars are filtered out before this is called.
func (t *tracker) update(high, low, close, vol, alpha float64) {
	mid := (high + low) / 2
	band := vol * t.factor
	up := mid + band
	dn := mid - band

	if !t.seeded {
		t.upper = mid
		t.lower = mid
		t.trendUp = false
		t.output = t.upper
		t.prevClose = close
		t.seeded = true
		return
	}

	prevClose := t.prevClose
	prevOutput := t.output

	// Ratchet: tighten only while the previous close was inside the band,
	// otherwise reset to the fresh candidate.
	if prevClose < t.upper {
		t.upper = math.Min(up, t.upper)
	} else {
		t.upper = up
	}
	if prevClose > t.lower {
		t.lower = math.Max(dn, t.lower)
	} else {
		t.lower = dn
	}

	// Trend decision against the freshly ratcheted bands; in between, hold.
	switch {
	case close > t.upper:
		t.trendUp = true
	case close < t.lower:
		t.trendUp = false
	}

	if t.trendUp {
		t.output = t.lower
	} else {
		t.output = t.upper
	}

	// Exponentially smoothed performance of following this tracker's stance.
	diff := signOf(prevClose - prevOutput)
	t.score += alpha * ((close-prevClose)*diff - t.score)
	t.prevClose = close
}

func signOf(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
