package engine

import (
	"fmt"
	"math"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/domain/service"
)

// Engine runs a bank of per-factor trailing-stop trackers, clusters their
// performance scores, and synthesizes a single adaptive trailing stop from
// the selected tier. Bars are processed strictly in order and the same
// inputs always produce the same outputs.
type Engine struct {
	cfg      Config
	factors  []float64
	trackers []tracker
	alpha    float64
	synth    synthesizer

	prevClose float64
	hasPrev   bool

	snapshot *models.ClusterSnapshot
}

// New builds an engine from a validated configuration.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	factors := factorGrid(cfg.MinFactor, cfg.MaxFactor, cfg.FactorStep)
	trackers := make([]tracker, len(factors))
	for i, f := range factors {
		trackers[i].factor = f
	}
	return &Engine{
		cfg:      cfg,
		factors:  factors,
		trackers: trackers,
		alpha:    2 / (cfg.PerfAlpha + 1),
	}, nil
}

// Factors returns the multiplier grid (read-only view for diagnostics).
func (e *Engine) Factors() []float64 {
	out := make([]float64, len(e.factors))
	copy(out, e.factors)
	return out
}

// Snapshot returns the most recent clustering outcome, or nil when no
// eligible pass has run yet.
func (e *Engine) Snapshot() *models.ClusterSnapshot { return e.snapshot }

// Step processes the newest bar of a live series. The bar is treated as the
// most recent one, so clustering eligibility only depends on MaxData > 0.
func (e *Engine) Step(bar models.Candle, vol float64) (models.TrendPoint, *models.TrendSignal) {
	return e.step(bar, vol, 0)
}

// Run processes a finite series. vols must align one-to-one with candles;
// NaN entries hold the engine state for that bar.
func (e *Engine) Run(candles []models.Candle, vols []float64) ([]models.TrendPoint, []models.TrendSignal, *models.ClusterSnapshot, error) {
	if len(candles) != len(vols) {
		return nil, nil, nil, fmt.Errorf("candles/vols length mismatch: %d vs %d", len(candles), len(vols))
	}
	points := make([]models.TrendPoint, 0, len(candles))
	var signals []models.TrendSignal
	last := len(candles) - 1
	for i, c := range candles {
		pt, sig := e.step(c, vols[i], last-i)
		points = append(points, pt)
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return points, signals, e.snapshot, nil
}

func (e *Engine) step(bar models.Candle, vol float64, barsFromEnd int) (models.TrendPoint, *models.TrendSignal) {
	// Missing volatility holds every piece of state for the bar.
	if math.IsNaN(vol) {
		return warmupPoint(bar), nil
	}

	for i := range e.trackers {
		e.trackers[i].update(bar.High, bar.Low, bar.Close, vol, e.alpha)
	}

	if e.hasPrev {
		e.synth.updateDen(bar.Close, e.prevClose, e.alpha)
	}

	if barsFromEnd < e.cfg.MaxData {
		e.cluster(bar)
	}

	flipped := e.synth.update(bar.High, bar.Low, bar.Close, vol)

	e.prevClose = bar.Close
	e.hasPrev = true

	var sig *models.TrendSignal
	if flipped {
		dir := models.DirectionShort
		if e.synth.trendUp {
			dir = models.DirectionLong
		}
		sig = &models.TrendSignal{
			Symbol:       bar.Symbol,
			Bucket:       bar.Bucket,
			Direction:    dir,
			Price:        bar.Close,
			Strength:     e.synth.strength(),
			TargetFactor: e.synth.targetFactor,
			PerfIndex:    e.synth.perfIndex,
		}
	}

	if !e.synth.seeded {
		return warmupPoint(bar), sig
	}
	return models.TrendPoint{
		Bucket:       bar.Bucket,
		TrailingStop: e.synth.stop,
		TrendUp:      e.synth.trendUp,
		AMA:          e.synth.ama,
		PerfIndex:    e.synth.perfIndex,
		TargetFactor: e.synth.targetFactor,
		Valid:        true,
	}, sig
}

// cluster runs one k-means pass when enough finite scores exist, then feeds
// the selected tier into the synthesizer. Degenerate outcomes (empty target
// tier) hold the previous target.
func (e *Engine) cluster(bar models.Candle) {
	scores := make([]float64, 0, len(e.trackers))
	factors := make([]float64, 0, len(e.trackers))
	for i := range e.trackers {
		s := e.trackers[i].score
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		scores = append(scores, s)
		factors = append(factors, e.trackers[i].factor)
	}
	if len(scores) < 3 {
		return
	}

	res := kmeans(scores, factors, e.cfg.MaxIter)

	idx := 2
	switch e.cfg.FromCluster {
	case ClusterWorst:
		idx = 0
	case ClusterAverage:
		idx = 1
	}
	target := res.buckets[idx]

	labels := [3]string{"worst", "average", "best"}
	snap := &models.ClusterSnapshot{
		Bucket:     bar.Bucket,
		Iterations: res.iterations,
		Buckets:    make([]models.ClusterBucket, 0, 3),
	}
	for j, b := range res.buckets {
		snap.Buckets = append(snap.Buckets, models.ClusterBucket{
			Label:    labels[j],
			Centroid: b.centroid,
			Size:     len(b.factors),
			Factors:  append([]float64(nil), b.factors...),
		})
	}
	e.snapshot = snap

	if len(target.factors) == 0 {
		return
	}
	e.synth.setTarget(meanOf(target.factors), meanOf(target.scores))
}

func warmupPoint(bar models.Candle) models.TrendPoint {
	nan := math.NaN()
	return models.TrendPoint{
		Bucket:       bar.Bucket,
		TrailingStop: nan,
		AMA:          nan,
		PerfIndex:    nan,
		TargetFactor: nan,
		Valid:        false,
	}
}

var _ service.TrendAnalyzer = (*Engine)(nil)
