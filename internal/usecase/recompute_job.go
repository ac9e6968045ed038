package usecase

import (
	"context"
	"fmt"

	domrepo "TrendPull/internal/domain/repository"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/queue"
)

// RecomputePayload asks for a symbol's trend cache to be rebuilt, typically
// after a backfill or a data repair touched its candles.
type RecomputePayload struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	N         int    `json:"n"`
}

// TrendRecomputeJob invalidates and re-warms the cached trend result for a
// symbol via the background queue.
type TrendRecomputeJob struct {
	trend *TrendUseCase
	l     *applogger.Logger
}

func NewTrendRecomputeJob(trend *TrendUseCase, l *applogger.Logger) *TrendRecomputeJob {
	return &TrendRecomputeJob{trend: trend, l: l}
}

func (j *TrendRecomputeJob) Name() string { return "trend_recompute" }

func (j *TrendRecomputeJob) Type() string { return "trend.recompute" }

func (j *TrendRecomputeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RecomputePayload](payload)
	if err != nil {
		return fmt.Errorf("recompute payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("recompute payload: symbol required")
	}
	n := p.N
	if n <= 0 {
		n = 600
	}

	if err := j.trend.InvalidateSymbol(ctx, p.Symbol); err != nil && j.l != nil {
		j.l.Warn("trend cache invalidate failed",
			applogger.String("symbol", p.Symbol),
			applogger.Error(err),
		)
	}

	params := TrendParams{
		Symbol:    p.Symbol,
		N:         n,
		Timeframe: domrepo.NormalizeTimeframe(p.Timeframe),
	}
	if _, err := j.trend.ComputeTrend(ctx, params); err != nil {
		return fmt.Errorf("recompute %s: %w", p.Symbol, err)
	}
	if j.l != nil {
		j.l.Info("trend cache rewarmed",
			applogger.String("symbol", p.Symbol),
			applogger.String("tf", string(params.Timeframe)),
			applogger.Int("n", n),
		)
	}
	return nil
}

var _ queue.Job = (*TrendRecomputeJob)(nil)
