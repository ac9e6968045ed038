package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendPull/internal/domain/models"
	drepo "TrendPull/internal/domain/repository"
)

// SignalProcessor routes direction-flip signals to the configured backend.
type SignalProcessor struct {
	pub     drepo.SignalPublisher
	store   drepo.SignalStorage
	metrics drepo.Metrics
	backend string
}

// NewSignalProcessor creates a new SignalProcessor instance.
func NewSignalProcessor(
	pub drepo.SignalPublisher,
	store drepo.SignalStorage,
	metrics drepo.Metrics,
	backend string,
) *SignalProcessor {
	return &SignalProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single signal to the configured backend.
func (p *SignalProcessor) Process(ctx context.Context, s *models.TrendSignal) error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, s)
	case "clickhouse":
		err = p.store.Store(ctx, s)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("signal_process")
		return fmt.Errorf("process signal: %w", err)
	}

	p.metrics.RecordSignal(p.backend, s.Symbol, s.Direction)
	p.metrics.RecordLatency("signal_process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple signals in one round-trip.
func (p *SignalProcessor) ProcessBatch(ctx context.Context, signals []*models.TrendSignal) error {
	if len(signals) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, signals)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, signals)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("signal_process_batch")
		return fmt.Errorf("process signal batch: %w", err)
	}

	for _, s := range signals {
		p.metrics.RecordSignal(p.backend, s.Symbol, s.Direction)
	}
	p.metrics.RecordLatency("signal_process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *SignalProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
