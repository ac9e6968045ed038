package repository

import (
	"context"
	"time"

	"TrendPull/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SignalPublisher delivers direction-flip events to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.TrendSignal) error
	PublishBatch(ctx context.Context, signals []*models.TrendSignal) error
	Close() error
}

// SignalStorage persists direction-flip events.
type SignalStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.TrendSignal) error
	StoreBatch(ctx context.Context, signals []*models.TrendSignal) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TrendSignal, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordBarProcessed(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordSignal(backend, symbol, direction string)
	RecordError(kind string)
	RecordTrailingStop(symbol string, value float64)
	RecordClusterRun(symbol string, iterations int)
	RecordLatency(op string, seconds float64)
}
