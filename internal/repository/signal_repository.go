package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/domain/repository"
	pkgkafka "TrendPull/pkg/kafka"
)

// signalSchema is applied on Init so a fresh ClickHouse comes up ready.
var signalSchema = []string{
	`CREATE DATABASE IF NOT EXISTS trendpull`,
	`CREATE TABLE IF NOT EXISTS trendpull.trend_signals (
        bucket        DateTime64(3),
        symbol        LowCardinality(String),
        run_id        String,
        direction     LowCardinality(String),
        price         Float64,
        strength      UInt8,
        target_factor Float64,
        perf_index    Float64
    ) ENGINE = ReplacingMergeTree
    PARTITION BY toYYYYMM(bucket)
    ORDER BY (symbol, bucket, direction)`,
}

// ClickHouseSignalStorage implements SignalStorage on ClickHouse.
type ClickHouseSignalStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalStorage creates ClickHouse-backed signal storage.
func NewClickHouseSignalStorage(db *sql.DB, table string) repository.SignalStorage {
	return &ClickHouseSignalStorage{db: db, table: table}
}

func (s *ClickHouseSignalStorage) Init(ctx context.Context) error {
	for _, stmt := range signalSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init signal schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSignalStorage) Store(ctx context.Context, sig *models.TrendSignal) error {
	q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, run_id, direction, price, strength, target_factor, perf_index) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		sig.Bucket,
		sig.Symbol,
		sig.RunID,
		sig.Direction,
		sig.Price,
		uint8(sig.Strength),
		sig.TargetFactor,
		sig.PerfIndex,
	)
	return err
}

func (s *ClickHouseSignalStorage) StoreBatch(ctx context.Context, signals []*models.TrendSignal) error {
	if len(signals) == 0 {
		return nil
	}
	// Multi-row VALUES keeps round-trips down; signals are rare enough that
	// one chunk size fits all realistic batches.
	const chunkSize = 1000
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, sig := range signals[start:end] {
			if sig == nil || sig.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.Bucket,
				sig.Symbol,
				sig.RunID,
				sig.Direction,
				sig.Price,
				uint8(sig.Strength),
				sig.TargetFactor,
				sig.PerfIndex,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, run_id, direction, price, strength, target_factor, perf_index) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSignalStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TrendSignal, error) {
	q := fmt.Sprintf("SELECT bucket, symbol, run_id, direction, price, strength, target_factor, perf_index FROM %s WHERE symbol = ? AND bucket >= ? AND bucket <= ? ORDER BY bucket DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*models.TrendSignal
	for rows.Next() {
		var sig models.TrendSignal
		var strength uint8
		if err := rows.Scan(&sig.Bucket, &sig.Symbol, &sig.RunID, &sig.Direction, &sig.Price, &strength, &sig.TargetFactor, &sig.PerfIndex); err != nil {
			return nil, err
		}
		sig.Strength = int(strength)
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}

func (s *ClickHouseSignalStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStorage) Close() error {
	return nil // connection owned by pkg client
}

// KafkaSignalPublisher implements SignalPublisher on Kafka. Messages are
// keyed by symbol so per-symbol ordering survives partitioning.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func signalPayload(s *models.TrendSignal) map[string]interface{} {
	return map[string]interface{}{
		"bucket":        s.Bucket.UnixMilli(),
		"symbol":        s.Symbol,
		"run_id":        s.RunID,
		"direction":     s.Direction,
		"price":         s.Price,
		"strength":      s.Strength,
		"target_factor": s.TargetFactor,
		"perf_index":    s.PerfIndex,
	}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.TrendSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), signalPayload(s))
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []*models.TrendSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(s.Symbol),
			Value: signalPayload(s),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
