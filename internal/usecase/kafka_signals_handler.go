package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	pkgkafka "TrendPull/pkg/kafka"
)

// KafkaSignalsHandler consumes flip events from Kafka and writes them to
// signal storage, closing the publish-then-persist loop.
type KafkaSignalsHandler struct {
	topic   string
	storage domrepo.SignalStorage
	metrics domrepo.Metrics
}

func NewKafkaSignalsHandler(topic string, storage domrepo.SignalStorage, metrics domrepo.Metrics) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

// incoming message schema mirrors the publisher payload:
// {bucket(ms), symbol, run_id, direction, price, strength, target_factor, perf_index}
func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Bucket       int64   `json:"bucket"`
		Symbol       string  `json:"symbol"`
		RunID        string  `json:"run_id"`
		Direction    string  `json:"direction"`
		Price        float64 `json:"price"`
		Strength     int     `json:"strength"`
		TargetFactor float64 `json:"target_factor"`
		PerfIndex    float64 `json:"perf_index"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	bucket := time.UnixMilli(m.Bucket).UTC()
	h.metrics.RecordLatency("signal_e2e_seconds", time.Since(bucket).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.TrendSignal{
		RunID:        m.RunID,
		Symbol:       m.Symbol,
		Bucket:       bucket,
		Direction:    m.Direction,
		Price:        m.Price,
		Strength:     m.Strength,
		TargetFactor: m.TargetFactor,
		PerfIndex:    m.PerfIndex,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSignal("clickhouse", m.Symbol, m.Direction)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
