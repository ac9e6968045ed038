package di

import (
	"context"
	"fmt"
	"time"

	"TrendPull/internal/domain/repository"
	domsvc "TrendPull/internal/domain/service"
	"TrendPull/internal/engine"
	"TrendPull/internal/handler/api"
	mid "TrendPull/internal/middleware"
	internalrepo "TrendPull/internal/repository"
	"TrendPull/internal/service/finnhub"
	"TrendPull/internal/services/volatility"
	"TrendPull/internal/usecase"
	pkgcache "TrendPull/pkg/cache"
	pkgch "TrendPull/pkg/clickhouse"
	"TrendPull/pkg/config"
	pkgkafka "TrendPull/pkg/kafka"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/metrics"
	"TrendPull/pkg/queue"
	"TrendPull/pkg/server"
)

// candleSchema holds the ingest tables the engine reads from.
var candleSchema = []string{
	"CREATE DATABASE IF NOT EXISTS trendpull",
	`CREATE TABLE IF NOT EXISTS trendpull.rt_candles_1s (
        bucket DateTime64(3), symbol LowCardinality(String),
        open Float64, high Float64, low Float64, close Float64, vol Float64
    ) ENGINE=ReplacingMergeTree PARTITION BY toYYYYMMDD(bucket) ORDER BY (symbol, bucket)`,
	`CREATE TABLE IF NOT EXISTS trendpull.rt_candles_1m (
        bucket DateTime64(3), symbol LowCardinality(String),
        open Float64, high Float64, low Float64, close Float64, vol Float64
    ) ENGINE=ReplacingMergeTree PARTITION BY toYYYYMM(bucket) ORDER BY (symbol, bucket)`,
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, candleSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSignalStorage creates ClickHouse signal storage and ensures its schema.
func ProvideSignalStorage(chClient *pkgch.Client, cfg *config.Config) (repository.SignalStorage, error) {
	store := internalrepo.NewClickHouseSignalStorage(chClient.DB(), cfg.ClickHouse.Database+".trend_signals")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSignalsHandler registers the handler for the signals topic.
func ProvideKafkaSignalsHandler(store repository.SignalStorage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSignalsHandler {
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideFinnhubStream creates Finnhub WebSocket stream.
func ProvideFinnhubStream(cfg *config.Config) repository.MarketStream {
	return finnhub.New(
		cfg.Finnhub.APIKey,
		cfg.Finnhub.WebSocketURL,
		cfg.Finnhub.Symbols,
		cfg.Finnhub.ReconnectDelay,
		cfg.Finnhub.PingInterval,
	)
}

// ProvideEngineConfig maps YAML settings onto the engine parameters,
// falling back to defaults for anything unset.
func ProvideEngineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	if cfg.Engine.ATRLength > 0 {
		ec.ATRLength = cfg.Engine.ATRLength
	}
	if cfg.Engine.MinFactor > 0 {
		ec.MinFactor = cfg.Engine.MinFactor
	}
	if cfg.Engine.MaxFactor > 0 {
		ec.MaxFactor = cfg.Engine.MaxFactor
	}
	if cfg.Engine.FactorStep > 0 {
		ec.FactorStep = cfg.Engine.FactorStep
	}
	if cfg.Engine.PerfAlpha > 0 {
		ec.PerfAlpha = cfg.Engine.PerfAlpha
	}
	if cfg.Engine.FromCluster != "" {
		ec.FromCluster = engine.ClusterChoice(cfg.Engine.FromCluster)
	}
	if cfg.Engine.MaxIter > 0 {
		ec.MaxIter = cfg.Engine.MaxIter
	}
	if cfg.Engine.MaxData > 0 {
		ec.MaxData = cfg.Engine.MaxData
	}
	return ec
}

// ProvideVolatilityEstimator creates the ATR series estimator.
func ProvideVolatilityEstimator(ec engine.Config) domsvc.VolatilityEstimator {
	return volatility.NewATR(ec.ATRLength)
}

// ProvideAnalyzerFactory builds fresh engines for per-request runs.
func ProvideAnalyzerFactory() usecase.AnalyzerFactory {
	return func(cfg engine.Config) (domsvc.TrendAnalyzer, error) {
		return engine.New(cfg)
	}
}

// ProvideFeatureStore creates the ClickHouse candle reader.
func ProvideFeatureStore(chClient *pkgch.Client, l *applogger.Logger) repository.FeatureStore {
	store := internalrepo.NewCHFeatureStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideRedisCache connects to Redis when caching is enabled; a nil return
// means callers should run without Redis.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Cache.Host),
		pkgcache.WithRedisPort(cfg.Cache.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Password),
		pkgcache.WithRedisDB(cfg.Cache.DB),
	)
}

// ProvideCacheService layers a memory LRU over Redis, or falls back to
// memory only when Redis is disabled.
func ProvideCacheService(rc *pkgcache.RedisCache, cfg *config.Config) pkgcache.Service {
	size := cfg.Cache.MemorySize
	if size <= 0 {
		size = 1000
	}
	if rc == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(size))
	}
	return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(size))
}

// ProvideTrendUseCase creates the trend computation use case.
func ProvideTrendUseCase(
	store repository.FeatureStore,
	vol domsvc.VolatilityEstimator,
	factory usecase.AnalyzerFactory,
	cache pkgcache.Service,
	metrics repository.Metrics,
	ec engine.Config,
	l *applogger.Logger,
) *usecase.TrendUseCase {
	uc := usecase.NewTrendUseCase(store, vol, factory, cache, metrics, ec)
	uc.SetLogger(l)
	return uc
}

// ProvideCandlesUseCase creates the candle retrieval use case.
func ProvideCandlesUseCase(store repository.FeatureStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideSignalProcessor creates the signal routing use case.
func ProvideSignalProcessor(
	pub repository.SignalPublisher,
	store repository.SignalStorage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvideTrendCollector creates the live trend collector.
func ProvideTrendCollector(
	stream repository.MarketStream,
	processor *usecase.SignalProcessor,
	metrics repository.Metrics,
	ec engine.Config,
	cfg *config.Config,
	l *applogger.Logger,
) (*usecase.TrendCollector, error) {
	barInterval := cfg.Engine.BarInterval
	if barInterval <= 0 {
		barInterval = time.Minute
	}
	var opts []mid.PipelineOption
	if cfg.Pipeline.MaxRPS > 0 {
		opts = append(opts, mid.WithMaxRPS(cfg.Pipeline.MaxRPS))
	}
	if cfg.Pipeline.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Pipeline.BufferSize))
	}
	collector, err := usecase.NewTrendCollector(stream, processor, metrics, ec, barInterval, opts...)
	if err != nil {
		return nil, err
	}
	collector.SetLogger(l)
	return collector, nil
}

// ProvideTrendHandler creates the HTTP handler.
func ProvideTrendHandler(
	l *applogger.Logger,
	trend *usecase.TrendUseCase,
	candles *usecase.CandlesUseCase,
	storage repository.SignalStorage,
) *api.TrendHandler {
	return api.NewTrendHandler(l, trend, candles, storage)
}

// ProvideRecomputeQueue wires the Redis-backed recompute workers, or nil
// when either Redis or the queue is disabled.
func ProvideRecomputeQueue(
	cfg *config.Config,
	rc *pkgcache.RedisCache,
	trend *usecase.TrendUseCase,
	l *applogger.Logger,
) *queue.RedisQueue {
	if rc == nil || !cfg.Queue.Enabled {
		return nil
	}
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	q := queue.NewRedisQueue(l, qcfg, rc.Client(), queue.ModeProducerConsumer,
		queue.WithKeyPrefix("trendpull:queue"),
	)
	q.RegisterJob(usecase.NewTrendRecomputeJob(trend, l))
	return q
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.TrendCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSignalsHandler,
	chClient *pkgch.Client,
	handler *api.TrendHandler,
	recompute *queue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if recompute != nil {
		app.SetRecomputeQueue(recompute)
	}
	if collector != nil {
		app.SignalProc = collector.Processor()
	}
	return app
}
