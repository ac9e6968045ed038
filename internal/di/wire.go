//go:build wireinject
// +build wireinject

package di

import (
	"TrendPull/pkg/config"
	"TrendPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,

		// Repositories
		ProvideFeatureStore,
		ProvideSignalStorage,
		ProvideSignalPublisher,
		ProvideFinnhubStream,

		// Engine
		ProvideEngineConfig,
		ProvideVolatilityEstimator,
		ProvideAnalyzerFactory,

		// Use cases
		ProvideTrendUseCase,
		ProvideCandlesUseCase,
		ProvideSignalProcessor,
		ProvideTrendCollector,
		ProvideKafkaSignalsHandler,
		ProvideRecomputeQueue,

		// HTTP
		ProvideTrendHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
