//go:build wireinject
// +build wireinject

package di

import (
	"TraderMind/pkg/config"
	"TraderMind/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideTradeStore,
		ProvideShadowRecorder,
		ProvideExecutionQueue,
		ProvideReplayCache,
		ProvideTickStream,

		// Domain services
		ProvideInference,
		ProvideSessionRegistry,
		ProvideRiskValidator,
		ProvideRiskState,
		ProvideAuditEngine,

		// Use cases
		ProvideDecisionPipeline,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
