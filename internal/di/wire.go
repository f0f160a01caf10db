//go:build wireinject
// +build wireinject

package di

import (
	"PanelPulse/pkg/config"
	"PanelPulse/pkg/server"

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

		// Repositories
		ProvideEntityCatalog,
		ProvideMetricsStore,
		ProvideAlertSink,
		ProvideEventStream,

		// Caches
		ProvideFreshnessCache,
		ProvideResponseCache,

		// Use cases
		ProvideEntityResolver,
		ProvideMetricsUpdater,
		ProvideNarrativePipeline,
		ProvideBatchRecalculator,
		ProvideOpportunityDetector,
		ProvideScheduler,
		ProvideEventIntake,
		ProvideEventCollector,
		ProvideKafkaEventsHandler,

		// HTTP handlers
		ProvideEventsHandler,
		ProvidePipelineHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
