//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"RiskPulse/pkg/config"
	"RiskPulse/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvidePutCallStore,
		ProvideKafkaConsumer,

		// Sources
		ProvideScraperClient,
		ProvideFredClient,
		ProvidePageFetcher,
		ProvidePutCallCollector,
		ProvideSources,
		ProvideRegistry,

		// Use cases
		ProvideIndicatorService,
		ProvideCachedIndicators,
		ProvideRefreshNotifier,
		ProvideRefreshHandler,
		ProvideScheduler,

		// HTTP
		ProvideIndicatorsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
