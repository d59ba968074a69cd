//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TrendPull/pkg/config"
	"TrendPull/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideKlineSource,
	ProvideTrendPipeline,
	ProvideBroker,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		infraSet,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideBytesCache,
		ProvideReportPublisher,
		ProvideHub,

		// Use cases
		ProvideChatCompleter,
		ProvidePromptTemplate,
		ProvideLLMReport,
		ProvideScanner,
		ProvideKafkaAnalysisHandler,

		// Handlers
		ProvideLimiter,
		ProvideStockHandler,
		ProvideHealthHandler,
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application
		ProvideApp,
	)
	return nil, nil
}

// InitializeToolkit wires the offline analysis tool.
func InitializeToolkit(cfg *config.Config) (*Toolkit, error) {
	wire.Build(infraSet, ProvideToolkit)
	return nil, nil
}
