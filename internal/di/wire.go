//go:build wireinject
// +build wireinject

package di

import (
	"BestPrice/internal/usecase"
	"BestPrice/pkg/config"
	"BestPrice/pkg/logger"
	"BestPrice/pkg/server"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
)

var metricsSet = wire.NewSet(
	ProvideRegistry,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	ProvideMetrics,
)

var experimentSet = wire.NewSet(
	ProvideClickHouseClient,
	ProvidePriceSource,
	ProvideResultStore,
	ProvideKafkaProducer,
	ProvideReportPublisher,
	ProvideReportCache,
	ProvideExperimentRunner,
	ProvideExperimentService,
)

// InitializeApp wires the serve-mode application.
func InitializeApp(cfg *config.Config, log *logger.Logger) (*server.App, func(), error) {
	wire.Build(
		metricsSet,
		experimentSet,
		ProvideEvaluator,
		ProvideRateLimiter,
		ProvideExperimentsHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,
		ProvideKafkaRequestsHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeBatch wires the batch experiment runner with exports.
func InitializeBatch(cfg *config.Config, log *logger.Logger) (*usecase.Batch, func(), error) {
	wire.Build(
		metricsSet,
		experimentSet,
		ProvideExporter,
		ProvideBatch,
	)
	return nil, nil, nil
}

// InitializeLive wires the live online selector.
func InitializeLive(cfg *config.Config, log *logger.Logger) (*usecase.LiveSelector, error) {
	wire.Build(
		metricsSet,
		ProvideFinnhubStream,
		ProvideLiveSelector,
	)
	return nil, nil
}
