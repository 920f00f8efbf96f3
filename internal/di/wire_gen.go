// Injectors for the sets in wire.go, kept in step with them by hand.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"BestPrice/internal/usecase"
	"BestPrice/pkg/config"
	"BestPrice/pkg/logger"
	"BestPrice/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires the serve-mode application.
func InitializeApp(cfg *config.Config, log *logger.Logger) (*server.App, func(), error) {
	registry := ProvideRegistry()
	metrics := ProvideMetrics(registry)
	evaluator := ProvideEvaluator(metrics)
	client, cleanup, err := ProvideClickHouseClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	priceSource, err := ProvidePriceSource(cfg, client, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	experimentRunner := ProvideExperimentRunner(cfg, priceSource, metrics, log)
	resultStore := ProvideResultStore(client)
	producer, err := ProvideKafkaProducer(cfg, registry)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	reportPublisher, cleanup2 := ProvideReportPublisher(cfg, producer, log)
	service, cleanup3, err := ProvideReportCache(cfg, log)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	experimentService := ProvideExperimentService(cfg, experimentRunner, resultStore, reportPublisher, service, log)
	limiter := ProvideRateLimiter(cfg)
	experimentsHandler := ProvideExperimentsHandler(log, evaluator, experimentService, limiter)
	httpServer := ProvideHTTPServer(cfg, experimentsHandler, registry, client, log)
	consumer, err := ProvideKafkaConsumer(cfg, registry, log)
	if err != nil {
		cleanup3()
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	kafkaRequestsHandler := ProvideKafkaRequestsHandler(cfg, experimentService, metrics, log)
	app := ProvideApp(cfg, httpServer, consumer, kafkaRequestsHandler, log)
	return app, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}

// InitializeBatch wires the batch experiment runner with exports.
func InitializeBatch(cfg *config.Config, log *logger.Logger) (*usecase.Batch, func(), error) {
	registry := ProvideRegistry()
	metrics := ProvideMetrics(registry)
	client, cleanup, err := ProvideClickHouseClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	priceSource, err := ProvidePriceSource(cfg, client, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	experimentRunner := ProvideExperimentRunner(cfg, priceSource, metrics, log)
	resultStore := ProvideResultStore(client)
	producer, err := ProvideKafkaProducer(cfg, registry)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	reportPublisher, cleanup2 := ProvideReportPublisher(cfg, producer, log)
	service, cleanup3, err := ProvideReportCache(cfg, log)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	experimentService := ProvideExperimentService(cfg, experimentRunner, resultStore, reportPublisher, service, log)
	exporter := ProvideExporter(cfg, log)
	batch := ProvideBatch(experimentService, exporter, log)
	return batch, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}

// InitializeLive wires the live online selector.
func InitializeLive(cfg *config.Config, log *logger.Logger) (*usecase.LiveSelector, error) {
	registry := ProvideRegistry()
	metrics := ProvideMetrics(registry)
	marketStream := ProvideFinnhubStream(cfg, log)
	liveSelector := ProvideLiveSelector(marketStream, metrics, log)
	return liveSelector, nil
}
