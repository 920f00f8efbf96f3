package di

import (
	"context"
	"fmt"
	"time"

	"BestPrice/internal/domain/repository"
	"BestPrice/internal/export"
	"BestPrice/internal/handler/api"
	internalrepo "BestPrice/internal/repository"
	"BestPrice/internal/service/finnhub"
	"BestPrice/internal/service/ratelimit"
	"BestPrice/internal/usecase"
	"BestPrice/pkg/cache"
	pkgch "BestPrice/pkg/clickhouse"
	"BestPrice/pkg/config"
	xhttp "BestPrice/pkg/http"
	pkgkafka "BestPrice/pkg/kafka"
	"BestPrice/pkg/logger"
	"BestPrice/pkg/metrics"
	"BestPrice/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const connectTimeout = 10 * time.Second

// ProvideRegistry creates the Prometheus registry shared by every component.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient connects to ClickHouse and creates the price and
// report tables. It returns a nil client when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, log *logger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	schema := append(append([]string{}, internalrepo.PricesSchema...), internalrepo.ReportsSchema...)
	if err := client.InitSchema(ctx, schema); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	log.Info("clickhouse ready",
		logger.String("host", cfg.ClickHouse.Host),
		logger.String("database", cfg.ClickHouse.Database))

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn("clickhouse close error", logger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvidePriceSource picks the dataset backend from dataset.source.
func ProvidePriceSource(cfg *config.Config, ch *pkgch.Client, log *logger.Logger) (repository.PriceSource, error) {
	switch cfg.Dataset.Source {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("dataset source clickhouse requires clickhouse.enabled")
		}
		return internalrepo.NewCHPriceSource(ch.DB()), nil
	default:
		return internalrepo.NewFilePriceSource(cfg.Dataset.DataDir, cfg.Dataset.PriceColumn, cfg.Dataset.Delimiter, log), nil
	}
}

// ProvideResultStore stores reports in ClickHouse when available, in memory
// otherwise.
func ProvideResultStore(ch *pkgch.Client) repository.ResultStore {
	if ch == nil {
		return internalrepo.NewMemoryResultStore()
	}
	return internalrepo.NewCHResultStore(ch.DB())
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg prometheus.Registerer) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReportPublisher wraps the producer; the cleanup closes it.
func ProvideReportPublisher(cfg *config.Config, producer *pkgkafka.Producer, log *logger.Logger) (repository.ReportPublisher, func()) {
	if producer == nil {
		return internalrepo.NoopReportPublisher{}, func() {}
	}
	pub := internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic)
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("kafka producer close error", logger.Error(err))
		}
	}
}

// ProvideReportCache builds the in-memory L1 cache, backed by Redis when
// enabled.
func ProvideReportCache(cfg *config.Config, log *logger.Logger) (cache.Service, func(), error) {
	var l2 cache.Service
	if cfg.Cache.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx,
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		l2 = rc
	}

	c := cache.NewLayeredCache(l2,
		cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
		cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
	)
	return c, func() {
		if err := c.Close(); err != nil {
			log.Warn("cache close error", logger.Error(err))
		}
	}, nil
}

func ProvideExperimentRunner(cfg *config.Config, src repository.PriceSource, m repository.Metrics, log *logger.Logger) *usecase.ExperimentRunner {
	e := cfg.Experiment
	return usecase.NewExperimentRunner(src, usecase.ExperimentConfig{
		WholePeriod:   e.WholePeriod,
		TradingPeriod: e.TradingPeriod,
		Samples:       e.Samples,
		EtaStep:       e.EtaStep,
		Workers:       e.Workers,
		RValues:       e.RValues,
		HPairs:        e.HPairs,
	}, m, log)
}

func ProvideExperimentService(
	cfg *config.Config,
	runner *usecase.ExperimentRunner,
	store repository.ResultStore,
	pub repository.ReportPublisher,
	c cache.Service,
	log *logger.Logger,
) *usecase.ExperimentService {
	return usecase.NewExperimentService(runner, store, pub, c, cfg.Cache.TTL, cfg.Dataset.Name, log)
}

func ProvideEvaluator(m repository.Metrics) *usecase.Evaluator {
	return usecase.NewEvaluator(m)
}

// ProvideRateLimiter throttles experiment runs per client. A zero burst
// disables throttling.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.Server.ExperimentBurst <= 0 {
		return nil
	}
	return ratelimit.New(cfg.Server.ExperimentBurst, cfg.Server.ExperimentPerSecond)
}

func ProvideExperimentsHandler(log *logger.Logger, ev *usecase.Evaluator, svc *usecase.ExperimentService,
	rl *ratelimit.Limiter) *api.ExperimentsHandler {
	return api.NewExperimentsHandler(log, ev, svc, rl)
}

// ProvideHTTPServer assembles the echo server for serve mode.
func ProvideHTTPServer(cfg *config.Config, h *api.ExperimentsHandler, reg *prometheus.Registry, ch *pkgch.Client, log *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, reg, reg),
		xhttp.WithLogger(log),
	}
	if ch != nil {
		opts = append(opts, xhttp.WithHealthCheck("clickhouse", ch.Health))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideKafkaConsumer creates the experiment request consumer, or nil when
// Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, reg prometheus.Registerer, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.RequestIDHook())
	return consumer, nil
}

func ProvideKafkaRequestsHandler(cfg *config.Config, svc *usecase.ExperimentService, m repository.Metrics, log *logger.Logger) *usecase.KafkaRequestsHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.RequestsTopic, svc, m, log)
}

// ProvideApp creates the serve-mode application.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestsHandler,
	log *logger.Logger,
) *server.App {
	if consumer == nil {
		return server.New(srv, nil, nil, cfg.Server.ShutdownTimeout, log)
	}
	return server.New(srv, consumer, kh, cfg.Server.ShutdownTimeout, log)
}

func ProvideExporter(cfg *config.Config, log *logger.Logger) *export.Exporter {
	return export.NewExporter(cfg.Output.Dir, cfg.Output.CSV, cfg.Output.Charts, log)
}

func ProvideBatch(svc *usecase.ExperimentService, exp *export.Exporter, log *logger.Logger) *usecase.Batch {
	return usecase.NewBatch(svc, exp, log)
}

// ProvideFinnhubStream creates the Finnhub trade stream.
func ProvideFinnhubStream(cfg *config.Config, log *logger.Logger) repository.MarketStream {
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.WebSocketURL, cfg.Finnhub.PingInterval, log)
}

func ProvideLiveSelector(stream repository.MarketStream, m repository.Metrics, log *logger.Logger) *usecase.LiveSelector {
	return usecase.NewLiveSelector(stream, m, log)
}
