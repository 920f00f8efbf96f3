package server

import (
	"context"
	"errors"
	"time"

	xhttp "BestPrice/pkg/http"
	pkgkafka "BestPrice/pkg/kafka"
	applogger "BestPrice/pkg/logger"
)

// App runs the serve mode: the HTTP API and, when configured, the Kafka
// experiment request consumer.
type App struct {
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	kh              pkgkafka.MessageHandler
	shutdownTimeout time.Duration
	log             *applogger.Logger
}

// New creates an App. consumer and kh may be nil when Kafka is disabled.
// Infrastructure clients are closed by whoever created them.
func New(
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	shutdownTimeout time.Duration,
	log *applogger.Logger,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		httpServer:      httpServer,
		consumer:        consumer,
		kh:              kh,
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// Run starts every component and blocks until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
		a.log.Info("experiment requests consumer registered", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
