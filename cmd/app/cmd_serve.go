package main

import (
	"os"
	"os/signal"
	"syscall"

	"BestPrice/internal/di"
	"BestPrice/pkg/logger"

	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and consume experiment requests from Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := di.InitializeApp(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer cleanup()

			e.log.Info("serving",
				logger.String("env", e.cfg.Environment),
				logger.Int("port", e.cfg.Server.Port),
				logger.Bool("kafka", e.cfg.Kafka.Enabled),
				logger.Bool("clickhouse", e.cfg.ClickHouse.Enabled),
				logger.Bool("redis", e.cfg.Cache.Redis.Enabled))
			return app.Run(ctx)
		},
	}
}
