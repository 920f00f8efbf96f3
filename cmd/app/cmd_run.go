package main

import (
	"os"
	"os/signal"
	"syscall"

	"BestPrice/internal/di"
	"BestPrice/pkg/logger"

	"github.com/spf13/cobra"
)

func newRunCmd(e *env) *cobra.Command {
	var (
		dataset    string
		algorithms string
		samples    int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiments on a dataset and export CSV tables and charts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			algos, err := parseAlgorithms(algorithms)
			if err != nil {
				return err
			}
			if dataset == "" {
				dataset = e.cfg.Dataset.Name
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			batch, cleanup, err := di.InitializeBatch(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer cleanup()

			reports, err := batch.Run(ctx, dataset, algos, samples)
			if err != nil {
				return err
			}
			e.log.Info("experiments finished",
				logger.String("dataset", dataset),
				logger.Int("reports", len(reports)),
				logger.String("output", e.cfg.Output.Dir))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name (defaults to dataset.name)")
	cmd.Flags().StringVar(&algorithms, "algorithms", "all", "oblivious, aware, or all")
	cmd.Flags().IntVar(&samples, "samples", 0, "number of sampled windows (defaults to experiment.samples)")
	return cmd
}
