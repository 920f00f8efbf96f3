package main

import (
	"fmt"
	"strconv"
	"strings"

	"BestPrice/internal/domain/models"
	"BestPrice/pkg/config"
	"BestPrice/pkg/logger"

	"github.com/spf13/cobra"
)

// env carries what every subcommand needs once the root has loaded it.
type env struct {
	configPath string
	cfg        *config.Config
	log        *logger.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "bestprice",
		Short:         "Prediction-augmented online price selection",
		Long:          "bestprice evaluates reservation-price algorithms that use a predicted best price,\nagainst the pure online sqrt(M*m) baseline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(e.configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(&cfg.Logging)
			if err != nil {
				return err
			}
			e.cfg, e.log = cfg, log.With(logger.String("cmd", cmd.Name()))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(
		newRunCmd(e),
		newServeCmd(e),
		newLiveCmd(e),
		newEvaluateCmd(e),
	)
	return root
}

// parseAlgorithms turns "oblivious,aware" (or "all") into algorithms.
func parseAlgorithms(s string) ([]models.Algorithm, error) {
	if s == "" || s == "all" {
		return []models.Algorithm{models.AlgoOblivious, models.AlgoAware}, nil
	}
	var out []models.Algorithm
	for _, part := range strings.Split(s, ",") {
		switch a := models.Algorithm(strings.TrimSpace(part)); a {
		case models.AlgoOblivious, models.AlgoAware:
			out = append(out, a)
		default:
			return nil, fmt.Errorf("unknown algorithm %q", part)
		}
	}
	return out, nil
}

// parsePrices reads a comma separated price sequence.
func parsePrices(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	prices := make([]float64, 0, len(fields))
	for _, f := range fields {
		p, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", f, err)
		}
		prices = append(prices, p)
	}
	return prices, nil
}
