package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"BestPrice/internal/di"
	"BestPrice/internal/domain/models"
	"BestPrice/internal/services/reservation"
	"BestPrice/pkg/config"

	"github.com/spf13/cobra"
)

func newLiveCmd(e *env) *cobra.Command {
	var (
		symbol   string
		maxTicks int
	)
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Pick one trade from a live Finnhub stream with the configured reservation price",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if symbol == "" {
				symbol = e.cfg.Live.Symbol
			}
			if maxTicks <= 0 {
				maxTicks = e.cfg.Live.MaxTicks
			}
			params, err := liveParams(e.cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			selector, err := di.InitializeLive(e.cfg, e.log)
			if err != nil {
				return err
			}
			res, err := selector.Run(ctx, symbol, params, maxTicks)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol to watch (defaults to live.symbol)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "trades to watch before forcing a trade (defaults to live.max_ticks)")
	return cmd
}

func liveParams(cfg *config.Config) (reservation.Params, error) {
	l := cfg.Live
	family, err := reservation.ParseFamily(l.Family)
	if err != nil {
		return reservation.Params{}, err
	}
	dir, err := reservation.ParseDirection(l.Direction)
	if err != nil {
		return reservation.Params{}, err
	}
	return reservation.Params{
		Family:    family,
		Direction: dir,
		VStar:     l.VStar,
		Eta:       l.Eta,
		R:         l.R,
		Hn:        l.Hn,
		Hp:        l.Hp,
		Bounds:    models.MarketBounds{Max: l.Max, Min: l.Min},
	}, nil
}
