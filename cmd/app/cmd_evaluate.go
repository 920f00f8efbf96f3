package main

import (
	"encoding/json"
	"errors"
	"strings"

	"BestPrice/internal/domain/models"
	"BestPrice/internal/usecase"
	xhttp "BestPrice/pkg/http"

	"github.com/spf13/cobra"
)

func newEvaluateCmd(_ *env) *cobra.Command {
	var (
		prices string
		req    models.EvaluateRequest
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute one reservation price and the trade it selects",
		Example: `  bestprice evaluate --prices 1,2,3,4,5 --family aware --direction positive \
    --v-star 4.5 --eta 0.1 --hn 0.1 --hp 0.1 --max 5 --min 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parsePrices(prices)
			if err != nil {
				return err
			}
			req.Prices = p
			if verr := xhttp.ValidateStruct(cmd.Context(), &req); verr != nil {
				msgs := make([]string, len(verr))
				for i, e := range verr {
					msgs[i] = e.Message
				}
				return errors.New("invalid request: " + strings.Join(msgs, "; "))
			}

			res, err := usecase.NewEvaluator(nil).Evaluate(req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&prices, "prices", "", "comma separated price sequence")
	f.StringVar(&req.Family, "family", "oblivious", "oblivious or aware")
	f.StringVar(&req.Direction, "direction", "negative", "negative or positive prediction error")
	f.Float64Var(&req.VStar, "v-star", 0, "predicted best price")
	f.Float64Var(&req.Eta, "eta", 0, "prediction error magnitude")
	f.Float64Var(&req.R, "r", 1, "discount factor (oblivious)")
	f.Float64Var(&req.Hn, "hn", 0, "negative trust bound (aware)")
	f.Float64Var(&req.Hp, "hp", 0, "positive trust bound (aware)")
	f.Float64Var(&req.Max, "max", 0, "upper price bound M")
	f.Float64Var(&req.Min, "min", 0, "lower price bound m")
	_ = cmd.MarkFlagRequired("prices")
	_ = cmd.MarkFlagRequired("v-star")
	return cmd
}
