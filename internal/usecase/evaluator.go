package usecase

import (
	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/services/reservation"
)

// Evaluator answers one-off reservation price queries.
type Evaluator struct {
	metrics drepo.Metrics
}

func NewEvaluator(metrics drepo.Metrics) *Evaluator {
	return &Evaluator{metrics: metrics}
}

// Params converts a request into reservation parameters.
func (e *Evaluator) Params(req models.EvaluateRequest) (reservation.Params, error) {
	family, err := reservation.ParseFamily(req.Family)
	if err != nil {
		return reservation.Params{}, err
	}
	dir, err := reservation.ParseDirection(req.Direction)
	if err != nil {
		return reservation.Params{}, err
	}
	return reservation.Params{
		Family:    family,
		Direction: dir,
		VStar:     req.VStar,
		Eta:       req.Eta,
		R:         req.R,
		Hn:        req.Hn,
		Hp:        req.Hp,
		Bounds:    models.MarketBounds{Max: req.Max, Min: req.Min},
	}, nil
}

// Evaluate computes the reservation price and the trade it selects. When
// bounds are supplied the pure online baseline is reported alongside.
func (e *Evaluator) Evaluate(req models.EvaluateRequest) (*models.EvaluateResponse, error) {
	p, err := e.Params(req)
	if err != nil {
		return nil, err
	}
	threshold, err := reservation.Threshold(p)
	if err != nil {
		return nil, err
	}
	payoff, err := reservation.FirstAtLeast(req.Prices, threshold)
	if err != nil {
		return nil, err
	}

	resp := &models.EvaluateResponse{Threshold: threshold, Payoff: payoff}
	if p.Family == reservation.Aware {
		ok := reservation.Consistent(p.Hn, p.Hp, p.Bounds)
		resp.Consistent = &ok
	}
	if p.Bounds.Validate() == nil {
		ot, _ := reservation.OnlineThreshold(p.Bounds)
		op, _ := reservation.FirstAtLeast(req.Prices, ot)
		resp.OnlineThreshold, resp.OnlinePayoff = &ot, &op
	}

	if e.metrics != nil {
		e.metrics.RecordEvaluation(p.Family.String())
		e.metrics.RecordPayoff("evaluate", payoff)
	}
	return resp, nil
}
