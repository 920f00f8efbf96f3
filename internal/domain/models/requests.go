package models

// Requests for the HTTP API. Defined in domain for reuse by handlers and tests.

type EvaluateRequest struct {
	Prices    []float64 `json:"prices" validate:"required,min=1,dive,gt=0"`
	Family    string    `json:"family" default:"oblivious" validate:"oneof=oblivious aware"`
	Direction string    `json:"direction" default:"negative" validate:"oneof=negative positive"`
	VStar     float64   `json:"v_star" validate:"gt=0"`
	Eta       float64   `json:"eta" validate:"gte=0"`
	R         float64   `json:"r" default:"1" validate:"gt=0"`
	Hn        float64   `json:"hn" validate:"gte=0"`
	Hp        float64   `json:"hp" validate:"gte=0,lt=1"`
	Max       float64   `json:"max" validate:"gte=0"`
	Min       float64   `json:"min" validate:"gte=0"`
}

type EvaluateResponse struct {
	Threshold       float64  `json:"threshold"`
	Payoff          float64  `json:"payoff"`
	Consistent      *bool    `json:"consistent,omitempty"`
	OnlineThreshold *float64 `json:"online_threshold,omitempty"`
	OnlinePayoff    *float64 `json:"online_payoff,omitempty"`
}

type ExperimentQuery struct {
	Algorithm string `param:"algorithm" validate:"oneof=oblivious aware"`
	Dataset   string `query:"dataset"`
	Samples   int    `query:"samples" validate:"gte=0,lte=500"`
}

type ReportListQuery struct {
	Dataset string `query:"dataset"`
	Limit   int    `query:"limit" default:"20" validate:"gte=1,lte=200"`
}
