package models

import "time"

// Algorithm names an algorithm family evaluated by an experiment.
type Algorithm string

const (
	AlgoOblivious Algorithm = "oblivious"
	AlgoAware     Algorithm = "aware"
)

// Cell is one averaged (parameter, eta) point. Present is false when no
// sample produced a value for the cell.
type Cell struct {
	Eta     float64 `json:"eta"`
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
	Count   int     `json:"count"`
}

// Curve holds the averaged payoffs of one parameter setting across the eta grid.
type Curve struct {
	Label string  `json:"label"`
	R     float64 `json:"r,omitempty"`
	Hn    float64 `json:"hn,omitempty"`
	Hp    float64 `json:"hp,omitempty"`
	Cells []Cell  `json:"cells"`
}

// Report is the aggregated outcome of one experiment run.
type Report struct {
	ID            string    `json:"id"`
	Dataset       string    `json:"dataset"`
	Algorithm     Algorithm `json:"algorithm"`
	CreatedAt     time.Time `json:"created_at"`
	Samples       int       `json:"samples"`
	WholePeriod   int       `json:"whole_period"`
	TradingPeriod int       `json:"trading_period"`
	Eta           []float64 `json:"eta"`
	Curves        []Curve   `json:"curves"`
	PureOnline    float64   `json:"pure_online"`
	BestPrice     float64   `json:"best_price"`
	ExcludedCells int       `json:"excluded_cells"`
}

// ExperimentRequest asks for one experiment run, e.g. from a Kafka message.
type ExperimentRequest struct {
	Dataset   string    `json:"dataset"`
	Algorithm Algorithm `json:"algorithm"`
	Samples   int       `json:"samples,omitempty"`
}

// ReportEvent is published when a report has been produced.
type ReportEvent struct {
	Type      string    `json:"type"`
	ReportID  string    `json:"report_id"`
	Dataset   string    `json:"dataset"`
	Algorithm Algorithm `json:"algorithm"`
	CreatedAt time.Time `json:"created_at"`
}

// LiveResult is the outcome of an online selection session on a live stream.
type LiveResult struct {
	Symbol      string    `json:"symbol"`
	Reservation float64   `json:"reservation"`
	Price       float64   `json:"price"`
	Ticks       int       `json:"ticks"`
	Forced      bool      `json:"forced"`
	Traded      bool      `json:"traded"`
	At          time.Time `json:"at"`
}

// Trade is a single price print from a market stream.
type Trade struct {
	Symbol    string
	Timestamp int64
	Price     float64
	Volume    float64
}
