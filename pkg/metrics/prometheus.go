package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	cellErrors  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	experiments *prometheus.HistogramVec
	lastPayoff  *prometheus.GaugeVec
	liveTicks   *prometheus.CounterVec
	liveTrades  *prometheus.CounterVec
}

// New creates a recorder registered on reg. A nil reg uses the default
// Prometheus registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestprice_evaluations_total",
				Help: "Reservation price evaluations by family",
			},
			[]string{"family"},
		),
		cellErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestprice_sweep_cell_errors_total",
				Help: "Sweep cells skipped because evaluation failed",
			},
			[]string{"algorithm"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestprice_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		experiments: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bestprice_experiment_duration_seconds",
				Help:    "Wall time of experiment sweeps",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"algorithm"},
		),
		lastPayoff: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bestprice_last_payoff",
				Help: "Payoff of the most recent selection",
			},
			[]string{"source"},
		),
		liveTicks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestprice_live_ticks_total",
				Help: "Live trade ticks inspected by the selector",
			},
			[]string{"symbol"},
		),
		liveTrades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bestprice_live_trades_total",
				Help: "Live selections that ended in a trade",
			},
			[]string{"symbol", "forced"},
		),
	}
}

func (r *Recorder) RecordEvaluation(family string) {
	r.evaluations.WithLabelValues(family).Inc()
}

func (r *Recorder) RecordCellError(algorithm string) {
	r.cellErrors.WithLabelValues(algorithm).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordExperiment(algorithm string, seconds float64) {
	r.experiments.WithLabelValues(algorithm).Observe(seconds)
}

func (r *Recorder) RecordPayoff(source string, payoff float64) {
	r.lastPayoff.WithLabelValues(source).Set(payoff)
}

func (r *Recorder) RecordLiveTick(symbol string) {
	r.liveTicks.WithLabelValues(symbol).Inc()
}

// RecordLiveTrade counts a completed live selection.
func (r *Recorder) RecordLiveTrade(symbol string, forced bool) {
	label := "false"
	if forced {
		label = "true"
	}
	r.liveTrades.WithLabelValues(symbol, label).Inc()
}
