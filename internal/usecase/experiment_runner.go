package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/services/reservation"
	"BestPrice/internal/services/sweep"
	"BestPrice/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ExperimentConfig holds the sweep parameters shared by both experiments.
type ExperimentConfig struct {
	WholePeriod   int
	TradingPeriod int
	Samples       int
	EtaStep       float64
	Workers       int
	RValues       []float64
	HPairs        [][2]float64
}

// ExperimentRunner sweeps the prediction error over sampled windows of a
// dataset and averages the resulting payoffs.
type ExperimentRunner struct {
	src     drepo.PriceSource
	cfg     ExperimentConfig
	metrics drepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewExperimentRunner(src drepo.PriceSource, cfg ExperimentConfig, metrics drepo.Metrics, log *logger.Logger) *ExperimentRunner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ExperimentRunner{src: src, cfg: cfg, metrics: metrics, log: log, now: time.Now}
}

// Config returns the runner's sweep parameters.
func (r *ExperimentRunner) Config() ExperimentConfig { return r.cfg }

// LoadSamples picks n evenly spaced windows of WholePeriod rows. Bounds come
// from the whole window; trading happens on its first TradingPeriod rows.
func (r *ExperimentRunner) LoadSamples(ctx context.Context, dataset string, n int) ([]models.Sample, error) {
	if n <= 0 {
		n = r.cfg.Samples
	}
	if r.cfg.TradingPeriod < 1 || r.cfg.TradingPeriod > r.cfg.WholePeriod {
		return nil, fmt.Errorf("trading period %d must be within whole period %d", r.cfg.TradingPeriod, r.cfg.WholePeriod)
	}

	size, err := r.src.Size(ctx, dataset)
	if err != nil {
		return nil, err
	}
	starts, err := sweep.UniformStarts(size, r.cfg.WholePeriod, n)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}

	samples := make([]models.Sample, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, start := range starts {
		g.Go(func() error {
			whole, err := r.src.Window(gctx, dataset, start, r.cfg.WholePeriod)
			if err != nil {
				return err
			}
			bounds := models.BoundsOf(whole)
			prices := whole[:r.cfg.TradingPeriod]
			online, err := reservation.Online(prices, bounds)
			if err != nil {
				return fmt.Errorf("sample at %d: %w", start, err)
			}
			samples[i] = models.Sample{
				Start:     start,
				Prices:    prices,
				Bounds:    bounds,
				BestPrice: slices.Max(prices),
				Online:    online,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// Run dispatches to RunOblivious or RunAware.
func (r *ExperimentRunner) Run(ctx context.Context, dataset string, algo models.Algorithm, n int) (*models.Report, error) {
	switch algo {
	case models.AlgoOblivious:
		return r.RunOblivious(ctx, dataset, n)
	case models.AlgoAware:
		return r.RunAware(ctx, dataset, n)
	default:
		return nil, fmt.Errorf("%w: algorithm %q", reservation.ErrUnknownVariant, algo)
	}
}

// RunOblivious sweeps every discount factor over a grid spanning the widest
// trust bounds of all samples. Each sample only fills the cells its own
// bounds allow.
func (r *ExperimentRunner) RunOblivious(ctx context.Context, dataset string, n int) (*models.Report, error) {
	start := r.now()
	samples, err := r.LoadSamples(ctx, dataset, n)
	if err != nil {
		return nil, err
	}

	var maxHn, maxHp float64
	for _, s := range samples {
		hn, hp := sweep.TrustBounds(s.Bounds)
		maxHn, maxHp = max(maxHn, hn), max(maxHp, hp)
	}
	grid, err := sweep.SignedGrid(maxHn, maxHp, r.cfg.EtaStep)
	if err != nil {
		return nil, err
	}

	specs := make([]curveSpec, len(r.cfg.RValues))
	for i, rv := range r.cfg.RValues {
		specs[i] = curveSpec{
			curve: models.Curve{Label: fmt.Sprintf("payoff(r=%.2f)", rv), R: rv},
			points: func(s models.Sample) ([]sweep.Point, error) {
				hn, hp := sweep.TrustBounds(s.Bounds)
				return sweep.SignedGrid(hn, hp, r.cfg.EtaStep)
			},
			params: func(s models.Sample, p sweep.Point) reservation.Params {
				return reservation.Params{
					Family:    reservation.Oblivious,
					Direction: p.Direction,
					VStar:     s.BestPrice,
					Eta:       p.Magnitude,
					R:         rv,
				}
			},
		}
	}

	return r.report(ctx, dataset, models.AlgoOblivious, start, samples, grid, specs)
}

// RunAware sweeps each (Hn, Hp) pair over its own grid. Curves share the
// union grid; cells outside a pair's grid stay missing.
func (r *ExperimentRunner) RunAware(ctx context.Context, dataset string, n int) (*models.Report, error) {
	start := r.now()
	samples, err := r.LoadSamples(ctx, dataset, n)
	if err != nil {
		return nil, err
	}

	grids := make([][]sweep.Point, len(r.cfg.HPairs))
	specs := make([]curveSpec, len(r.cfg.HPairs))
	for i, pair := range r.cfg.HPairs {
		hn, hp := pair[0], pair[1]
		g, err := sweep.SignedGrid(hn, hp, r.cfg.EtaStep)
		if err != nil {
			return nil, err
		}
		grids[i] = g
		specs[i] = curveSpec{
			curve: models.Curve{Label: fmt.Sprintf("payoff(Hn=%.2f, Hp=%.2f)", hn, hp), Hn: hn, Hp: hp},
			points: func(models.Sample) ([]sweep.Point, error) {
				return g, nil
			},
			params: func(s models.Sample, p sweep.Point) reservation.Params {
				return reservation.Params{
					Family:    reservation.Aware,
					Direction: p.Direction,
					VStar:     s.BestPrice,
					Eta:       p.Magnitude,
					Hn:        hn,
					Hp:        hp,
					Bounds:    s.Bounds,
				}
			},
		}
	}

	return r.report(ctx, dataset, models.AlgoAware, start, samples, sweep.UnionGrid(grids...), specs)
}

type curveSpec struct {
	curve  models.Curve
	points func(models.Sample) ([]sweep.Point, error)
	params func(models.Sample, sweep.Point) reservation.Params
}

type cellValue struct {
	pos   int
	value float64
}

type sampleSweep struct {
	values [][]cellValue
	failed int
}

func (r *ExperimentRunner) report(ctx context.Context, dataset string, algo models.Algorithm, start time.Time,
	samples []models.Sample, grid []sweep.Point, specs []curveSpec) (*models.Report, error) {
	pos := sweep.Positions(grid)

	results := make([]sampleSweep, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, s := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.sweepSample(algo, s, pos, specs)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	accs := make([]*sweep.Accumulator, len(specs))
	for i := range specs {
		accs[i] = sweep.NewAccumulator(grid)
	}
	excluded := 0
	online := make([]float64, len(samples))
	best := make([]float64, len(samples))
	for i, res := range results {
		excluded += res.failed
		for c, vals := range res.values {
			for _, v := range vals {
				accs[c].Add(v.pos, v.value)
			}
		}
		online[i] = samples[i].Online
		best[i] = samples[i].BestPrice
	}

	curves := make([]models.Curve, len(specs))
	for i, spec := range specs {
		curves[i] = spec.curve
		curves[i].Cells = accs[i].Cells()
	}

	rep := &models.Report{
		ID:            uuid.NewString(),
		Dataset:       dataset,
		Algorithm:     algo,
		CreatedAt:     r.now().UTC(),
		Samples:       len(samples),
		WholePeriod:   r.cfg.WholePeriod,
		TradingPeriod: r.cfg.TradingPeriod,
		Eta:           sweep.Etas(grid),
		Curves:        curves,
		PureOnline:    sweep.Mean(online),
		BestPrice:     sweep.Mean(best),
		ExcludedCells: excluded,
	}

	elapsed := r.now().Sub(start)
	if r.metrics != nil {
		r.metrics.RecordExperiment(string(algo), elapsed.Seconds())
	}
	r.log.Info("experiment finished",
		logger.String("id", rep.ID),
		logger.String("dataset", dataset),
		logger.String("algorithm", string(algo)),
		logger.Int("samples", rep.Samples),
		logger.Int("grid", len(grid)),
		logger.Int("excluded_cells", excluded),
		logger.Duration("duration_ms", elapsed))
	return rep, nil
}

// sweepSample evaluates every curve of one sample. A cell whose evaluation
// fails is skipped and counted; it never aborts the run.
func (r *ExperimentRunner) sweepSample(algo models.Algorithm, s models.Sample, pos map[int]int, specs []curveSpec) (sampleSweep, error) {
	res := sampleSweep{values: make([][]cellValue, len(specs))}
	for c, spec := range specs {
		points, err := spec.points(s)
		if err != nil {
			return res, fmt.Errorf("sample at %d: %w", s.Start, err)
		}
		vals := make([]cellValue, 0, len(points))
		for _, p := range points {
			at, ok := pos[p.Index]
			if !ok {
				continue
			}
			payoff, err := reservation.Payoff(s.Prices, spec.params(s, p))
			if err != nil {
				res.failed++
				if r.metrics != nil {
					r.metrics.RecordCellError(string(algo))
				}
				r.log.Debug("sweep cell skipped",
					logger.String("curve", spec.curve.Label),
					logger.Int("start", s.Start),
					logger.Float64("eta", p.Eta),
					logger.Error(err))
				continue
			}
			vals = append(vals, cellValue{pos: at, value: payoff})
		}
		res.values[c] = vals
	}
	return res, nil
}
