package usecase

import (
	"context"
	"testing"

	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/services/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two windows of five rows: a rising one (M=5, m=1) and a flat one (M=m=10).
var twoWindows = seriesSource{"TEST": {1, 2, 3, 4, 5, 10, 10, 10, 10, 10}}

func testConfig() ExperimentConfig {
	return ExperimentConfig{
		WholePeriod:   5,
		TradingPeriod: 4,
		Samples:       2,
		EtaStep:       0.1,
		Workers:       2,
		RValues:       []float64{1, 0.5},
		HPairs:        [][2]float64{{0.1, 0.1}},
	}
}

func cellAt(t *testing.T, r *models.Report, curve int, eta float64) models.Cell {
	t.Helper()
	for i, e := range r.Eta {
		if e == eta {
			return r.Curves[curve].Cells[i]
		}
	}
	t.Fatalf("eta %v not on grid %v", eta, r.Eta)
	return models.Cell{}
}

func TestLoadSamples(t *testing.T) {
	runner := NewExperimentRunner(twoWindows, testConfig(), nil, nil)
	samples, err := runner.LoadSamples(context.Background(), "TEST", 0)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, 0, samples[0].Start)
	assert.Equal(t, []float64{1, 2, 3, 4}, samples[0].Prices)
	assert.Equal(t, models.MarketBounds{Max: 5, Min: 1}, samples[0].Bounds)
	assert.Equal(t, 4.0, samples[0].BestPrice)
	assert.Equal(t, 3.0, samples[0].Online)

	assert.Equal(t, 5, samples[1].Start)
	assert.Equal(t, 10.0, samples[1].BestPrice)
	assert.Equal(t, 10.0, samples[1].Online)
}

func TestLoadSamples_Errors(t *testing.T) {
	runner := NewExperimentRunner(twoWindows, testConfig(), nil, nil)
	_, err := runner.LoadSamples(context.Background(), "NOPE", 2)
	assert.ErrorIs(t, err, drepo.ErrDatasetNotFound)

	cfg := testConfig()
	cfg.WholePeriod = 50
	cfg.TradingPeriod = 40
	_, err = NewExperimentRunner(twoWindows, cfg, nil, nil).LoadSamples(context.Background(), "TEST", 2)
	assert.Error(t, err)
}

func TestRunOblivious(t *testing.T) {
	m := newCountingMetrics()
	runner := NewExperimentRunner(twoWindows, testConfig(), m, nil)

	rep, err := runner.RunOblivious(context.Background(), "TEST", 0)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, models.AlgoOblivious, rep.Algorithm)
	assert.Equal(t, 2, rep.Samples)
	assert.InDelta(t, 7.0, rep.BestPrice, 1e-12)
	assert.InDelta(t, 6.5, rep.PureOnline, 1e-12)
	assert.Zero(t, rep.ExcludedCells)
	assert.Equal(t, 1, m.experiments)

	// widest bounds come from the rising window: Hn=4.00, Hp=0.80
	require.Len(t, rep.Eta, 40+9)
	assert.Equal(t, -4.0, rep.Eta[0])
	assert.Equal(t, 0.8, rep.Eta[len(rep.Eta)-1])

	require.Len(t, rep.Curves, 2)
	assert.Equal(t, "payoff(r=1.00)", rep.Curves[0].Label)
	assert.Equal(t, "payoff(r=0.50)", rep.Curves[1].Label)

	// with no error and no discount every sample trades at its best price
	zero := cellAt(t, rep, 0, 0)
	assert.Equal(t, 2, zero.Count)
	assert.InDelta(t, rep.BestPrice, zero.Value, 1e-12)

	// the flat window allows no error, so only the rising window contributes
	off := cellAt(t, rep, 0, -0.1)
	assert.Equal(t, 1, off.Count)
	assert.True(t, off.Present)
	assert.InDelta(t, 4.0, off.Value, 1e-12)
}

func TestRunAware(t *testing.T) {
	runner := NewExperimentRunner(twoWindows, testConfig(), nil, nil)

	rep, err := runner.RunAware(context.Background(), "TEST", 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{-0.1, 0, 0.1}, rep.Eta)
	require.Len(t, rep.Curves, 1)
	assert.Equal(t, "payoff(Hn=0.10, Hp=0.10)", rep.Curves[0].Label)

	// rising window is consistent and trades at 4; flat window falls back
	// to sqrt(M*m)=10
	c := cellAt(t, rep, 0, 0)
	assert.Equal(t, 2, c.Count)
	assert.InDelta(t, 7.0, c.Value, 1e-12)
}

func TestRunAware_UnionGridLeavesGapsMissing(t *testing.T) {
	cfg := testConfig()
	cfg.HPairs = [][2]float64{{0.1, 0}, {0, 0.2}}
	rep, err := NewExperimentRunner(twoWindows, cfg, nil, nil).RunAware(context.Background(), "TEST", 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{-0.1, 0, 0.1, 0.2}, rep.Eta)
	assert.False(t, cellAt(t, rep, 0, 0.2).Present)
	assert.True(t, cellAt(t, rep, 0, -0.1).Present)
	assert.False(t, cellAt(t, rep, 1, -0.1).Present)
	assert.True(t, cellAt(t, rep, 1, 0.2).Present)
}

func TestRunAware_FailedCellsAreSkipped(t *testing.T) {
	m := newCountingMetrics()
	cfg := testConfig()
	cfg.EtaStep = 0.5
	cfg.HPairs = [][2]float64{{0.1, 1.0}}

	rep, err := NewExperimentRunner(twoWindows, cfg, m, nil).RunAware(context.Background(), "TEST", 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5, 1}, rep.Eta)
	assert.Equal(t, 6, rep.ExcludedCells)
	assert.Equal(t, 6, m.cellErrors)
	for _, c := range rep.Curves[0].Cells {
		assert.False(t, c.Present)
	}
}

func TestRun_UnknownAlgorithm(t *testing.T) {
	_, err := NewExperimentRunner(twoWindows, testConfig(), nil, nil).Run(context.Background(), "TEST", "greedy", 2)
	assert.ErrorIs(t, err, reservation.ErrUnknownVariant)
}
