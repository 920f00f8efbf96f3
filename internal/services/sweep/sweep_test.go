package sweep

import (
	"testing"

	"BestPrice/internal/domain/models"
	"BestPrice/internal/services/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorHundredths(t *testing.T) {
	cases := map[float64]float64{
		0:       0,
		0.299:   0.29,
		0.3:     0.3,
		1.0 / 3: 0.33,
		2.5:     2.5,
		0.0099:  0,
		4:       4,
	}
	for in, want := range cases {
		assert.InDelta(t, want, FloorHundredths(in), 1e-12, "input %v", in)
	}
}

func TestTrustBounds(t *testing.T) {
	hn, hp := TrustBounds(models.MarketBounds{Max: 5, Min: 1})
	assert.InDelta(t, 4.0, hn, 1e-12)
	assert.InDelta(t, 0.8, hp, 1e-12)

	hn, hp = TrustBounds(models.MarketBounds{Max: 1.3, Min: 1.0})
	assert.InDelta(t, 0.3, hn, 1e-12)
	assert.InDelta(t, 0.23, hp, 1e-12)
}

func TestSignedGrid(t *testing.T) {
	g, err := SignedGrid(0.03, 0.02, 0.01)
	require.NoError(t, err)
	require.Len(t, g, 6)

	etas := Etas(g)
	want := []float64{-0.03, -0.02, -0.01, 0, 0.01, 0.02}
	for i := range want {
		assert.InDelta(t, want[i], etas[i], 1e-12)
	}
	assert.Equal(t, reservation.NegativeError, g[0].Direction)
	assert.Equal(t, reservation.PositiveError, g[3].Direction)
	assert.Equal(t, -3, g[0].Index)
	assert.Equal(t, 0, g[3].Index)
	assert.InDelta(t, 0.03, g[0].Magnitude, 1e-12)
}

func TestSignedGridZeroBounds(t *testing.T) {
	g, err := SignedGrid(0, 0, 0.01)
	require.NoError(t, err)
	require.Len(t, g, 1)
	assert.Equal(t, 0.0, g[0].Eta)
	assert.Equal(t, reservation.PositiveError, g[0].Direction)
}

func TestSignedGridAwarePairSizes(t *testing.T) {
	// Each side spans H/step+1 points including zero; zero is shared.
	for _, pair := range [][2]float64{{0.05, 0.05}, {0.1, 0.1}, {0.2, 0.3}, {0.3, 0.3}, {0.5, 0.5}} {
		g, err := SignedGrid(pair[0], pair[1], 0.01)
		require.NoError(t, err)
		want := int(pair[0]*100+0.5) + int(pair[1]*100+0.5) + 1
		assert.Len(t, g, want, "pair %v", pair)
	}
}

func TestSignedGridRejectsBadInput(t *testing.T) {
	_, err := SignedGrid(0.1, 0.1, 0)
	assert.Error(t, err)
	_, err = SignedGrid(-0.1, 0.1, 0.01)
	assert.Error(t, err)
}

func TestUnionGridAndPositions(t *testing.T) {
	a, err := SignedGrid(0.02, 0.01, 0.01)
	require.NoError(t, err)
	b, err := SignedGrid(0.01, 0.03, 0.01)
	require.NoError(t, err)

	u := UnionGrid(a, b)
	require.Len(t, u, 6)
	assert.Equal(t, -2, u[0].Index)
	assert.Equal(t, 3, u[len(u)-1].Index)

	pos := Positions(u)
	assert.Equal(t, 0, pos[-2])
	assert.Equal(t, 2, pos[0])
	assert.Equal(t, 5, pos[3])
}

func TestUniformStarts(t *testing.T) {
	starts, err := UniformStarts(1000, 250, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 250, 500, 750}, starts)

	starts, err = UniformStarts(260, 250, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6, 10}, starts)

	starts, err = UniformStarts(300, 250, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, starts)

	_, err = UniformStarts(100, 250, 4)
	assert.ErrorIs(t, err, ErrNotEnoughRows)
	_, err = UniformStarts(1000, 250, 0)
	assert.Error(t, err)
}

func TestAccumulatorExcludesMissingCells(t *testing.T) {
	g, err := SignedGrid(0.01, 0.01, 0.01)
	require.NoError(t, err)
	acc := NewAccumulator(g)
	acc.Add(0, 2)
	acc.Add(0, 4)
	acc.Add(2, 5)

	cells := acc.Cells()
	require.Len(t, cells, 3)
	assert.True(t, cells[0].Present)
	assert.Equal(t, 3.0, cells[0].Value)
	assert.Equal(t, 2, cells[0].Count)
	assert.False(t, cells[1].Present)
	assert.Equal(t, 0, cells[1].Count)
	assert.Equal(t, 5.0, cells[2].Value)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}
