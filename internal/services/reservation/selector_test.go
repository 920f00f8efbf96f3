package reservation

import (
	"math"
	"testing"

	"BestPrice/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ascending = []float64{1.0, 2.0, 3.0, 4.0, 5.0}

func TestFirstAtLeastThresholdBelowMinReturnsFirst(t *testing.T) {
	for _, th := range []float64{-10, 0, 0.5, 1.0} {
		got, err := FirstAtLeast(ascending, th)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got, "threshold %v", th)
	}
}

func TestFirstAtLeastThresholdAboveMaxReturnsLast(t *testing.T) {
	// Forced trade at the end of the window is the designed fallback.
	for _, s := range [][]float64{ascending, {5, 4, 3}, {2, 9, 1}} {
		got, err := FirstAtLeast(s, 100)
		require.NoError(t, err)
		assert.Equal(t, s[len(s)-1], got)
	}
}

func TestFirstAtLeastToleranceAndOrder(t *testing.T) {
	got, err := FirstAtLeast([]float64{3.0, 9.0, 4.99995, 6.0}, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 9.0, got, "scan is chronological, not sorted")

	got, err = FirstAtLeast([]float64{1.0, 4.99995, 6.0}, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 4.99995, got, "within tolerance counts as meeting the threshold")

	got, err = FirstAtLeast([]float64{1.0, 4.9998, 6.0}, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)
}

func TestFirstAtLeastResultIsElement(t *testing.T) {
	series := [][]float64{
		{7},
		{3, 1, 4, 1, 5, 9, 2, 6},
		{10, 9, 8, 7},
	}
	for _, s := range series {
		for th := -1.0; th <= 11; th += 0.25 {
			got, err := FirstAtLeast(s, th)
			require.NoError(t, err)
			assert.Contains(t, s, got)
		}
	}
}

func TestFirstAtLeastEmpty(t *testing.T) {
	_, err := FirstAtLeast(nil, 1)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = FirstAtLeast([]float64{}, 1)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestOnlineScenario(t *testing.T) {
	b := models.MarketBounds{Max: 5, Min: 1}
	th, err := OnlineThreshold(b)
	require.NoError(t, err)
	assert.InDelta(t, 2.2360679, th, 1e-6)

	got, err := Online(ascending, b)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	direct, err := FirstAtLeast(ascending, math.Sqrt(5))
	require.NoError(t, err)
	assert.Equal(t, direct, got)
}

func TestOnlineThresholdWithinBounds(t *testing.T) {
	for _, b := range []models.MarketBounds{{Max: 1, Min: 1}, {Max: 5, Min: 1}, {Max: 1e6, Min: 1e-3}, {Max: 1.2345, Min: 1.2344}} {
		th, err := OnlineThreshold(b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, th, b.Min)
		assert.LessOrEqual(t, th, b.Max)
	}
}

func TestOnlineThresholdInvalidBounds(t *testing.T) {
	for _, b := range []models.MarketBounds{{Max: 1, Min: 2}, {Max: 1, Min: 0}, {Max: -1, Min: -2}, {Max: math.NaN(), Min: 1}} {
		_, err := OnlineThreshold(b)
		assert.ErrorIs(t, err, ErrInvalidBounds, "bounds %+v", b)
	}
}

func TestAccepts(t *testing.T) {
	assert.True(t, Accepts(5, 5))
	assert.True(t, Accepts(4.99991, 5))
	assert.False(t, Accepts(4.9998, 5))
}
