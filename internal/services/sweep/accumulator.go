package sweep

import "BestPrice/internal/domain/models"

// Accumulator averages payoffs per grid cell across samples. Cells no
// sample contributed to stay missing instead of counting as zero.
type Accumulator struct {
	grid   []Point
	sums   []float64
	counts []int
}

func NewAccumulator(grid []Point) *Accumulator {
	return &Accumulator{
		grid:   grid,
		sums:   make([]float64, len(grid)),
		counts: make([]int, len(grid)),
	}
}

// Add records value at grid position pos.
func (a *Accumulator) Add(pos int, value float64) {
	a.sums[pos] += value
	a.counts[pos]++
}

// Cells returns the averaged cells in grid order.
func (a *Accumulator) Cells() []models.Cell {
	out := make([]models.Cell, len(a.grid))
	for i, p := range a.grid {
		c := models.Cell{Eta: p.Eta, Count: a.counts[i]}
		if a.counts[i] > 0 {
			c.Present = true
			c.Value = a.sums[i] / float64(a.counts[i])
		}
		out[i] = c
	}
	return out
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
