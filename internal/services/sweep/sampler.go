package sweep

import (
	"errors"
	"fmt"
)

// ErrNotEnoughRows reports a dataset shorter than one sampling window.
var ErrNotEnoughRows = errors.New("sweep: not enough rows")

// UniformStarts spreads n window start offsets evenly over [0, size-period],
// truncating to whole rows.
func UniformStarts(size, period, n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample count must be at least 1, got %d", n)
	}
	if period < 1 {
		return nil, fmt.Errorf("period must be at least 1, got %d", period)
	}
	if size < period {
		return nil, fmt.Errorf("%w: dataset has %d rows, need at least %d", ErrNotEnoughRows, size, period)
	}

	span := size - period
	starts := make([]int, n)
	if n == 1 {
		return starts, nil
	}
	step := float64(span) / float64(n-1)
	for i := 0; i < n-1; i++ {
		starts[i] = int(float64(i) * step)
	}
	starts[n-1] = span
	return starts, nil
}
