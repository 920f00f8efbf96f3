package reservation

import (
	"fmt"
	"math"

	"BestPrice/internal/domain/models"
)

// Tolerance absorbs floating-point noise when comparing a price to a threshold.
// The value is kept for compatibility with published results.
const Tolerance = 1e-4

// FirstAtLeast returns the first price x with x >= threshold-Tolerance.
// When no price qualifies the last price is returned: the trader must accept
// whatever is left at the end of the window.
func FirstAtLeast(prices []float64, threshold float64) (float64, error) {
	if len(prices) == 0 {
		return 0, ErrEmptySeries
	}
	for _, p := range prices {
		if p >= threshold-Tolerance {
			return p, nil
		}
	}
	return prices[len(prices)-1], nil
}

// Accepts reports whether a single observed price meets threshold.
func Accepts(price, threshold float64) bool {
	return price >= threshold-Tolerance
}

// OnlineThreshold is the pure-online reservation price sqrt(M*m).
func OnlineThreshold(b models.MarketBounds) (float64, error) {
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
	}
	return math.Sqrt(b.Max * b.Min), nil
}

// Online returns the payoff of the pure-online algorithm on prices.
func Online(prices []float64, b models.MarketBounds) (float64, error) {
	t, err := OnlineThreshold(b)
	if err != nil {
		return 0, err
	}
	return FirstAtLeast(prices, t)
}
