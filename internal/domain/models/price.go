package models

import (
	"fmt"
	"math"
)

// MarketBounds is the (max, min) price pair observed over a reference window.
type MarketBounds struct {
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Validate checks M >= m > 0.
func (b MarketBounds) Validate() error {
	if math.IsNaN(b.Max) || math.IsNaN(b.Min) {
		return fmt.Errorf("bounds contain NaN (M=%v, m=%v)", b.Max, b.Min)
	}
	if b.Min <= 0 {
		return fmt.Errorf("lower bound must be positive, got m=%v", b.Min)
	}
	if b.Max < b.Min {
		return fmt.Errorf("upper bound below lower bound (M=%v, m=%v)", b.Max, b.Min)
	}
	return nil
}

// BoundsOf returns max and min of prices. prices must be non-empty.
func BoundsOf(prices []float64) MarketBounds {
	b := MarketBounds{Max: prices[0], Min: prices[0]}
	for _, p := range prices[1:] {
		if p > b.Max {
			b.Max = p
		}
		if p < b.Min {
			b.Min = p
		}
	}
	return b
}

// Sample is one sampled trading window together with its reference bounds.
type Sample struct {
	Start     int          `json:"start"`
	Prices    []float64    `json:"-"`
	Bounds    MarketBounds `json:"bounds"`
	BestPrice float64      `json:"best_price"`
	Online    float64      `json:"online"`
}
