package reservation

import (
	"fmt"
	"math"

	"BestPrice/internal/domain/models"
)

// Family selects how a prediction is turned into a reservation price.
type Family int

const (
	// Oblivious applies a fixed discount r to the adjusted prediction.
	Oblivious Family = iota + 1
	// Aware trusts the prediction only when the claimed error bounds are
	// tighter than the market's own range, and falls back to sqrt(M*m) otherwise.
	Aware
)

func (f Family) String() string {
	switch f {
	case Oblivious:
		return "oblivious"
	case Aware:
		return "aware"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily maps "oblivious"/"aware" to a Family.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "oblivious":
		return Oblivious, nil
	case "aware":
		return Aware, nil
	default:
		return 0, fmt.Errorf("%w: family %q", ErrUnknownVariant, s)
	}
}

// Direction is the sign of the prediction error being modelled.
type Direction int

const (
	// NegativeError: the true best price is above the prediction, v = v*/(1+eta).
	NegativeError Direction = iota + 1
	// PositiveError: the prediction is inflated, v = v*/(1-eta), eta < 1.
	PositiveError
)

func (d Direction) String() string {
	switch d {
	case NegativeError:
		return "negative"
	case PositiveError:
		return "positive"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps "negative"/"positive" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "negative":
		return NegativeError, nil
	case "positive":
		return PositiveError, nil
	default:
		return 0, fmt.Errorf("%w: direction %q", ErrUnknownVariant, s)
	}
}

// Params are the inputs of one reservation-price computation.
// R is used by Oblivious only; Hn, Hp and Bounds by Aware only.
type Params struct {
	Family    Family
	Direction Direction
	VStar     float64
	Eta       float64
	R         float64
	Hn        float64
	Hp        float64
	Bounds    models.MarketBounds
}

// AdjustedPrediction removes the modelled error from the predicted best price.
func AdjustedPrediction(vStar, eta float64, d Direction) (float64, error) {
	if math.IsNaN(eta) || eta < 0 {
		return 0, fmt.Errorf("%w: eta=%v", ErrEtaOutOfRange, eta)
	}
	switch d {
	case NegativeError:
		return vStar / (1 + eta), nil
	case PositiveError:
		if eta >= 1 {
			return 0, fmt.Errorf("%w: eta=%v must be below 1 for positive error", ErrEtaOutOfRange, eta)
		}
		return vStar / (1 - eta), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariant, d)
	}
}

// Consistent reports whether (1+Hn)/(1-Hp) <= sqrt(M/m). Only the trust
// bounds enter the test, never the realised error.
func Consistent(hn, hp float64, b models.MarketBounds) bool {
	return (1+hn)/(1-hp) <= math.Sqrt(b.Max/b.Min)
}

// Threshold computes the reservation price for p.
func Threshold(p Params) (float64, error) {
	v, err := AdjustedPrediction(p.VStar, p.Eta, p.Direction)
	if err != nil {
		return 0, err
	}

	switch p.Family {
	case Oblivious:
		if math.IsNaN(p.R) || p.R <= 0 {
			return 0, fmt.Errorf("%w: r=%v", ErrInvalidDiscount, p.R)
		}
		return p.R * v, nil
	case Aware:
		if math.IsNaN(p.Hn) || math.IsNaN(p.Hp) || p.Hn < 0 || p.Hp < 0 || p.Hp >= 1 {
			return 0, fmt.Errorf("%w: Hn=%v Hp=%v", ErrInvalidTrust, p.Hn, p.Hp)
		}
		online, err := OnlineThreshold(p.Bounds)
		if err != nil {
			return 0, err
		}
		if Consistent(p.Hn, p.Hp, p.Bounds) {
			return v * (1 - p.Hp), nil
		}
		return online, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariant, p.Family)
	}
}

// Payoff computes the reservation price for p and selects a trade from prices.
func Payoff(prices []float64, p Params) (float64, error) {
	if len(prices) == 0 {
		return 0, ErrEmptySeries
	}
	t, err := Threshold(p)
	if err != nil {
		return 0, err
	}
	return FirstAtLeast(prices, t)
}
