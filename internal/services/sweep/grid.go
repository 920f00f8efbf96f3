package sweep

import (
	"fmt"
	"math"

	"BestPrice/internal/domain/models"
	"BestPrice/internal/services/reservation"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FloorHundredths returns the largest multiple of 0.01 not above x.
func FloorHundredths(x float64) float64 {
	return decimal.NewFromFloat(x).Mul(hundred).Floor().Div(hundred).InexactFloat64()
}

// TrustBounds derives the largest error magnitudes the bounds allow,
// Hn = (M-m)/m and Hp = (M-m)/M, each floored to hundredths.
func TrustBounds(b models.MarketBounds) (hn, hp float64) {
	return FloorHundredths((b.Max - b.Min) / b.Min), FloorHundredths((b.Max - b.Min) / b.Max)
}

// Point is one eta grid point. Index counts signed steps from zero and is
// unique within a grid, so grids built with the same step line up on it.
type Point struct {
	Index     int
	Eta       float64
	Magnitude float64
	Direction reservation.Direction
}

// SignedGrid lays out negative-error points -hn..-step followed by
// positive-error points 0..hp, spaced by step. Zero appears once, on the
// positive side.
func SignedGrid(hn, hp, step float64) ([]Point, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("grid step must be positive, got %v", step)
	}
	if hn < 0 || hp < 0 || math.IsNaN(hn) || math.IsNaN(hp) {
		return nil, fmt.Errorf("grid bounds must be non-negative, got hn=%v hp=%v", hn, hp)
	}

	s := decimal.NewFromFloat(step)
	nNeg := decimal.NewFromFloat(hn).Div(s).Floor().IntPart()
	nPos := decimal.NewFromFloat(hp).Div(s).Floor().IntPart()

	points := make([]Point, 0, nNeg+nPos+1)
	for k := nNeg; k >= 1; k-- {
		mag := s.Mul(decimal.NewFromInt(k)).InexactFloat64()
		points = append(points, Point{Index: -int(k), Eta: -mag, Magnitude: mag, Direction: reservation.NegativeError})
	}
	for k := int64(0); k <= nPos; k++ {
		mag := s.Mul(decimal.NewFromInt(k)).InexactFloat64()
		points = append(points, Point{Index: int(k), Eta: mag, Magnitude: mag, Direction: reservation.PositiveError})
	}
	return points, nil
}

// Etas returns the signed eta values of points.
func Etas(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Eta
	}
	return out
}

// UnionGrid merges grids built with the same step into one ascending grid.
func UnionGrid(grids ...[]Point) []Point {
	lo, hi := 0, 0
	byIndex := make(map[int]Point)
	for _, g := range grids {
		for _, p := range g {
			byIndex[p.Index] = p
			if p.Index < lo {
				lo = p.Index
			}
			if p.Index > hi {
				hi = p.Index
			}
		}
	}
	out := make([]Point, 0, len(byIndex))
	for i := lo; i <= hi; i++ {
		if p, ok := byIndex[i]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Positions maps each grid point's Index to its position in grid.
func Positions(grid []Point) map[int]int {
	pos := make(map[int]int, len(grid))
	for i, p := range grid {
		pos[p.Index] = i
	}
	return pos
}
