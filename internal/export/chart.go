package export

import (
	"fmt"
	"image/color"
	"slices"

	"BestPrice/internal/domain/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
	dotted      = []vg.Length{vg.Points(1), vg.Points(3)}
	red         = color.RGBA{R: 220, A: 255}
)

// Chart plots every curve of r against eta with dotted reference lines for
// the pure online and best price averages.
func Chart(r *models.Report) (*plot.Plot, error) {
	if len(r.Eta) == 0 {
		return nil, fmt.Errorf("report %s has an empty eta grid", r.ID)
	}

	p := plot.New()
	p.X.Label.Text = "error η"
	switch r.Algorithm {
	case models.AlgoOblivious:
		p.Title.Text = "H-Oblivious"
		p.Y.Label.Text = "Payoff"
	default:
		p.Title.Text = "H-Aware"
		p.Y.Label.Text = "Average Payoff"
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, c := range r.Curves {
		pts := make(plotter.XYs, 0, len(c.Cells))
		for _, cell := range c.Cells {
			if cell.Present {
				pts = append(pts, plotter.XY{X: cell.Eta, Y: cell.Value})
			}
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", c.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(legendLabel(r.Algorithm, c), line)
	}

	lo, hi := slices.Min(r.Eta), slices.Max(r.Eta)
	for _, ref := range []struct {
		label string
		y     float64
		c     color.Color
	}{
		{"Pure Online", r.PureOnline, color.Black},
		{"Best Price", r.BestPrice, red},
	} {
		line, err := plotter.NewLine(plotter.XYs{{X: lo, Y: ref.y}, {X: hi, Y: ref.y}})
		if err != nil {
			return nil, err
		}
		line.Color = ref.c
		line.Dashes = dotted
		p.Add(line)
		p.Legend.Add(ref.label, line)
	}
	return p, nil
}

// SaveChart renders r as an image. The format follows path's extension.
func SaveChart(r *models.Report, path string) error {
	p, err := Chart(r)
	if err != nil {
		return err
	}
	return p.Save(chartWidth, chartHeight, path)
}

func legendLabel(algo models.Algorithm, c models.Curve) string {
	if algo == models.AlgoOblivious {
		return fmt.Sprintf("r=%.2f", c.R)
	}
	return fmt.Sprintf("Hn=%.2f, Hp=%.2f", c.Hn, c.Hp)
}
