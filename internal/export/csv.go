package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"BestPrice/internal/domain/models"
)

// WriteCSV writes one row per eta grid point: the eta, each curve's
// averaged payoff, then the pure online and best price averages. Missing
// cells are left blank.
func WriteCSV(w io.Writer, r *models.Report) error {
	for _, c := range r.Curves {
		if len(c.Cells) != len(r.Eta) {
			return fmt.Errorf("curve %q has %d cells for %d grid points", c.Label, len(c.Cells), len(r.Eta))
		}
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(r.Curves)+3)
	header = append(header, "eta")
	for _, c := range r.Curves {
		header = append(header, c.Label)
	}
	header = append(header, "pure online", "best price")
	if err := cw.Write(header); err != nil {
		return err
	}

	online, best := formatFloat(r.PureOnline), formatFloat(r.BestPrice)
	row := make([]string, len(header))
	for i, eta := range r.Eta {
		row[0] = formatFloat(eta)
		for j, c := range r.Curves {
			row[j+1] = ""
			if cell := c.Cells[i]; cell.Present {
				row[j+1] = formatFloat(cell.Value)
			}
		}
		row[len(row)-2], row[len(row)-1] = online, best
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
