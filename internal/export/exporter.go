package export

import (
	"fmt"
	"os"
	"path/filepath"

	"BestPrice/internal/domain/models"
	"BestPrice/pkg/logger"
)

// Exporter writes report tables and charts under <dir>/<dataset>/.
type Exporter struct {
	dir    string
	csv    bool
	charts bool
	log    *logger.Logger
}

func NewExporter(dir string, csv, charts bool, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{dir: dir, csv: csv, charts: charts, log: log}
}

// Paths returns the table and chart paths for a report, e.g.
// EURUSD/H_aware.csv and EURUSD/EURUSD_h_aware.png.
func Paths(dir, dataset string, algo models.Algorithm) (csvPath, chartPath string) {
	base := filepath.Join(dir, dataset)
	return filepath.Join(base, fmt.Sprintf("H_%s.csv", algo)),
		filepath.Join(base, fmt.Sprintf("%s_h_%s.png", dataset, algo))
}

// Export writes the enabled artefacts and returns their paths.
func (e *Exporter) Export(r *models.Report) ([]string, error) {
	csvPath, chartPath := Paths(e.dir, r.Dataset, r.Algorithm)
	if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	if e.csv {
		if err := writeFile(csvPath, r); err != nil {
			return written, fmt.Errorf("write %s: %w", csvPath, err)
		}
		written = append(written, csvPath)
	}
	if e.charts {
		if err := SaveChart(r, chartPath); err != nil {
			return written, fmt.Errorf("write %s: %w", chartPath, err)
		}
		written = append(written, chartPath)
	}

	for _, p := range written {
		e.log.Info("report exported", logger.String("id", r.ID), logger.String("path", p))
	}
	return written, nil
}

func writeFile(path string, r *models.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, r)
}
