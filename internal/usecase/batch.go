package usecase

import (
	"context"
	"fmt"

	"BestPrice/internal/domain/models"
	"BestPrice/pkg/logger"
)

type reportExporter interface {
	Export(r *models.Report) ([]string, error)
}

// Batch runs experiments back to back and exports each report.
type Batch struct {
	service  *ExperimentService
	exporter reportExporter
	log      *logger.Logger
}

func NewBatch(service *ExperimentService, exporter reportExporter, log *logger.Logger) *Batch {
	if log == nil {
		log = logger.Nop()
	}
	return &Batch{service: service, exporter: exporter, log: log}
}

// Run executes one experiment per algorithm on dataset and returns the
// reports in the same order. The first failure stops the batch.
func (b *Batch) Run(ctx context.Context, dataset string, algos []models.Algorithm, samples int) ([]*models.Report, error) {
	reports := make([]*models.Report, 0, len(algos))
	for _, algo := range algos {
		rep, err := b.service.Run(ctx, models.ExperimentRequest{Dataset: dataset, Algorithm: algo, Samples: samples})
		if err != nil {
			return reports, fmt.Errorf("%s experiment: %w", algo, err)
		}
		files, err := b.exporter.Export(rep)
		if err != nil {
			return reports, fmt.Errorf("%s export: %w", algo, err)
		}
		b.log.Info("experiment exported",
			logger.String("report_id", rep.ID),
			logger.String("algorithm", string(algo)),
			logger.Strings("files", files),
			logger.Float64("pure_online", rep.PureOnline),
			logger.Float64("best_price", rep.BestPrice),
			logger.Int("excluded_cells", rep.ExcludedCells))
		reports = append(reports, rep)
	}
	return reports, nil
}
