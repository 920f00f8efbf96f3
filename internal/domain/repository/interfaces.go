package repository

import (
	"context"
	"errors"

	"BestPrice/internal/domain/models"
)

var (
	ErrWindowOutOfRange = errors.New("repository: window out of range")
	ErrDatasetNotFound  = errors.New("repository: dataset not found")
	ErrReportNotFound   = errors.New("repository: report not found")
)

// PriceSource exposes a dataset's closing-price series by position.
type PriceSource interface {
	Size(ctx context.Context, dataset string) (int, error)
	Window(ctx context.Context, dataset string, start, length int) ([]float64, error)
}

// ResultStore persists experiment reports.
type ResultStore interface {
	Save(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, id string) (*models.Report, error)
	// List returns report headers newest first. Curves are not loaded.
	List(ctx context.Context, dataset string, limit int) ([]*models.Report, error)
}

type ReportPublisher interface {
	PublishReport(ctx context.Context, r *models.Report) error
	Close() error
}

// MarketStream delivers live trades for a subscribed symbol.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbol string) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Close() error
}

type Metrics interface {
	RecordEvaluation(family string)
	RecordCellError(algorithm string)
	RecordError(kind string)
	RecordExperiment(algorithm string, seconds float64)
	RecordPayoff(source string, payoff float64)
	RecordLiveTick(symbol string)
	RecordLiveTrade(symbol string, forced bool)
}

// Bounds returns the market bounds of a window.
func Bounds(ctx context.Context, src PriceSource, dataset string, start, length int) (models.MarketBounds, error) {
	w, err := src.Window(ctx, dataset, start, length)
	if err != nil {
		return models.MarketBounds{}, err
	}
	if len(w) == 0 {
		return models.MarketBounds{}, ErrWindowOutOfRange
	}
	return models.BoundsOf(w), nil
}
