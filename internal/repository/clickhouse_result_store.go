package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"BestPrice/internal/domain/models"
	domrepo "BestPrice/internal/domain/repository"
)

// ReportsSchema creates the report tables used by CHResultStore.
var ReportsSchema = []string{
	`CREATE DATABASE IF NOT EXISTS bestprice`,
	`CREATE TABLE IF NOT EXISTS bestprice.reports (
		id             String,
		dataset        LowCardinality(String),
		algorithm      LowCardinality(String),
		created_at     DateTime64(3, 'UTC'),
		samples        UInt32,
		whole_period   UInt32,
		trading_period UInt32,
		pure_online    Float64,
		best_price     Float64,
		excluded_cells UInt32,
		eta            Array(Float64)
	) ENGINE = MergeTree
	ORDER BY (dataset, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS bestprice.report_cells (
		report_id String,
		curve     UInt16,
		label     String,
		r         Float64,
		hn        Float64,
		hp        Float64,
		pos       UInt32,
		eta       Float64,
		value     Float64,
		present   UInt8,
		count     UInt32
	) ENGINE = MergeTree
	ORDER BY (report_id, curve, pos)`,
}

const cellChunkSize = 2000

// CHResultStore implements ResultStore for ClickHouse.
type CHResultStore struct {
	db *sql.DB
}

func NewCHResultStore(db *sql.DB) *CHResultStore {
	return &CHResultStore{db: db}
}

func (s *CHResultStore) Save(ctx context.Context, r *models.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bestprice.reports
			(id, dataset, algorithm, created_at, samples, whole_period, trading_period,
			 pure_online, best_price, excluded_cells, eta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Dataset, string(r.Algorithm), r.CreatedAt.UTC(),
		uint32(r.Samples), uint32(r.WholePeriod), uint32(r.TradingPeriod),
		r.PureOnline, r.BestPrice, uint32(r.ExcludedCells), r.Eta,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	rows := cellRows(r)
	for start := 0; start < len(rows); start += cellChunkSize {
		end := min(start+cellChunkSize, len(rows))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*11)
		for _, row := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, row...)
		}
		q := "INSERT INTO bestprice.report_cells (report_id, curve, label, r, hn, hp, pos, eta, value, present, count) VALUES " +
			strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert report cells: %w", err)
		}
	}
	return nil
}

func (s *CHResultStore) Get(ctx context.Context, id string) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, dataset, algorithm, created_at, samples, whole_period, trading_period,
		       pure_online, best_price, excluded_cells, eta
		FROM bestprice.reports
		WHERE id = ?
		LIMIT 1`, id)

	r, err := scanReport(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT curve, label, r, hn, hp, pos, eta, value, present, count
		FROM bestprice.report_cells
		WHERE report_id = ?
		ORDER BY curve, pos`, id)
	if err != nil {
		return nil, fmt.Errorf("query report cells: %w", err)
	}
	defer rows.Close()

	var cells []storedCell
	for rows.Next() {
		var c storedCell
		if err := rows.Scan(&c.curve, &c.label, &c.r, &c.hn, &c.hp, &c.pos, &c.eta, &c.value, &c.present, &c.count); err != nil {
			return nil, fmt.Errorf("scan report cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	r.Curves = assembleCurves(cells)
	return r, nil
}

func (s *CHResultStore) List(ctx context.Context, dataset string, limit int) ([]*models.Report, error) {
	q := `
		SELECT id, dataset, algorithm, created_at, samples, whole_period, trading_period,
		       pure_online, best_price, excluded_cells, eta
		FROM bestprice.reports`
	args := []any{}
	if dataset != "" {
		q += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Report, 0, limit)
	for rows.Next() {
		r, err := scanReport(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReport(scan func(dest ...any) error) (*models.Report, error) {
	var (
		r                                 models.Report
		algorithm                         string
		createdAt                         time.Time
		samples, whole, trading, excluded uint32
	)
	if err := scan(&r.ID, &r.Dataset, &algorithm, &createdAt, &samples, &whole, &trading,
		&r.PureOnline, &r.BestPrice, &excluded, &r.Eta); err != nil {
		return nil, err
	}
	r.Algorithm = models.Algorithm(algorithm)
	r.CreatedAt = createdAt.UTC()
	r.Samples = int(samples)
	r.WholePeriod = int(whole)
	r.TradingPeriod = int(trading)
	r.ExcludedCells = int(excluded)
	return &r, nil
}

type storedCell struct {
	curve      uint16
	label      string
	r, hn, hp  float64
	pos        uint32
	eta, value float64
	present    uint8
	count      uint32
}

// cellRows flattens a report's curves into report_cells argument rows.
func cellRows(r *models.Report) [][]any {
	var rows [][]any
	for ci, c := range r.Curves {
		for pos, cell := range c.Cells {
			present := uint8(0)
			if cell.Present {
				present = 1
			}
			rows = append(rows, []any{
				r.ID, uint16(ci), c.Label, c.R, c.Hn, c.Hp,
				uint32(pos), cell.Eta, cell.Value, present, uint32(cell.Count),
			})
		}
	}
	return rows
}

// assembleCurves rebuilds curves from cells ordered by (curve, pos).
func assembleCurves(cells []storedCell) []models.Curve {
	var curves []models.Curve
	for _, c := range cells {
		idx := int(c.curve)
		for len(curves) <= idx {
			curves = append(curves, models.Curve{})
		}
		cv := &curves[idx]
		cv.Label, cv.R, cv.Hn, cv.Hp = c.label, c.r, c.hn, c.hp
		cv.Cells = append(cv.Cells, models.Cell{
			Eta:     c.eta,
			Value:   c.value,
			Present: c.present == 1,
			Count:   int(c.count),
		})
	}
	return curves
}
