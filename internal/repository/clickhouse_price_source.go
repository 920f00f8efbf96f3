package repository

import (
	"context"
	"database/sql"
	"fmt"

	domrepo "BestPrice/internal/domain/repository"
)

// PricesSchema creates the price table read by CHPriceSource.
var PricesSchema = []string{
	`CREATE DATABASE IF NOT EXISTS bestprice`,
	`CREATE TABLE IF NOT EXISTS bestprice.prices (
		dataset LowCardinality(String),
		idx     UInt32,
		close   Float64
	) ENGINE = ReplacingMergeTree
	ORDER BY (dataset, idx)`,
}

// CHPriceSource serves price windows from ClickHouse.
type CHPriceSource struct {
	db *sql.DB
}

func NewCHPriceSource(db *sql.DB) *CHPriceSource {
	return &CHPriceSource{db: db}
}

func (s *CHPriceSource) Size(ctx context.Context, dataset string) (int, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT count() FROM bestprice.prices FINAL WHERE dataset = ?`, dataset).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count prices: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", domrepo.ErrDatasetNotFound, dataset)
	}
	return int(n), nil
}

func (s *CHPriceSource) Window(ctx context.Context, dataset string, start, length int) ([]float64, error) {
	if start < 0 || length < 1 {
		return nil, fmt.Errorf("%w: start=%d length=%d", domrepo.ErrWindowOutOfRange, start, length)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT close
		FROM bestprice.prices FINAL
		WHERE dataset = ? AND idx >= ? AND idx < ?
		ORDER BY idx ASC`,
		dataset, uint32(start), uint32(start+length))
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	out := make([]float64, 0, length)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) != length {
		return nil, fmt.Errorf("%w: start=%d length=%d got=%d", domrepo.ErrWindowOutOfRange, start, length, len(out))
	}
	return out, nil
}
