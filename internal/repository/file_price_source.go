package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	domrepo "BestPrice/internal/domain/repository"
	applogger "BestPrice/pkg/logger"
)

// FilePriceSource reads delimited price files named <dir>/<dataset>.csv.
// Files have no header; the closing price sits in a fixed column. A dataset
// is parsed once and kept in memory.
type FilePriceSource struct {
	dir    string
	column int
	comma  rune
	log    *applogger.Logger

	mu     sync.Mutex
	series map[string][]float64
}

// NewFilePriceSource creates a file-backed price source. delimiter defaults
// to a tab.
func NewFilePriceSource(dir string, column int, delimiter string, log *applogger.Logger) *FilePriceSource {
	comma := '\t'
	if delimiter != "" {
		comma = []rune(delimiter)[0]
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &FilePriceSource{
		dir:    dir,
		column: column,
		comma:  comma,
		log:    log,
		series: make(map[string][]float64),
	}
}

func (s *FilePriceSource) Size(ctx context.Context, dataset string) (int, error) {
	prices, err := s.load(ctx, dataset)
	if err != nil {
		return 0, err
	}
	return len(prices), nil
}

// Window returns a copy of prices[start : start+length].
func (s *FilePriceSource) Window(ctx context.Context, dataset string, start, length int) ([]float64, error) {
	prices, err := s.load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if start < 0 || length < 1 || start+length > len(prices) {
		return nil, fmt.Errorf("%w: start=%d length=%d size=%d", domrepo.ErrWindowOutOfRange, start, length, len(prices))
	}
	out := make([]float64, length)
	copy(out, prices[start:start+length])
	return out, nil
}

func (s *FilePriceSource) load(ctx context.Context, dataset string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dataset == "" || strings.ContainsAny(dataset, `/\`) || dataset == ".." {
		return nil, fmt.Errorf("%w: invalid dataset name %q", domrepo.ErrDatasetNotFound, dataset)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prices, ok := s.series[dataset]; ok {
		return prices, nil
	}

	path := filepath.Join(s.dir, dataset+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domrepo.ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	prices, err := parsePrices(f, s.comma, s.column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s: no prices", path)
	}

	s.series[dataset] = prices
	s.log.Info("dataset loaded",
		applogger.String("dataset", dataset),
		applogger.String("path", path),
		applogger.Int("rows", len(prices)))
	return prices, nil
}

func parsePrices(r io.Reader, comma rune, column int) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	var prices []float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return prices, nil
		}
		if err != nil {
			return nil, err
		}
		if column >= len(rec) {
			return nil, fmt.Errorf("line %d: %d columns, price column is %d", line, len(rec), column)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(rec[column]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !(p > 0) {
			return nil, fmt.Errorf("line %d: price must be positive, got %v", line, p)
		}
		prices = append(prices, p)
	}
}
