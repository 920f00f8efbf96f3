package usecase

import (
	"context"
	"fmt"
	"sync"

	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
)

type seriesSource map[string][]float64

func (s seriesSource) Size(_ context.Context, dataset string) (int, error) {
	p, ok := s[dataset]
	if !ok {
		return 0, drepo.ErrDatasetNotFound
	}
	return len(p), nil
}

func (s seriesSource) Window(_ context.Context, dataset string, start, length int) ([]float64, error) {
	p, ok := s[dataset]
	if !ok {
		return nil, drepo.ErrDatasetNotFound
	}
	if start < 0 || start+length > len(p) {
		return nil, fmt.Errorf("%w: %d+%d", drepo.ErrWindowOutOfRange, start, length)
	}
	return append([]float64(nil), p[start:start+length]...), nil
}

type countingMetrics struct {
	mu          sync.Mutex
	evaluations map[string]int
	cellErrors  int
	errors      map[string]int
	experiments int
	ticks       int
	trades      int
	forced      int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{evaluations: map[string]int{}, errors: map[string]int{}}
}

func (m *countingMetrics) RecordEvaluation(family string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations[family]++
}

func (m *countingMetrics) RecordCellError(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cellErrors++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countingMetrics) RecordExperiment(string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiments++
}

func (m *countingMetrics) RecordPayoff(string, float64) {}

func (m *countingMetrics) RecordLiveTick(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
}

func (m *countingMetrics) RecordLiveTrade(_ string, forced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades++
	if forced {
		m.forced++
	}
}

type recordingPublisher struct {
	mu      sync.Mutex
	reports []*models.Report
	err     error
}

func (p *recordingPublisher) PublishReport(_ context.Context, r *models.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var _ drepo.PriceSource = seriesSource(nil)
var _ drepo.Metrics = (*countingMetrics)(nil)
var _ drepo.ReportPublisher = (*recordingPublisher)(nil)
