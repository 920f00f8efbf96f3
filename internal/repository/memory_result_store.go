package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"BestPrice/internal/domain/models"
	domrepo "BestPrice/internal/domain/repository"
)

// MemoryResultStore keeps reports in process. Used when ClickHouse is off.
type MemoryResultStore struct {
	mu      sync.RWMutex
	reports map[string]*models.Report
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{reports: make(map[string]*models.Report)}
}

func (s *MemoryResultStore) Save(_ context.Context, r *models.Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("save report: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrReportNotFound, id)
	}
	return r, nil
}

func (s *MemoryResultStore) List(_ context.Context, dataset string, limit int) ([]*models.Report, error) {
	s.mu.RLock()
	out := make([]*models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if dataset != "" && r.Dataset != dataset {
			continue
		}
		head := *r
		head.Curves = nil
		out = append(out, &head)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
