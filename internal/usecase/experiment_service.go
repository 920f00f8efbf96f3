package usecase

import (
	"context"
	"fmt"
	"time"

	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
	"BestPrice/pkg/cache"
	"BestPrice/pkg/logger"
)

// ExperimentService runs experiments, stores their reports and announces
// them. Reports served for identical requests are cached.
type ExperimentService struct {
	runner         *ExperimentRunner
	store          drepo.ResultStore
	publisher      drepo.ReportPublisher
	cache          cache.Service
	ttl            time.Duration
	defaultDataset string
	log            *logger.Logger
}

func NewExperimentService(runner *ExperimentRunner, store drepo.ResultStore, publisher drepo.ReportPublisher,
	c cache.Service, ttl time.Duration, defaultDataset string, log *logger.Logger) *ExperimentService {
	if log == nil {
		log = logger.Nop()
	}
	return &ExperimentService{
		runner:         runner,
		store:          store,
		publisher:      publisher,
		cache:          c,
		ttl:            ttl,
		defaultDataset: defaultDataset,
		log:            log,
	}
}

func (s *ExperimentService) normalize(req models.ExperimentRequest) models.ExperimentRequest {
	if req.Dataset == "" {
		req.Dataset = s.defaultDataset
	}
	if req.Samples <= 0 {
		req.Samples = s.runner.Config().Samples
	}
	return req
}

// Run always computes a fresh report, saves it and publishes an event.
// A publish failure is logged and does not fail the run.
func (s *ExperimentService) Run(ctx context.Context, req models.ExperimentRequest) (*models.Report, error) {
	req = s.normalize(req)

	rep, err := s.runner.Run(ctx, req.Dataset, req.Algorithm, req.Samples)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, rep); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, rep); err != nil {
			s.log.Warn("publish report failed", logger.String("id", rep.ID), logger.Error(err))
		}
	}
	return rep, nil
}

// Cached returns the cached report for req, running the experiment on a miss.
// An unreachable cache is logged and behaves like a miss.
func (s *ExperimentService) Cached(ctx context.Context, req models.ExperimentRequest) (*models.Report, bool, error) {
	req = s.normalize(req)
	if s.cache == nil {
		rep, err := s.Run(ctx, req)
		return rep, false, err
	}

	key := cache.Key("experiment", req.Algorithm, req.Dataset, req.Samples,
		s.runner.Config().WholePeriod, s.runner.Config().TradingPeriod)
	rep, hit, err := cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*models.Report, error) {
		return s.Run(ctx, req)
	})
	if err != nil && rep != nil {
		s.log.Warn("report cache failed", logger.String("key", key), logger.Error(err))
		return rep, false, nil
	}
	return rep, hit, err
}

func (s *ExperimentService) Report(ctx context.Context, id string) (*models.Report, error) {
	return s.store.Get(ctx, id)
}

func (s *ExperimentService) Reports(ctx context.Context, dataset string, limit int) ([]*models.Report, error) {
	return s.store.List(ctx, dataset, limit)
}
