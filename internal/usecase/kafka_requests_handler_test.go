package usecase

import (
	"context"
	"errors"
	"testing"

	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/services/sweep"
	pkgkafka "BestPrice/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	got []models.ExperimentRequest
	err error
}

func (s *stubRunner) Run(_ context.Context, req models.ExperimentRequest) (*models.Report, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Report{ID: "r1", Dataset: req.Dataset, Algorithm: req.Algorithm}, nil
}

func TestKafkaRequestsHandler(t *testing.T) {
	runner := &stubRunner{}
	m := newCountingMetrics()
	h := NewKafkaRequestsHandler("bestprice.requests", runner, m, nil)
	assert.Equal(t, "bestprice.requests", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"dataset":"EURUSD","algorithm":"aware","samples":5}`)))
	require.Len(t, runner.got, 1)
	assert.Equal(t, models.ExperimentRequest{Dataset: "EURUSD", Algorithm: models.AlgoAware, Samples: 5}, runner.got[0])

	assert.ErrorIs(t, h.Handle(context.Background(), []byte(`{`)), pkgkafka.ErrPermanent)
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])

	assert.ErrorIs(t, h.Handle(context.Background(), []byte(`{"algorithm":"greedy"}`)), pkgkafka.ErrPermanent)
	assert.Equal(t, 1, m.errors["consumer_validate"])

	runner.err = errors.New("clickhouse: timeout")
	err := h.Handle(context.Background(), []byte(`{"algorithm":"oblivious"}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, pkgkafka.ErrPermanent, "transient failures are retried")
	assert.Equal(t, 1, m.errors["consumer_run"])
}

func TestKafkaRequestsHandler_UnservableRequestsArePermanent(t *testing.T) {
	for _, cause := range []error{sweep.ErrNotEnoughRows, drepo.ErrDatasetNotFound, drepo.ErrWindowOutOfRange} {
		h := NewKafkaRequestsHandler("bestprice.requests", &stubRunner{err: cause}, nil, nil)
		err := h.Handle(context.Background(), []byte(`{"algorithm":"aware"}`))
		assert.ErrorIs(t, err, pkgkafka.ErrPermanent)
		assert.ErrorIs(t, err, cause)
	}
}
