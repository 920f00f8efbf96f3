package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"BestPrice/internal/domain/models"
	domrepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/services/sweep"
	pkgkafka "BestPrice/pkg/kafka"
	"BestPrice/pkg/logger"
)

type experimentRunner interface {
	Run(ctx context.Context, req models.ExperimentRequest) (*models.Report, error)
}

// KafkaRequestsHandler runs experiments requested over Kafka.
type KafkaRequestsHandler struct {
	topic   string
	runner  experimentRunner
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewKafkaRequestsHandler(topic string, runner experimentRunner, metrics domrepo.Metrics, log *logger.Logger) *KafkaRequestsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaRequestsHandler{topic: topic, runner: runner, metrics: metrics, log: log}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// incoming message schema: {dataset, algorithm, samples?}
// Requests that can never succeed are marked permanent so the consumer does
// not retry them.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.ExperimentRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.recordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode experiment request: %w", err))
	}
	if req.Algorithm != models.AlgoOblivious && req.Algorithm != models.AlgoAware {
		h.recordError("consumer_validate")
		return pkgkafka.Permanent(fmt.Errorf("experiment request: unknown algorithm %q", req.Algorithm))
	}

	rep, err := h.runner.Run(ctx, req)
	if err != nil {
		h.recordError("consumer_run")
		if errors.Is(err, sweep.ErrNotEnoughRows) ||
			errors.Is(err, domrepo.ErrDatasetNotFound) ||
			errors.Is(err, domrepo.ErrWindowOutOfRange) {
			return pkgkafka.Permanent(err)
		}
		return err
	}
	h.log.Info("experiment request served",
		logger.String("request_id", pkgkafka.RequestID(ctx)),
		logger.String("report_id", rep.ID),
		logger.String("dataset", rep.Dataset),
		logger.String("algorithm", string(rep.Algorithm)))
	return nil
}

func (h *KafkaRequestsHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
