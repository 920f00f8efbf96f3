package repository

import (
	"context"

	"BestPrice/internal/domain/models"

	"github.com/segmentio/kafka-go"
)

// EventReportCompleted is the type of the event emitted for a new report.
const EventReportCompleted = "report.completed"

type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value any, headers ...kafka.Header) error
	Close() error
}

// KafkaReportPublisher announces finished reports on a Kafka topic, keyed by
// dataset so events for one dataset stay ordered.
type KafkaReportPublisher struct {
	producer eventProducer
	topic    string
}

func NewKafkaReportPublisher(producer eventProducer, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.Report) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Dataset), models.ReportEvent{
		Type:      EventReportCompleted,
		ReportID:  r.ID,
		Dataset:   r.Dataset,
		Algorithm: r.Algorithm,
		CreatedAt: r.CreatedAt,
	}, kafka.Header{Key: "event_type", Value: []byte(EventReportCompleted)})
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopReportPublisher drops events. Used when Kafka is disabled.
type NoopReportPublisher struct{}

func (NoopReportPublisher) PublishReport(context.Context, *models.Report) error { return nil }

func (NoopReportPublisher) Close() error { return nil }
