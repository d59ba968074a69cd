package repository

import (
	"context"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
)

// KeyedProducer is the subset of the kafka producer used for reports.
type KeyedProducer interface {
	Publish(ctx context.Context, topic, key string, value any) error
	Close() error
}

// KafkaReportPublisher writes reports to a topic keyed by stock id, so reports of one
// stock stay ordered within a partition.
type KafkaReportPublisher struct {
	producer KeyedProducer
	topic    string
	metrics  domrepo.Metrics
}

func NewKafkaReportPublisher(p KeyedProducer, topic string, metrics domrepo.Metrics) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: p, topic: topic, metrics: metrics}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.StockReport) error {
	if err := p.producer.Publish(ctx, p.topic, r.StockID, r); err != nil {
		return err
	}
	p.metrics.RecordMessageSent("kafka", p.topic)
	return nil
}

func (p *KafkaReportPublisher) Close() error { return p.producer.Close() }

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)
