package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	pkgkafka "TrendPull/pkg/kafka"
	applogger "TrendPull/pkg/logger"
)

// KafkaAnalysisHandler consumes analysis requests and publishes the resulting reports.
type KafkaAnalysisHandler struct {
	topic     string
	analyzer  Analyzer
	publisher domrepo.ReportPublisher
	hub       domrepo.ReportBroadcaster
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewKafkaAnalysisHandler(topic string, a Analyzer, pub domrepo.ReportPublisher, hub domrepo.ReportBroadcaster, metrics domrepo.Metrics, l *applogger.Logger) *KafkaAnalysisHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaAnalysisHandler{topic: topic, analyzer: a, publisher: pub, hub: hub, metrics: metrics, log: l}
}

func (h *KafkaAnalysisHandler) Topic() string { return h.topic }

// incoming message schema: {stock_id, lookback}; the key is ignored
func (h *KafkaAnalysisHandler) Handle(ctx context.Context, _, value []byte) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(value, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode analysis request: %w", err)
	}
	if err := defaults.Set(&req); err != nil {
		return err
	}
	if req.StockID == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("analysis request without stock_id")
	}

	start := time.Now()
	rep, err := h.analyzer.Analyze(ctx, req.StockID, req.Lookback)
	if err != nil {
		return err
	}
	h.metrics.RecordLatency("consumer_analyze_seconds", time.Since(start).Seconds())

	if h.hub != nil {
		h.hub.Broadcast(rep)
	}
	if h.publisher == nil {
		return nil
	}
	if err := h.publisher.PublishReport(ctx, rep); err != nil {
		h.metrics.RecordError("report_publish")
		return fmt.Errorf("publish report %s: %w", req.StockID, err)
	}
	h.log.Debug("analysis request served",
		applogger.String("stock_id", req.StockID),
		applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
		applogger.String("status", string(rep.Report.SignalStatus)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaAnalysisHandler)(nil)
