package repository

import (
	"context"

	"TrendPull/internal/domain/models"
)

// KlineSource provides read-only access to daily klines, ordered by date ascending.
// An unknown stock yields an empty slice, not an error.
type KlineSource interface {
	GetDailyKlines(ctx context.Context, stockID string, days int) ([]models.Kline, error)
}

// StockInfoSource returns descriptive company data.
type StockInfoSource interface {
	GetStockInfo(ctx context.Context, stockID string) (models.StockInfo, error)
}

// BrokerScanner lists the most traded contracts with their snapshots.
type BrokerScanner interface {
	TopByAmount(ctx context.Context, count int) ([]models.Snapshot, error)
}

// ReportPublisher delivers finished reports to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r *models.StockReport) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(status string)
	RecordMessageSent(backend, topic string)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

// ReportBroadcaster fans reports out to live subscribers. It must not block.
type ReportBroadcaster interface {
	Broadcast(r *models.StockReport)
}
