package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	pkgch "TrendPull/pkg/clickhouse"
	applogger "TrendPull/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHKlineSource reads daily bars from a ClickHouse table with columns
// (date, symbol, open, high, low, close, volume).
type CHKlineSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHKlineSource(ch *pkgch.Client, table string, l *applogger.Logger) (*CHKlineSource, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("clickhouse: invalid table name %q", table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHKlineSource{db: ch.DB(), table: table, l: l}, nil
}

func klineQuery(table string) string {
	const qtpl = `
        SELECT date, symbol, open, high, low, close, volume
        FROM (
            SELECT date, symbol, open, high, low, close, volume
            FROM %s
            WHERE symbol = ?
            ORDER BY date DESC
            LIMIT ?
        )
        ORDER BY date ASC
    `
	return fmt.Sprintf(qtpl, table)
}

// GetDailyKlines returns the latest days bars of stockID, ascending.
func (s *CHKlineSource) GetDailyKlines(ctx context.Context, stockID string, days int) ([]models.Kline, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, klineQuery(s.table), stockID, days)
	if err != nil {
		s.l.Error("clickhouse get_klines query error",
			applogger.String("table", s.table),
			applogger.String("stock_id", stockID),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query klines: %w", err)
	}
	defer rows.Close()

	out := make([]models.Kline, 0, days)
	for rows.Next() {
		var k models.Kline
		if err := rows.Scan(&k.Date, &k.Symbol, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume); err != nil {
			return nil, fmt.Errorf("scan kline: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate klines: %w", err)
	}
	s.l.Debug("clickhouse get_klines",
		applogger.String("stock_id", stockID),
		applogger.Int("rows", len(out)),
		applogger.Duration("took", time.Since(start)),
	)
	return out, nil
}

// GetStockInfo is not backed by ClickHouse; profiles are always unknown.
func (s *CHKlineSource) GetStockInfo(_ context.Context, stockID string) (models.StockInfo, error) {
	return models.UnknownStockInfo(stockID), nil
}

var (
	_ domrepo.KlineSource     = (*CHKlineSource)(nil)
	_ domrepo.StockInfoSource = (*CHKlineSource)(nil)
)
