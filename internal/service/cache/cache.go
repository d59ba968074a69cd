package cache

import (
	"context"
	"strconv"
	"time"
)

// BytesCache stores raw bytes with a TTL. A miss is (nil, false, nil).
type BytesCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ReportKey is the cache key of a signal report for stockID over lookback rows.
func ReportKey(stockID string, lookback int) string {
	return "trendpull:report:" + stockID + ":" + strconv.Itoa(lookback)
}
