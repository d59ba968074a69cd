package broker

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"TrendPull/internal/domain/models"
	xhttp "TrendPull/pkg/http"
	applogger "TrendPull/pkg/logger"
)

// Client talks to the broker gateway that exposes scanner rankings and market snapshots.
type Client struct {
	baseURL string
	http    *xhttp.Client
	log     *applogger.Logger
}

func New(baseURL string, timeout time.Duration, l *applogger.Logger) *Client {
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     l,
	}
}

type scannerRow struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type snapshotRow struct {
	Code            string  `json:"code"`
	Exchange        string  `json:"exchange"`
	Close           float64 `json:"close"`
	ChangeRate      float64 `json:"change_rate"`
	TotalVolume     float64 `json:"total_volume"`
	YesterdayVolume float64 `json:"yesterday_volume"`
}

type snapshotRequest struct {
	Codes []string `json:"codes"`
}

// TopByAmount returns snapshots of the count contracts with the highest traded amount,
// named after the scanner ranking.
func (c *Client) TopByAmount(ctx context.Context, count int) ([]models.Snapshot, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("broker: base url not configured")
	}
	var ranked []scannerRow
	q := url.Values{"scanner_type": {"AmountRank"}, "count": {strconv.Itoa(count)}}
	if err := c.http.GetJSON(ctx, c.baseURL+"/scanners", q, &ranked); err != nil {
		return nil, fmt.Errorf("broker scanners: %w", err)
	}
	if len(ranked) == 0 {
		c.log.Warn("broker scanners empty")
		return nil, nil
	}

	names := make(map[string]string, len(ranked))
	codes := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names[r.Code] = r.Name
		codes = append(codes, r.Code)
	}

	var snaps []snapshotRow
	if err := c.http.PostJSON(ctx, c.baseURL+"/snapshots", nil, snapshotRequest{Codes: codes}, &snaps); err != nil {
		return nil, fmt.Errorf("broker snapshots: %w", err)
	}

	out := make([]models.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, models.Snapshot{
			Code:            s.Code,
			Name:            names[s.Code],
			Exchange:        s.Exchange,
			Close:           s.Close,
			ChangeRate:      s.ChangeRate,
			TotalVolume:     s.TotalVolume,
			YesterdayVolume: s.YesterdayVolume,
		})
	}
	c.log.Debug("broker snapshots fetched", applogger.Int("ranked", len(ranked)), applogger.Int("snapshots", len(out)))
	return out, nil
}
