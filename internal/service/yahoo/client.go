package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TrendPull/internal/domain/models"
	xhttp "TrendPull/pkg/http"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/util"
)

var ErrNoData = errors.New("yahoo: no data")

type Config struct {
	BaseURL  string
	Range    string
	Interval string
	Timeout  time.Duration
}

// Client reads daily bars and company profiles from the Yahoo Finance public API.
type Client struct {
	cfg  Config
	http *xhttp.Client
	log  *applogger.Logger
}

func New(cfg Config, l *applogger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Range == "" {
		cfg.Range = "3mo"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithUserAgent("Mozilla/5.0 (trendpull)")),
		log:  l,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) Error() string { return fmt.Sprintf("yahoo: %s: %s", e.Code, e.Description) }

// FetchDailyKlines returns the configured range of daily bars for stockID (e.g. 2330.TW), ascending.
// Bars with any null field are dropped. Prices are floored to whole units and volume is
// reported in lots of 1000 shares.
func (c *Client) FetchDailyKlines(ctx context.Context, stockID string) ([]models.Kline, error) {
	start := time.Now()
	endpoint := c.cfg.BaseURL + "/v8/finance/chart/" + url.PathEscape(stockID)
	q := url.Values{"range": {c.cfg.Range}, "interval": {c.cfg.Interval}}

	var resp chartResponse
	if err := c.http.GetJSON(ctx, endpoint, q, &resp); err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", stockID, err)
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, stockID)
	}
	res := resp.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	loc := time.FixedZone("exchange", res.Meta.GMTOffset)

	out := make([]models.Kline, 0, len(res.Timestamp))
	skipped := 0
	for i, ts := range res.Timestamp {
		o, h, l, cl, v := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i), at(quote.Volume, i)
		if o == nil || h == nil || l == nil || cl == nil || v == nil {
			skipped++
			continue
		}
		out = append(out, models.Kline{
			Date:   util.TradingDay(time.Unix(ts, 0), loc),
			Symbol: stockID,
			Open:   floorPrice(*o),
			High:   floorPrice(*h),
			Low:    floorPrice(*l),
			Close:  floorPrice(*cl),
			Volume: lots(*v),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	c.log.Debug("yahoo chart fetched",
		applogger.String("stock_id", stockID),
		applogger.Int("rows", len(out)),
		applogger.Int("skipped", skipped),
		applogger.Duration("took", time.Since(start)),
	)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, stockID)
	}
	return out, nil
}

// FetchStockInfo returns the sector and industry of stockID, or the unknown profile on any failure.
func (c *Client) FetchStockInfo(ctx context.Context, stockID string) models.StockInfo {
	info := models.UnknownStockInfo(stockID)
	endpoint := c.cfg.BaseURL + "/v10/finance/quoteSummary/" + url.PathEscape(stockID)

	var resp quoteSummaryResponse
	if err := c.http.GetJSON(ctx, endpoint, url.Values{"modules": {"assetProfile"}}, &resp); err != nil {
		c.log.Error("yahoo profile failed", applogger.String("stock_id", stockID), applogger.Error(err))
		return info
	}
	if resp.QuoteSummary.Error != nil || len(resp.QuoteSummary.Result) == 0 {
		return info
	}
	p := resp.QuoteSummary.Result[0].AssetProfile
	if s := strings.TrimSpace(p.Sector); s != "" {
		info.Sector = s
	}
	if s := strings.TrimSpace(p.Industry); s != "" {
		info.Industry = s
	}
	return info
}

// GetDailyKlines returns at most the latest days bars. Unknown symbols yield an empty slice.
func (c *Client) GetDailyKlines(ctx context.Context, stockID string, days int) ([]models.Kline, error) {
	ks, err := c.FetchDailyKlines(ctx, stockID)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if days > 0 && len(ks) > days {
		ks = ks[len(ks)-days:]
	}
	return ks, nil
}

func (c *Client) GetStockInfo(ctx context.Context, stockID string) (models.StockInfo, error) {
	return c.FetchStockInfo(ctx, stockID), nil
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}

func floorPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Floor().InexactFloat64()
}

func lots(v float64) float64 {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(1000)).Floor().InexactFloat64()
}
