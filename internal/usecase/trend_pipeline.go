package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"TrendPull/internal/domain/frame"
	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	"TrendPull/internal/service/cache"
	"TrendPull/internal/services/indicators"
	"TrendPull/internal/services/trend"
	applogger "TrendPull/pkg/logger"
)

type PipelineConfig struct {
	Indicators  indicators.Config
	Trend       trend.Options
	HistoryDays int
	CacheTTL    time.Duration
}

// TrendPipeline fetches klines, enriches them with indicators and reduces them to a report.
type TrendPipeline struct {
	source  domrepo.KlineSource
	info    domrepo.StockInfoSource
	klines  *cache.TTLCache[[]models.Kline]
	infos   *cache.TTLCache[models.StockInfo]
	cfg     PipelineConfig
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewTrendPipeline(source domrepo.KlineSource, cfg PipelineConfig, metrics domrepo.Metrics, l *applogger.Logger) *TrendPipeline {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 90
	}
	// Indicator windows are invalid at zero, so filling zeros never overrides a setting.
	_ = cfg.Indicators.ApplyDefaults()
	if cfg.Trend == (trend.Options{}) {
		cfg.Trend = trend.DefaultOptions()
	}
	if l == nil {
		l = applogger.Nop()
	}
	p := &TrendPipeline{
		source:  source,
		klines:  cache.NewTTLCache[[]models.Kline](),
		infos:   cache.NewTTLCache[models.StockInfo](),
		cfg:     cfg,
		metrics: metrics,
		log:     l.With(applogger.String("component", "trend_pipeline")),
	}
	// Sources that also describe the company attach sector and industry to reports.
	if is, ok := source.(domrepo.StockInfoSource); ok {
		p.info = is
	}
	return p
}

// Analyze runs the full chain for stockID. Missing data and indicator failures yield an
// invalid report; only context cancellation is returned as an error.
func (p *TrendPipeline) Analyze(ctx context.Context, stockID string, lookback int) (*models.StockReport, error) {
	start := time.Now()
	ks, err := p.fetch(ctx, stockID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.metrics.RecordError("kline_fetch")
		p.log.Error("kline fetch failed", applogger.String("stock_id", stockID), applogger.Error(err))
	}
	if len(ks) == 0 {
		return p.finish(stockID, 0, models.InvalidReport("No kbar data for "+stockID), start), nil
	}
	rep := p.run(stockID, ks, lookback, start)
	if rep.Report.OK() {
		info := p.stockInfo(ctx, stockID)
		rep.Sector, rep.Industry = info.Sector, info.Industry
	}
	return rep, nil
}

// stockInfo returns the cached company profile, or unknown values when none is available.
func (p *TrendPipeline) stockInfo(ctx context.Context, stockID string) models.StockInfo {
	if p.info == nil {
		return models.UnknownStockInfo(stockID)
	}
	if info, ok := p.infos.Get(stockID); ok {
		return info
	}
	info, err := p.info.GetStockInfo(ctx, stockID)
	if err != nil {
		p.metrics.RecordError("stock_info")
		p.log.Warn("stock info failed", applogger.String("stock_id", stockID), applogger.Error(err))
		return models.UnknownStockInfo(stockID)
	}
	if p.cfg.CacheTTL > 0 {
		p.infos.Set(stockID, info, p.cfg.CacheTTL)
	}
	return info
}

// AnalyzeKlines runs the chain on caller-supplied klines without retrieval.
func (p *TrendPipeline) AnalyzeKlines(stockID string, ks []models.Kline, lookback int) *models.StockReport {
	start := time.Now()
	if len(ks) == 0 {
		return p.finish(stockID, 0, models.InvalidReport("No kbar data for "+stockID), start)
	}
	return p.run(stockID, ks, lookback, start)
}

// Enrich returns the indicator frame of ks, ordered by date.
func (p *TrendPipeline) Enrich(ks []models.Kline) (*frame.Frame, error) {
	return indicators.Enrich(frame.FromKlines(sortedCopy(ks)), p.cfg.Indicators)
}

func (p *TrendPipeline) run(stockID string, ks []models.Kline, lookback int, start time.Time) *models.StockReport {
	enriched, err := p.Enrich(ks)
	if err != nil {
		p.metrics.RecordError("enrich")
		return p.finish(stockID, len(ks), models.InvalidReport(err.Error()), start)
	}
	opts := p.cfg.Trend
	if lookback > 0 {
		opts = opts.WithLookback(lookback)
	}
	report, err := trend.Generate(enriched, opts)
	if err != nil {
		p.metrics.RecordError("generate")
		report = models.InvalidReport(err.Error())
	}
	return p.finish(stockID, len(ks), report, start)
}

func (p *TrendPipeline) finish(stockID string, rows int, r *models.SignalReport, start time.Time) *models.StockReport {
	p.metrics.RecordAnalysis(string(r.SignalStatus))
	p.metrics.RecordLatency("analyze_seconds", time.Since(start).Seconds())
	if r.OK() && r.Close.Defined() {
		p.metrics.RecordLastClose(stockID, float64(r.Close))
	}
	fields := []applogger.Field{
		applogger.String("stock_id", stockID),
		applogger.Int("rows", rows),
		applogger.String("status", string(r.SignalStatus)),
		applogger.Duration("took", time.Since(start)),
	}
	if r.OK() {
		p.log.Info("trend analysed", append(fields, applogger.Strings("categories", r.TrendCategories))...)
	} else {
		p.log.Warn("trend invalid", append(fields, applogger.String("reason", r.Reason))...)
	}
	return &models.StockReport{ReportID: uuid.NewString(), StockID: stockID, Rows: rows, Report: r}
}

func (p *TrendPipeline) fetch(ctx context.Context, stockID string) ([]models.Kline, error) {
	if ks, ok := p.klines.Get(stockID); ok {
		return ks, nil
	}
	ks, err := p.source.GetDailyKlines(ctx, stockID, p.cfg.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("get klines %s: %w", stockID, err)
	}
	if len(ks) > 0 && p.cfg.CacheTTL > 0 {
		p.klines.Set(stockID, ks, p.cfg.CacheTTL)
	}
	return ks, nil
}

func sortedCopy(ks []models.Kline) []models.Kline {
	out := make([]models.Kline, len(ks))
	copy(out, ks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
