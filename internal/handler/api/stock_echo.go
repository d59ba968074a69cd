package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/service/cache"
	svcmetrics "TrendPull/internal/service/metrics"
	"TrendPull/internal/service/ratelimit"
	"TrendPull/internal/usecase"
	xhttp "TrendPull/pkg/http"
	xlogger "TrendPull/pkg/logger"
	"TrendPull/pkg/util"
)

type ReportService interface {
	Analyze(ctx context.Context, stockID string, lookback int) (*models.StockReport, error)
	AnalyzeKlines(stockID string, ks []models.Kline, lookback int) *models.StockReport
}

type LLMService interface {
	Generate(ctx context.Context, stockID string) (*models.LLMReport, error)
}

type ScanService interface {
	Candidates(ctx context.Context, count int) ([]models.Candidate, error)
	ScanAndAnalyze(ctx context.Context, count int) ([]models.ScanResult, error)
}

const inlineStockID = "inline"

// StockEchoHandler serves trend reports, LLM suggestions and the scanner.
type StockEchoHandler struct {
	logger   *xlogger.Logger
	reports  ReportService
	llm      LLMService
	scanner  ScanService
	cache    cache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
}

// NewStockEchoHandler wires the handler. cache and limiter may be nil.
func NewStockEchoHandler(logger *xlogger.Logger, reports ReportService, llm LLMService, scanner ScanService,
	c cache.BytesCache, cacheTTL time.Duration, limiter *ratelimit.Limiter) *StockEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &StockEchoHandler{logger: logger, reports: reports, llm: llm, scanner: scanner, cache: c, cacheTTL: cacheTTL, limiter: limiter}
}

func (h *StockEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/stock/:stock_id/signals", h.Signals)
	g.POST("/stock/signals", h.InlineSignals)
	g.POST("/stock/llm-report", h.LLMReport)
	g.GET("/scanner", h.Scanner)
}

func (h *StockEchoHandler) Signals(c echo.Context) error {
	const endpoint = "signals"
	defer svcmetrics.Observe(endpoint, time.Now())

	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Fail(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	stockID := util.NormalizeSymbol(req.StockID)
	ctx := c.Request().Context()
	key := cache.ReportKey(stockID, req.Lookback)

	if h.cache != nil && !req.NoCache {
		b, ok, err := h.cache.GetBytes(ctx, key)
		if err != nil {
			h.logger.Warn("report cache get failed", xlogger.String("key", key), xlogger.Error(err))
		}
		svcmetrics.CacheResult(ok)
		if ok {
			c.Response().Header().Set("X-Cache", "HIT")
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	rep, err := h.reports.Analyze(ctx, stockID, req.Lookback)
	if err != nil {
		svcmetrics.Fail(endpoint, "ERR_CANCELED")
		h.logger.Error("signals usecase error", xlogger.String("stock_id", stockID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("analysis aborted").WithError(err))
	}
	if h.cache != nil && rep.Report.OK() {
		if b, err := json.Marshal(rep); err == nil {
			if err := h.cache.SetBytes(ctx, key, b, h.cacheTTL); err != nil {
				h.logger.Warn("report cache set failed", xlogger.String("key", key), xlogger.Error(err))
			}
		}
	}
	c.Response().Header().Set("X-Cache", "MISS")
	return xhttp.SuccessResponse(c, rep)
}

func (h *StockEchoHandler) InlineSignals(c echo.Context) error {
	const endpoint = "inline_signals"
	defer svcmetrics.Observe(endpoint, time.Now())

	req := &models.InlineSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Fail(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.reports.AnalyzeKlines(inlineStockID, req.Klines, req.Lookback))
}

func (h *StockEchoHandler) LLMReport(c echo.Context) error {
	const endpoint = "llm_report"
	defer svcmetrics.Observe(endpoint, time.Now())

	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		svcmetrics.Fail(endpoint, "ERR_RATE_LIMITED")
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many llm report requests"))
	}
	req := &models.LLMReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Fail(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	stockID := util.NormalizeSymbol(req.StockID)

	res, err := h.llm.Generate(c.Request().Context(), stockID)
	if err != nil {
		appErr := llmError(err)
		svcmetrics.Fail(endpoint, appErr.Code)
		h.logger.Error("llm report usecase error", xlogger.String("stock_id", stockID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appErr.WithParam("stock_id", stockID))
	}
	return xhttp.SuccessResponse(c, res)
}

func llmError(err error) *xhttp.AppError {
	var sie *usecase.SignalInvalidError
	switch {
	case errors.As(err, &sie):
		return xhttp.UnprocessableError("ERR_SIGNAL_INVALID", sie.Reason).WithError(err)
	case errors.Is(err, usecase.ErrLLMNotConfigured):
		return xhttp.NewAppError("ERR_LLM_DISABLED", "", "llm is not configured", http.StatusServiceUnavailable)
	default:
		return xhttp.BadGatewayError("LLM analysis failed").WithError(err)
	}
}

func (h *StockEchoHandler) Scanner(c echo.Context) error {
	const endpoint = "scanner"
	defer svcmetrics.Observe(endpoint, time.Now())

	req := &models.ScannerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Fail(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	if req.SkipAnalysis {
		rows, err := h.scanner.Candidates(ctx, req.Count)
		if err != nil {
			return h.scanFailed(c, err)
		}
		return xhttp.ListResponse(c, rows, int64(len(rows)))
	}
	rows, err := h.scanner.ScanAndAnalyze(ctx, req.Count)
	if err != nil {
		return h.scanFailed(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *StockEchoHandler) scanFailed(c echo.Context, err error) error {
	svcmetrics.Fail("scanner", "ERR_UPSTREAM")
	h.logger.Error("scanner usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("scanner unavailable").WithError(err))
}
