package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	domsvc "TrendPull/internal/domain/service"
	"TrendPull/internal/services/llm"
	applogger "TrendPull/pkg/logger"
)

var (
	ErrSignalInvalid    = errors.New("signal invalid")
	ErrLLMNotConfigured = errors.New("llm not configured")
)

// SignalInvalidError carries the reason of the rejected report.
type SignalInvalidError struct {
	StockID string
	Reason  string
}

func (e *SignalInvalidError) Error() string {
	return fmt.Sprintf("signal invalid for %s: %s", e.StockID, e.Reason)
}

func (e *SignalInvalidError) Is(target error) bool { return target == ErrSignalInvalid }

// Analyzer produces a report for a stock; satisfied by TrendPipeline.
type Analyzer interface {
	Analyze(ctx context.Context, stockID string, lookback int) (*models.StockReport, error)
}

// LLMReport turns a trend report into a trading suggestion from a language model.
// The whole chain from analysis to parsing is retried.
type LLMReport struct {
	analyzer Analyzer
	model    domsvc.ChatCompleter
	prompt   *llm.Template
	lookback int
	attempts int
	backoff  time.Duration
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

func NewLLMReport(a Analyzer, model domsvc.ChatCompleter, prompt *llm.Template, lookback, attempts int, metrics domrepo.Metrics, l *applogger.Logger) *LLMReport {
	if l == nil {
		l = applogger.Nop()
	}
	return &LLMReport{
		analyzer: a,
		model:    model,
		prompt:   prompt,
		lookback: lookback,
		attempts: attempts,
		backoff:  500 * time.Millisecond,
		metrics:  metrics,
		log:      l.With(applogger.String("component", "llm_report")),
	}
}

func (u *LLMReport) Generate(ctx context.Context, stockID string) (*models.LLMReport, error) {
	if u.model == nil || u.prompt == nil {
		return nil, ErrLLMNotConfigured
	}
	start := time.Now()
	var out *models.LLMReport
	err := llm.Retry(ctx, u.attempts, u.backoff, func(ctx context.Context) error {
		r, err := u.once(ctx, stockID)
		if err != nil {
			if errors.Is(err, ErrSignalInvalid) {
				return llm.Stop{Err: err}
			}
			u.log.Warn("llm chain attempt failed", applogger.String("stock_id", stockID), applogger.Error(err))
			return err
		}
		out = r
		return nil
	})
	u.metrics.RecordLatency("llm_report_seconds", time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, ErrSignalInvalid) {
			u.metrics.RecordError("llm_report")
		}
		return nil, err
	}
	u.metrics.RecordMessageSent("llm", "llm-report")
	return out, nil
}

func (u *LLMReport) once(ctx context.Context, stockID string) (*models.LLMReport, error) {
	rep, err := u.analyzer.Analyze(ctx, stockID, u.lookback)
	if err != nil {
		return nil, err
	}
	if !rep.Report.OK() {
		return nil, &SignalInvalidError{StockID: stockID, Reason: rep.Report.Reason}
	}
	prompt, err := u.prompt.Render(stockID, rep.Report)
	if err != nil {
		return nil, err
	}
	reply, err := u.model.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	s, err := llm.ParseSuggestion(reply)
	if err != nil {
		return nil, err
	}
	id := s.StockID
	if id == "" {
		id = stockID
	}
	return &models.LLMReport{StockID: id, Suggestion: s.Suggestion, Reason: s.Reason}, nil
}
