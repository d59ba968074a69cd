package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	applogger "TrendPull/pkg/logger"
)

type ScannerConfig struct {
	VolumeRatio float64
	Concurrency int
	Lookback    int
}

// Scanner picks actively traded stocks from the broker ranking and analyses each of them.
type Scanner struct {
	broker    domrepo.BrokerScanner
	analyzer  Analyzer
	publisher domrepo.ReportPublisher
	hub       domrepo.ReportBroadcaster
	cfg       ScannerConfig
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

// NewScanner wires the scanner. publisher and hub are optional.
func NewScanner(b domrepo.BrokerScanner, a Analyzer, pub domrepo.ReportPublisher, hub domrepo.ReportBroadcaster, cfg ScannerConfig, metrics domrepo.Metrics, l *applogger.Logger) *Scanner {
	if cfg.VolumeRatio <= 0 {
		cfg.VolumeRatio = 1.1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Scanner{broker: b, analyzer: a, publisher: pub, hub: hub, cfg: cfg, metrics: metrics, log: l.With(applogger.String("component", "scanner"))}
}

// Candidates returns the filtered ranking without running any analysis.
func (s *Scanner) Candidates(ctx context.Context, count int) ([]models.Candidate, error) {
	snaps, err := s.broker.TopByAmount(ctx, count)
	if err != nil {
		s.metrics.RecordError("broker_scan")
		return nil, fmt.Errorf("scan broker: %w", err)
	}
	out := FilterCandidates(snaps, s.cfg.VolumeRatio)
	s.log.Info("scanner candidates", applogger.Int("snapshots", len(snaps)), applogger.Int("candidates", len(out)))
	return out, nil
}

// ScanAndAnalyze runs the pipeline on every candidate with bounded concurrency. A failed
// analysis is recorded on its result and does not stop the others. Results keep ranking order.
func (s *Scanner) ScanAndAnalyze(ctx context.Context, count int) ([]models.ScanResult, error) {
	cands, err := s.Candidates(ctx, count)
	if err != nil {
		return nil, err
	}
	results := make([]models.ScanResult, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range cands {
		results[i].Candidate = c
		g.Go(func() error {
			rep, err := s.analyzer.Analyze(gctx, c.YFCode, s.cfg.Lookback)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = rep.Report
			s.deliver(gctx, rep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func (s *Scanner) deliver(ctx context.Context, rep *models.StockReport) {
	if s.hub != nil {
		s.hub.Broadcast(rep)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReport(ctx, rep); err != nil {
		s.metrics.RecordError("report_publish")
		s.log.Error("report publish failed", applogger.String("stock_id", rep.StockID), applogger.Error(err))
	}
}

// FilterCandidates keeps snapshots whose volume reached ratio times yesterday's and maps
// them to Yahoo codes. Exchanges other than TSE and OTC are dropped.
func FilterCandidates(snaps []models.Snapshot, ratio float64) []models.Candidate {
	out := make([]models.Candidate, 0, len(snaps))
	for _, s := range snaps {
		if s.TotalVolume < ratio*s.YesterdayVolume {
			continue
		}
		code := YFCode(s.Code, s.Exchange)
		if code == "" {
			continue
		}
		out = append(out, models.Candidate{YFCode: code, Name: s.Name, ChangeRate: s.ChangeRate})
	}
	return out
}

// YFCode maps a broker code to its Yahoo symbol, or "" for an unknown exchange.
func YFCode(code, exchange string) string {
	switch exchange {
	case models.ExchangeTSE:
		return code + ".TW"
	case models.ExchangeOTC:
		return code + ".TWO"
	default:
		return ""
	}
}
