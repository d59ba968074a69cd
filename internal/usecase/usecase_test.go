package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
	"TrendPull/internal/services/indicators"
	"TrendPull/internal/services/llm"
	"TrendPull/internal/services/trend"
	"TrendPull/pkg/metrics"
)

func rising(n int) []models.Kline {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Kline, n)
	for i := range out {
		c := 100 + float64(i) + 2*math.Sin(float64(i))
		out[i] = models.Kline{
			Date:   base.AddDate(0, 0, i),
			Open:   c - 1,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 1000 + float64(i%7)*100,
		}
	}
	return out
}

type fakeSource struct {
	mu    sync.Mutex
	data  map[string][]models.Kline
	err   error
	calls int
}

func (f *fakeSource) GetDailyKlines(_ context.Context, id string, days int) ([]models.Kline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ks := f.data[id]
	if days > 0 && len(ks) > days {
		ks = ks[len(ks)-days:]
	}
	return ks, nil
}

type fakeInfoSource struct {
	*fakeSource
	info      models.StockInfo
	infoErr   error
	infoCalls int
}

func (f *fakeInfoSource) GetStockInfo(_ context.Context, id string) (models.StockInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	if f.infoErr != nil {
		return models.StockInfo{}, f.infoErr
	}
	info := f.info
	info.StockID = id
	return info, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	got  []*models.StockReport
	fail error
}

func (p *fakePublisher) PublishReport(_ context.Context, r *models.StockReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.got = append(p.got, r)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeHub struct {
	mu  sync.Mutex
	got []string
}

func (h *fakeHub) Broadcast(r *models.StockReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.got = append(h.got, r.StockID)
}

func newPipeline(src *fakeSource, ttl time.Duration) *TrendPipeline {
	return NewTrendPipeline(src, PipelineConfig{
		Indicators:  indicators.DefaultConfig(),
		Trend:       trend.DefaultOptions(),
		HistoryDays: 90,
		CacheTTL:    ttl,
	}, metrics.Nop{}, nil)
}

func TestPipelineAnalyze(t *testing.T) {
	ks := rising(80)
	src := &fakeSource{data: map[string][]models.Kline{"2330.TW": ks}}
	p := newPipeline(src, time.Minute)

	rep, err := p.Analyze(context.Background(), "2330.TW", 60)
	require.NoError(t, err)
	require.True(t, rep.Report.OK(), rep.Report.Reason)
	assert.Equal(t, "2330.TW", rep.StockID)
	assert.Equal(t, 80, rep.Rows)
	assert.Len(t, rep.ReportID, 36)
	assert.Equal(t, ks[79].Close, float64(rep.Report.Close))
	assert.True(t, rep.Report.MABullishAlignment)
	assert.Contains(t, rep.Report.TrendCategories, trend.CatMABullishAlignment)

	_, err = p.Analyze(context.Background(), "2330.TW", 60)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "klines are cached")
	assert.Equal(t, rising(80), ks, "input klines untouched")
}

func TestPipelineAnalyzeStockInfo(t *testing.T) {
	src := &fakeInfoSource{
		fakeSource: &fakeSource{data: map[string][]models.Kline{"2330.TW": rising(80)}},
		info:       models.StockInfo{Sector: "Technology", Industry: "Semiconductors"},
	}
	p := NewTrendPipeline(src, PipelineConfig{
		Indicators:  indicators.DefaultConfig(),
		Trend:       trend.DefaultOptions(),
		HistoryDays: 90,
		CacheTTL:    time.Minute,
	}, metrics.Nop{}, nil)

	rep, err := p.Analyze(context.Background(), "2330.TW", 60)
	require.NoError(t, err)
	require.True(t, rep.Report.OK(), rep.Report.Reason)
	assert.Equal(t, "Technology", rep.Sector)
	assert.Equal(t, "Semiconductors", rep.Industry)

	_, err = p.Analyze(context.Background(), "2330.TW", 60)
	require.NoError(t, err)
	assert.Equal(t, 1, src.infoCalls, "stock info is cached")

	rep, err = p.Analyze(context.Background(), "0050.TW", 60)
	require.NoError(t, err)
	assert.False(t, rep.Report.OK())
	assert.Empty(t, rep.Sector, "invalid reports skip the profile lookup")
	assert.Equal(t, 1, src.infoCalls)

	src.infoErr = errors.New("quote summary down")
	src.data["2317.TW"] = rising(80)
	rep, err = p.Analyze(context.Background(), "2317.TW", 60)
	require.NoError(t, err)
	require.True(t, rep.Report.OK())
	unknown := models.UnknownStockInfo("2317.TW")
	assert.Equal(t, unknown.Sector, rep.Sector)
	assert.Equal(t, unknown.Industry, rep.Industry)
}

func TestPipelineNoData(t *testing.T) {
	src := &fakeSource{data: map[string][]models.Kline{}}
	p := newPipeline(src, 0)

	rep, err := p.Analyze(context.Background(), "9999.TW", 60)
	require.NoError(t, err)
	assert.Equal(t, models.SignalInvalid, rep.Report.SignalStatus)
	assert.Equal(t, "No kbar data for 9999.TW", rep.Report.Reason)

	src.err = errors.New("upstream down")
	rep, err = p.Analyze(context.Background(), "2330.TW", 60)
	require.NoError(t, err)
	assert.Equal(t, "No kbar data for 2330.TW", rep.Report.Reason)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Analyze(ctx, "2330.TW", 60)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineAnalyzeKlines(t *testing.T) {
	p := newPipeline(&fakeSource{}, 0)
	ks := rising(40)
	shuffled := append([]models.Kline{ks[39]}, ks[:39]...)

	rep := p.AnalyzeKlines("inline", shuffled, 20)
	require.True(t, rep.Report.OK())
	assert.Equal(t, ks[39].Close, float64(rep.Report.Close))
	assert.Equal(t, ks[39], shuffled[0], "caller slice keeps its order")

	rep = p.AnalyzeKlines("inline", nil, 20)
	assert.Equal(t, "No kbar data for inline", rep.Report.Reason)

	rep = p.AnalyzeKlines("inline", ks[:1], 20)
	assert.Equal(t, models.SignalInvalid, rep.Report.SignalStatus)
}

type fakeCompleter struct {
	replies []string
	errs    []error
	calls   int
	prompt  string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompt = prompt
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return f.replies[i], nil
}

func TestLLMReport(t *testing.T) {
	src := &fakeSource{data: map[string][]models.Kline{"2330.TW": rising(80)}}
	model := &fakeCompleter{
		errs:    []error{errors.New("429")},
		replies: []string{"", "```json\n{\"suggestion\":\"buy\",\"reason\":\"uptrend\"}\n```"},
	}
	u := NewLLMReport(newPipeline(src, time.Minute), model, llm.NewTemplate("Analyse"), 60, 3, metrics.Nop{}, nil)
	u.backoff = time.Millisecond

	out, err := u.Generate(context.Background(), "2330.TW")
	require.NoError(t, err)
	assert.Equal(t, &models.LLMReport{StockID: "2330.TW", Suggestion: "buy", Reason: "uptrend"}, out)
	assert.Equal(t, 2, model.calls)
	assert.Contains(t, model.prompt, "Stock: 2330.TW")
	assert.Contains(t, model.prompt, `"signal_status": "ok"`)
}

func TestLLMReportInvalidSignal(t *testing.T) {
	model := &fakeCompleter{}
	u := NewLLMReport(newPipeline(&fakeSource{}, 0), model, llm.NewTemplate("x"), 60, 3, metrics.Nop{}, nil)
	u.backoff = time.Millisecond

	_, err := u.Generate(context.Background(), "0000.TW")
	require.ErrorIs(t, err, ErrSignalInvalid)
	var sie *SignalInvalidError
	require.ErrorAs(t, err, &sie)
	assert.Equal(t, "No kbar data for 0000.TW", sie.Reason)
	assert.Zero(t, model.calls)

	_, err = NewLLMReport(nil, nil, nil, 60, 1, metrics.Nop{}, nil).Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}

type fakeBroker struct {
	snaps []models.Snapshot
	err   error
}

func (b fakeBroker) TopByAmount(context.Context, int) ([]models.Snapshot, error) {
	return b.snaps, b.err
}

func TestFilterCandidates(t *testing.T) {
	snaps := []models.Snapshot{
		{Code: "2330", Name: "TSMC", Exchange: "TSE", TotalVolume: 110, YesterdayVolume: 100, ChangeRate: 1},
		{Code: "6488", Name: "GW", Exchange: "OTC", TotalVolume: 200, YesterdayVolume: 100},
		{Code: "1101", Name: "TCC", Exchange: "TSE", TotalVolume: 109, YesterdayVolume: 100},
		{Code: "0050", Name: "ETF", Exchange: "XXX", TotalVolume: 500, YesterdayVolume: 100},
	}
	got := FilterCandidates(snaps, 1.1)
	assert.Equal(t, []models.Candidate{
		{YFCode: "2330.TW", Name: "TSMC", ChangeRate: 1},
		{YFCode: "6488.TWO", Name: "GW"},
	}, got)
	assert.Empty(t, FilterCandidates(nil, 1.1))
}

func TestScanAndAnalyze(t *testing.T) {
	src := &fakeSource{data: map[string][]models.Kline{"2330.TW": rising(80), "6488.TWO": rising(50)}}
	b := fakeBroker{snaps: []models.Snapshot{
		{Code: "2330", Exchange: "TSE", TotalVolume: 300, YesterdayVolume: 100},
		{Code: "6488", Exchange: "OTC", TotalVolume: 300, YesterdayVolume: 100},
		{Code: "3008", Exchange: "TSE", TotalVolume: 300, YesterdayVolume: 100},
	}}
	pub, hub := &fakePublisher{}, &fakeHub{}
	s := NewScanner(b, newPipeline(src, 0), pub, hub, ScannerConfig{Concurrency: 2, Lookback: 30}, metrics.Nop{}, nil)

	res, err := s.ScanAndAnalyze(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "2330.TW", res[0].YFCode)
	assert.True(t, res[0].Report.OK())
	assert.True(t, res[1].Report.OK())
	assert.Equal(t, "No kbar data for 3008.TW", res[2].Report.Reason)
	assert.Len(t, pub.got, 3)
	assert.ElementsMatch(t, []string{"2330.TW", "6488.TWO", "3008.TW"}, hub.got)

	_, err = NewScanner(fakeBroker{err: errors.New("down")}, newPipeline(src, 0), nil, nil, ScannerConfig{}, metrics.Nop{}, nil).
		ScanAndAnalyze(context.Background(), 10)
	assert.Error(t, err)
}

func TestKafkaAnalysisHandler(t *testing.T) {
	src := &fakeSource{data: map[string][]models.Kline{"2330.TW": rising(80)}}
	pub, hub := &fakePublisher{}, &fakeHub{}
	h := NewKafkaAnalysisHandler("trend.requests", newPipeline(src, 0), pub, hub, metrics.Nop{}, nil)
	assert.Equal(t, "trend.requests", h.Topic())

	body, _ := json.Marshal(map[string]any{"stock_id": "2330.TW"})
	require.NoError(t, h.Handle(context.Background(), nil, body))
	require.Len(t, pub.got, 1)
	assert.True(t, pub.got[0].Report.OK())
	assert.Equal(t, []string{"2330.TW"}, hub.got)

	assert.Error(t, h.Handle(context.Background(), nil, []byte("{")))
	assert.Error(t, h.Handle(context.Background(), nil, []byte(`{"lookback":10}`)))

	pub.fail = errors.New("broker down")
	assert.Error(t, h.Handle(context.Background(), nil, body))
}
