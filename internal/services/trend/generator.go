package trend

import (
	"fmt"
	"math"
	"strings"

	"TrendPull/internal/domain/frame"
	"TrendPull/internal/domain/models"
	"TrendPull/internal/services/indicators"
)

// RequiredColumns must all be present before any signal is derived.
var RequiredColumns = []string{
	indicators.ColMACD, indicators.ColSignalLine,
	"5ma", "10ma", "20ma",
	frame.Open, frame.High, frame.Low, frame.Close,
	indicators.ColVMAShort, indicators.ColVMALong,
	indicators.ColCCI, frame.Volume, indicators.ColRSI,
	indicators.ColBollingerUpper, indicators.ColBollingerLower,
	indicators.ColATR,
}

// OptionalColumns feed extra signals and values when present.
var OptionalColumns = []string{
	indicators.ColKDJK, indicators.ColKDJD, indicators.ColKDJJ,
	indicators.ColOBV, indicators.ColADX,
}

// Category names in evaluation order.
const (
	CatMACDBullish          = "macd_bullish"
	CatMABullishAlignment   = "ma_bullish_alignment"
	CatMACDTrendConfirmed   = "macd_trend_confirmed"
	CatRecentHigh           = "recent_high"
	CatSustainedHighsEnough = "sustained_highs_enough"
	CatTrendMomentum        = "trend_momentum"
	CatVolumeConfirmation   = "volume_confirmation"
	CatVolumeSpike          = "volume_spike"
	CatMomentumKbar         = "momentum_kbar"
	CatRSIOverbought        = "rsi_overbought"
	CatRSIOversold          = "rsi_oversold"
	CatKDJGoldenCross       = "kdj_golden_cross"
	CatKDJOverbought        = "kdj_overbought"
	CatKDJOversold          = "kdj_oversold"
)

// Generate validates an indicator frame and reduces it to a signal report.
// Missing columns or too few rows produce an invalid report. A nil frame or options that fail
// Validate are errors; opts is used as given, so start from DefaultOptions.
func Generate(f *frame.Frame, opts Options) (*models.SignalReport, error) {
	if f == nil {
		return nil, frame.ErrNilFrame
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if missing := f.Missing(RequiredColumns...); len(missing) > 0 {
		return models.InvalidReport("missing required columns: " + strings.Join(missing, ", ")), nil
	}

	window := f.Tail(opts.TrendLookbackPeriod)
	if n := definedRows(window, frame.Close); n < MinRows {
		return models.InvalidReport(fmt.Sprintf("insufficient rows: %d rows with a close in the last %d, need %d",
			n, opts.TrendLookbackPeriod, MinRows)), nil
	}

	s := derive(f, window, opts)
	return &models.SignalReport{SignalStatus: models.SignalOK, TrendSignals: s}, nil
}

func derive(full, win *frame.Frame, o Options) *models.TrendSignals {
	v := func(col string) float64 { return win.Value(col, -1) }
	p := func(col string) float64 { return win.Value(col, -2) }

	s := &models.TrendSignals{}
	macd, sig := v(indicators.ColMACD), v(indicators.ColSignalLine)
	ma5, ma10, ma20 := v("5ma"), v("10ma"), v("20ma")

	s.MACDBullish = macd > sig
	s.MABullishAlignment = ma5 > ma10 && ma10 > ma20
	s.MACDTrendConfirmed = macd-sig > o.MACDThreshold && s.MABullishAlignment && maSlope(ma5, p("5ma")) > 0

	closes, _ := win.Column(frame.Close)
	s.RecentHigh = recentHigh(closes)
	s.SustainedHighs = sustainedHighs(closes, o.BreakoutWindow, o.SustainedBreakoutDays)
	s.SustainedHighsEnough = s.SustainedHighs >= o.SustainedBreakoutDays

	vs, _ := win.Column(indicators.ColVMAShort)
	vl, _ := win.Column(indicators.ColVMALong)
	ms, okS := nanMean(vs)
	ml, okL := nanMean(vl)
	s.TrendMomentum = v(indicators.ColCCI) > o.CCIMomentum && okS && okL && ms > ml
	s.VolumeConfirmation = v(indicators.ColVMAShort) > v(indicators.ColVMALong)

	vols, _ := win.Column(frame.Volume)
	s.VolumeSpike = volumeSpike(vols, o.VolumeSpikeWindow, o.VolumeSpikeMultiplier)
	s.MomentumKbar = isMomentumKbar(full, full.Len()-1, o)

	rsi := v(indicators.ColRSI)
	s.RSIOverbought = rsi > o.RSIOverbought
	s.RSIOversold = rsi < o.RSIOversold

	k, d := v(indicators.ColKDJK), v(indicators.ColKDJD)
	pk, pd := p(indicators.ColKDJK), p(indicators.ColKDJD)
	s.KDJGoldenCross = pk <= pd && k > d
	s.KDJOverbought = k > o.KDJOverbought && d > o.KDJOverbought
	s.KDJOversold = k < o.KDJOversold && d < o.KDJOversold

	c := v(frame.Close)
	switch {
	case c > v(indicators.ColBollingerUpper):
		s.BollingerBreakout = models.BreakoutUpper
	case c < v(indicators.ColBollingerLower):
		s.BollingerBreakout = models.BreakoutLower
	default:
		s.BollingerBreakout = models.BreakoutNone
	}

	s.Close = models.Float(c)
	s.MACD = models.Float(macd)
	s.SignalLine = models.Float(sig)
	s.CCI = models.Float(v(indicators.ColCCI))
	s.VMAShort = models.Float(v(indicators.ColVMAShort))
	s.VMALong = models.Float(v(indicators.ColVMALong))
	s.Volume = models.Float(v(frame.Volume))
	s.RSI = models.Float(rsi)
	s.BollingerUpper = models.Float(v(indicators.ColBollingerUpper))
	s.BollingerLower = models.Float(v(indicators.ColBollingerLower))
	s.ATR = models.Float(v(indicators.ColATR))
	s.KDJK = models.Float(k)
	s.KDJD = models.Float(d)
	s.KDJJ = models.Float(v(indicators.ColKDJJ))
	s.OBV = models.Float(v(indicators.ColOBV))
	s.ADX = models.Float(v(indicators.ColADX))

	s.TrendCategories = categories(s)
	return s
}

// categories lists triggered signals in fixed evaluation order.
func categories(s *models.TrendSignals) []string {
	flags := []struct {
		name string
		on   bool
	}{
		{CatMACDBullish, s.MACDBullish},
		{CatMABullishAlignment, s.MABullishAlignment},
		{CatMACDTrendConfirmed, s.MACDTrendConfirmed},
		{CatRecentHigh, s.RecentHigh},
		{CatSustainedHighsEnough, s.SustainedHighsEnough},
		{CatTrendMomentum, s.TrendMomentum},
		{CatVolumeConfirmation, s.VolumeConfirmation},
		{CatVolumeSpike, s.VolumeSpike},
		{CatMomentumKbar, s.MomentumKbar},
		{CatRSIOverbought, s.RSIOverbought},
		{CatRSIOversold, s.RSIOversold},
		{CatKDJGoldenCross, s.KDJGoldenCross},
		{CatKDJOverbought, s.KDJOverbought},
		{CatKDJOversold, s.KDJOversold},
	}
	out := make([]string, 0, len(flags)+1)
	for _, fl := range flags {
		if fl.on {
			out = append(out, fl.name)
		}
	}
	if s.BollingerBreakout != models.BreakoutNone {
		out = append(out, s.BollingerBreakout)
	}
	return out
}

func maSlope(cur, prev float64) float64 {
	if prev == 0 || math.IsNaN(prev) {
		return 0
	}
	return (cur - prev) / prev
}

// recentHigh reports whether the last close beats the two closes before it.
func recentHigh(closes []float64) bool {
	n := len(closes)
	if n < 2 {
		return false
	}
	prior := closes[max(0, n-3) : n-1]
	hi, ok := maxOf(prior)
	return ok && closes[n-1] > hi
}

// sustainedHighs counts consecutive recent days, newest first, whose close exceeded the
// highest close of the window closes ending two bars earlier. It stops at the first miss.
func sustainedHighs(closes []float64, window, days int) int {
	n := len(closes)
	count := 0
	for i := 1; i <= days; i++ {
		end := n - i - 1
		start := end - window
		if start < 0 {
			break
		}
		hi, ok := maxOf(closes[start:end])
		if !ok || !(closes[n-i] > hi) {
			break
		}
		count++
	}
	return count
}

// volumeSpike compares the last volume with the rolling mean ending at the same bar.
func volumeSpike(vols []float64, window int, mult float64) bool {
	n := len(vols)
	if n < window || window <= 0 {
		return false
	}
	mean, ok := nanFreeMean(vols[n-window:])
	return ok && vols[n-1] > mult*mean
}

func definedRows(f *frame.Frame, col string) int {
	xs, _ := f.Column(col)
	n := 0
	for _, x := range xs {
		if frame.IsDefined(x) {
			n++
		}
	}
	return n
}

func maxOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	hi := math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			return 0, false
		}
		hi = math.Max(hi, x)
	}
	return hi, true
}

// nanMean averages the defined values, reporting false when none are.
func nanMean(xs []float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, x := range xs {
		if frame.IsDefined(x) {
			sum += x
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func nanFreeMean(xs []float64) (float64, bool) {
	sum := 0.0
	for _, x := range xs {
		if math.IsNaN(x) {
			return 0, false
		}
		sum += x
	}
	return sum / float64(len(xs)), len(xs) > 0
}
