package indicators

import (
	"math"
	"strconv"

	"TrendPull/internal/domain/frame"
)

// Output column names.
const (
	ColBollingerUpper = "bollinger_upper"
	ColBollingerLower = "bollinger_lower"
	ColMACD           = "macd"
	ColSignalLine     = "signal_line"
	ColVMAShort       = "vma_short"
	ColVMALong        = "vma_long"
	ColATR            = "atr"
	ColRSI            = "rsi"
	ColCCI            = "cci"
	ColKDJK           = "kdj_k"
	ColKDJD           = "kdj_d"
	ColKDJJ           = "kdj_j"
	ColOBV            = "obv"
	ColADX            = "adx"
)

// MAColumn names the moving-average column of window w, e.g. "5ma".
func MAColumn(w int) string { return strconv.Itoa(w) + "ma" }

// MovingAverages appends a simple moving average of close for each window.
// With no windows given it uses 5, 10 and 20.
func MovingAverages(f *frame.Frame, windows ...int) (*frame.Frame, error) {
	if len(windows) == 0 {
		windows = []int{5, 10, 20}
	}
	if err := checkWindow(windows...); err != nil {
		return nil, err
	}
	src, err := source(f, frame.Close)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(windows))
	series := make([][]float64, len(windows))
	for i, w := range windows {
		names[i] = MAColumn(w)
		series[i] = rollingMean(src[0], w)
	}
	return appendColumns(f, names, series...)
}

// Bollinger appends mean ± k·std of close over window.
func Bollinger(f *frame.Frame, window int, k float64) (*frame.Frame, error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	src, err := source(f, frame.Close)
	if err != nil {
		return nil, err
	}
	mean := rollingMean(src[0], window)
	std := rollingStd(src[0], window)
	upper := nanSlice(len(mean))
	lower := nanSlice(len(mean))
	for i := range mean {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = mean[i] + k*std[i]
		lower[i] = mean[i] - k*std[i]
	}
	return appendColumns(f, []string{ColBollingerUpper, ColBollingerLower}, upper, lower)
}

// MACD appends the fast-minus-slow EMA of close and its signal EMA.
func MACD(f *frame.Frame, fast, slow, signal int) (*frame.Frame, error) {
	if err := checkWindow(fast, slow, signal); err != nil {
		return nil, err
	}
	src, err := source(f, frame.Close)
	if err != nil {
		return nil, err
	}
	ef := ema(src[0], fast)
	es := ema(src[0], slow)
	line := nanSlice(len(ef))
	for i := range line {
		if !math.IsNaN(ef[i]) && !math.IsNaN(es[i]) {
			line[i] = ef[i] - es[i]
		}
	}
	sig := ema(line, signal)
	return appendColumns(f, []string{ColMACD, ColSignalLine}, line, sig)
}

// VolumeMovingAverages appends short and long simple means of volume.
func VolumeMovingAverages(f *frame.Frame, short, long int) (*frame.Frame, error) {
	if err := checkWindow(short, long); err != nil {
		return nil, err
	}
	src, err := source(f, frame.Volume)
	if err != nil {
		return nil, err
	}
	return appendColumns(f, []string{ColVMAShort, ColVMALong},
		rollingMean(src[0], short), rollingMean(src[0], long))
}
