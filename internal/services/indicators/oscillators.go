package indicators

import (
	"math"

	"TrendPull/internal/domain/frame"
)

// cciConstant scales CCI so most values land within ±100.
const cciConstant = 0.015

// kdjSeed is the initial K and D value before any RSV is known.
const kdjSeed = 50.0

// RSI appends the relative strength index of close over window, using the simple mean of
// gains and losses of the last window deltas. A window without losses reads 100.
func RSI(f *frame.Frame, window int) (*frame.Frame, error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	src, err := source(f, frame.Close)
	if err != nil {
		return nil, err
	}
	c := src[0]
	gain := nanSlice(len(c))
	loss := nanSlice(len(c))
	for i := 1; i < len(c); i++ {
		d := c[i] - c[i-1]
		if math.IsNaN(d) {
			continue
		}
		gain[i] = math.Max(d, 0)
		loss[i] = math.Max(-d, 0)
	}
	mg := rollingMean(gain, window)
	ml := rollingMean(loss, window)

	out := nanSlice(len(c))
	for i := range out {
		if math.IsNaN(mg[i]) || math.IsNaN(ml[i]) {
			continue
		}
		if ml[i] == 0 {
			out[i] = 100
			continue
		}
		rs := mg[i] / ml[i]
		out[i] = 100 - 100/(1+rs)
	}
	return f.With(ColRSI, out)
}

// CCI appends the commodity channel index of the typical price over window.
// Rows whose mean absolute deviation is zero are NaN.
func CCI(f *frame.Frame, window int) (*frame.Frame, error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	src, err := source(f, frame.High, frame.Low, frame.Close)
	if err != nil {
		return nil, err
	}
	h, l, c := src[0], src[1], src[2]
	tp := make([]float64, len(c))
	for i := range tp {
		tp[i] = (h[i] + l[i] + c[i]) / 3
	}

	out := nanSlice(len(tp))
	for i := window - 1; i < len(tp); i++ {
		win := tp[i-window+1 : i+1]
		mean, ok := meanOf(win)
		if !ok {
			continue
		}
		mad := 0.0
		for _, x := range win {
			mad += math.Abs(x - mean)
		}
		mad /= float64(window)
		if mad == 0 {
			continue
		}
		out[i] = (tp[i] - mean) / (cciConstant * mad)
	}
	return f.With(ColCCI, out)
}

// KDJ appends the stochastic K, D and J lines. RSV is the close position inside the
// window's low/high range; K and D are smoothed as ((m-1)·prev + x)/m from a seed of 50.
// Rows with a zero range are NaN and the smoothing resumes from the last defined values.
func KDJ(f *frame.Frame, window, smooth int) (*frame.Frame, error) {
	if err := checkWindow(window, smooth); err != nil {
		return nil, err
	}
	src, err := source(f, frame.High, frame.Low, frame.Close)
	if err != nil {
		return nil, err
	}
	h, l, c := src[0], src[1], src[2]
	hhv := rollingExtreme(h, window, true)
	llv := rollingExtreme(l, window, false)

	n := len(c)
	k, d, j := nanSlice(n), nanSlice(n), nanSlice(n)
	m := float64(smooth)
	prevK, prevD := kdjSeed, kdjSeed
	for i := 0; i < n; i++ {
		rng := hhv[i] - llv[i]
		if math.IsNaN(rng) || math.IsNaN(c[i]) || rng == 0 {
			continue
		}
		rsv := (c[i] - llv[i]) / rng * 100
		prevK = ((m-1)*prevK + rsv) / m
		prevD = ((m-1)*prevD + prevK) / m
		k[i], d[i] = prevK, prevD
		j[i] = 3*prevK - 2*prevD
	}
	return appendColumns(f, []string{ColKDJK, ColKDJD, ColKDJJ}, k, d, j)
}
