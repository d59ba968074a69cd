package indicators

import (
	"math"

	"TrendPull/internal/domain/frame"

	talib "github.com/markcheno/go-talib"
)

// ATR appends the rolling mean of the true range over window.
// The first row has no previous close, so its true range is high-low.
func ATR(f *frame.Frame, window int) (*frame.Frame, error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	src, err := source(f, frame.High, frame.Low, frame.Close)
	if err != nil {
		return nil, err
	}
	h, l, c := src[0], src[1], src[2]
	tr := make([]float64, len(c))
	for i := range tr {
		tr[i] = h[i] - l[i]
		if i == 0 {
			continue
		}
		pc := c[i-1]
		if math.IsNaN(pc) {
			continue
		}
		tr[i] = math.Max(tr[i], math.Max(math.Abs(h[i]-pc), math.Abs(l[i]-pc)))
	}
	return f.With(ColATR, rollingMean(tr, window))
}

// OBV appends on-balance volume starting at zero. Rows with an undefined close or volume
// contribute nothing.
func OBV(f *frame.Frame) (*frame.Frame, error) {
	src, err := source(f, frame.Close, frame.Volume)
	if err != nil {
		return nil, err
	}
	c, v := src[0], src[1]
	out := make([]float64, len(c))
	for i := 1; i < len(c); i++ {
		out[i] = out[i-1]
		if math.IsNaN(v[i]) {
			continue
		}
		switch {
		case c[i] > c[i-1]:
			out[i] += v[i]
		case c[i] < c[i-1]:
			out[i] -= v[i]
		}
	}
	return f.With(ColOBV, out)
}

// ADX appends Wilder's average directional index. The first 2·window-1 rows are NaN, and a
// series too short to fill them is all NaN.
func ADX(f *frame.Frame, window int) (*frame.Frame, error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	src, err := source(f, frame.High, frame.Low, frame.Close)
	if err != nil {
		return nil, err
	}
	h, l, c := src[0], src[1], src[2]
	out := nanSlice(len(c))
	lookback := 2*window - 1
	if window < 2 || len(c) <= lookback || hasNaN(h, l, c) {
		return f.With(ColADX, out)
	}
	adx := talib.Adx(h, l, c, window)
	for i := lookback; i < len(adx) && i < len(out); i++ {
		out[i] = adx[i]
	}
	return f.With(ColADX, out)
}

func hasNaN(series ...[]float64) bool {
	for _, s := range series {
		for _, x := range s {
			if math.IsNaN(x) {
				return true
			}
		}
	}
	return false
}
