package indicators

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"TrendPull/internal/domain/frame"
)

func nan() float64 { return math.NaN() }

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// source fetches the named columns or fails with ErrMissingColumn.
func source(f *frame.Frame, names ...string) ([][]float64, error) {
	if f == nil {
		return nil, frame.ErrNilFrame
	}
	out := make([][]float64, len(names))
	for i, n := range names {
		col, ok := f.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, n)
		}
		out[i] = col
	}
	return out, nil
}

func checkWindow(ws ...int) error {
	for _, w := range ws {
		if w <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidWindow, w)
		}
	}
	return nil
}

// run is a half-open range of rows without NaN.
type run struct{ from, to int }

// definedRuns splits xs into maximal NaN-free runs.
func definedRuns(xs []float64) []run {
	var out []run
	start := -1
	for i, x := range xs {
		switch {
		case math.IsNaN(x) && start >= 0:
			out = append(out, run{start, i})
			start = -1
		case !math.IsNaN(x) && start < 0:
			start = i
		}
	}
	if start >= 0 {
		out = append(out, run{start, len(xs)})
	}
	return out
}

// rollingMean is the simple mean over the trailing window.
// A row is NaN until the window fills or when any value in the window is NaN.
// A window holding only zeros is exactly 0; the running sum of talib.Sma can leave residue there.
func rollingMean(xs []float64, w int) []float64 {
	out := nanSlice(len(xs))
	for _, r := range definedRuns(xs) {
		seg := xs[r.from:r.to]
		if len(seg) < w {
			continue
		}
		sma := talib.Sma(seg, w)
		nonzero := 0
		for k, x := range seg {
			if x != 0 {
				nonzero++
			}
			if k >= w && seg[k-w] != 0 {
				nonzero--
			}
			if k < w-1 {
				continue
			}
			if nonzero == 0 {
				out[r.from+k] = 0
			} else {
				out[r.from+k] = sma[k]
			}
		}
	}
	return out
}

// rollingStd is the sample standard deviation (n-1) over the trailing window.
// A window of one has no sample deviation and stays NaN.
func rollingStd(xs []float64, w int) []float64 {
	out := nanSlice(len(xs))
	if w < 2 {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		win := xs[i-w+1 : i+1]
		mean, ok := meanOf(win)
		if !ok {
			continue
		}
		ss := 0.0
		for _, x := range win {
			d := x - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// rollingExtreme returns the trailing max (hi=true) or min over the window.
func rollingExtreme(xs []float64, w int, hi bool) []float64 {
	out := nanSlice(len(xs))
	for i := w - 1; i < len(xs); i++ {
		best := xs[i-w+1]
		ok := !math.IsNaN(best)
		for _, x := range xs[i-w+2 : i+1] {
			if math.IsNaN(x) {
				ok = false
				break
			}
			if (hi && x > best) || (!hi && x < best) {
				best = x
			}
		}
		if ok {
			out[i] = best
		}
	}
	return out
}

// meanOf averages xs, reporting false if any value is NaN or xs is empty.
func meanOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, x := range xs {
		if math.IsNaN(x) {
			return 0, false
		}
		sum += x
	}
	return sum / float64(len(xs)), true
}

// ema computes an exponential moving average with alpha 2/(n+1) through talib.Ema, which seeds
// with the simple mean of the first n observations. Each NaN-free run is smoothed on its own;
// rows before a run's seed are NaN.
func ema(xs []float64, n int) []float64 {
	out := nanSlice(len(xs))
	for _, r := range definedRuns(xs) {
		if r.to-r.from < n {
			continue
		}
		e := talib.Ema(xs[r.from:r.to], n)
		copy(out[r.from+n-1:r.to], e[n-1:])
	}
	return out
}

// appendColumns adds the named series to f in order.
func appendColumns(f *frame.Frame, names []string, series ...[]float64) (*frame.Frame, error) {
	var err error
	for i, name := range names {
		if f, err = f.With(name, series[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}
