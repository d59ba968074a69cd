package trend

import (
	"math"

	"TrendPull/internal/domain/frame"
)

// isMomentumKbar reports whether bar i is a momentum candle: volume more than
// KbarVolumeMultiplier times the previous bar, short wicks relative to the range, and a close
// outside the high/low of the previous KbarLookback bars.
func isMomentumKbar(f *frame.Frame, i int, o Options) bool {
	if i <= 0 || i >= f.Len() {
		return false
	}
	open, high, low, cls := f.Value(frame.Open, i), f.Value(frame.High, i), f.Value(frame.Low, i), f.Value(frame.Close, i)
	vol, prevVol := f.Value(frame.Volume, i), f.Value(frame.Volume, i-1)

	if !(vol > prevVol*o.KbarVolumeMultiplier) {
		return false
	}
	rng := high - low
	if rng == 0 || math.IsNaN(rng) {
		return false
	}
	upper := high - math.Max(open, cls)
	lower := math.Min(open, cls) - low
	if !((upper+lower)/rng <= o.KbarMaxShadowRatio) {
		return false
	}

	from := max(0, i-o.KbarLookback)
	highs, _ := f.Column(frame.High)
	lows, _ := f.Column(frame.Low)
	hi, okH := maxOf(highs[from:i])
	lo, okL := minOf(lows[from:i])
	if !okH || !okL {
		return false
	}
	return cls > hi || cls < lo
}

func minOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	lo := math.Inf(1)
	for _, x := range xs {
		if math.IsNaN(x) {
			return 0, false
		}
		lo = math.Min(lo, x)
	}
	return lo, true
}
