package indicators

import (
	"math"
	"testing"

	"TrendPull/internal/domain/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), "%s: want NaN, got %v", label, got)
		return
	}
	assert.InDelta(t, want, got, tol, label)
}

func seq(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

func mustFrame(t *testing.T, cols map[string][]float64) *frame.Frame {
	t.Helper()
	f, err := frame.FromColumns(nil, cols)
	require.NoError(t, err)
	return f
}

func ohlcv(n int) *frame.Frame {
	c := make(map[string][]float64)
	for i := 0; i < n; i++ {
		base := float64(i + 1)
		c[frame.Open] = append(c[frame.Open], base)
		c[frame.High] = append(c[frame.High], base+1)
		c[frame.Low] = append(c[frame.Low], base-0.5)
		c[frame.Close] = append(c[frame.Close], base+0.5)
		c[frame.Volume] = append(c[frame.Volume], 100+float64(i%3)*10)
	}
	f, _ := frame.FromColumns(nil, c)
	return f
}

func definedCount(xs []float64) int {
	n := 0
	for _, x := range xs {
		if frame.IsDefined(x) {
			n++
		}
	}
	return n
}

func TestMovingAverages(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 10)})

	out, err := MovingAverages(f, 5, 10)
	require.NoError(t, err)

	ma5, ok := out.Column("5ma")
	require.True(t, ok)
	ma10, ok := out.Column("10ma")
	require.True(t, ok)

	for i := 0; i < 4; i++ {
		assertClose(t, "5ma leading", ma5[i], math.NaN())
	}
	assertClose(t, "5ma row 5", ma5[4], 3.0)
	assertClose(t, "5ma row 10", ma5[9], 8.0)
	assertClose(t, "10ma row 9", ma10[8], math.NaN())
	assertClose(t, "10ma row 10", ma10[9], 5.5)
}

func TestMovingAveragesDefaultWindows(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 25)})
	out, err := MovingAverages(f)
	require.NoError(t, err)
	assert.Empty(t, out.Missing("5ma", "10ma", "20ma"))
	assertClose(t, "20ma last", out.Value("20ma", -1), 15.5)
}

func TestBollingerDefinedFromWindow(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 10)})
	out, err := Bollinger(f, 5, 2)
	require.NoError(t, err)

	up, _ := out.Column(ColBollingerUpper)
	lo, _ := out.Column(ColBollingerLower)
	for i := 0; i < 4; i++ {
		assert.False(t, frame.IsDefined(up[i]))
		assert.False(t, frame.IsDefined(lo[i]))
	}
	for i := 4; i < 10; i++ {
		assert.True(t, frame.IsDefined(up[i]), "row %d", i+1)
		assert.True(t, frame.IsDefined(lo[i]), "row %d", i+1)
	}
	// window 1..5: mean 3, sample std sqrt(2.5)
	assertClose(t, "upper row 5", up[4], 3+2*math.Sqrt(2.5))
	assertClose(t, "lower row 5", lo[4], 3-2*math.Sqrt(2.5))
}

func TestBollingerFlatSeries(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: {4, 4, 4, 4}})
	out, err := Bollinger(f, 3, 2)
	require.NoError(t, err)
	assertClose(t, "upper", out.Value(ColBollingerUpper, -1), 4)
	assertClose(t, "lower", out.Value(ColBollingerLower, -1), 4)
}

func TestATR(t *testing.T) {
	f := mustFrame(t, map[string][]float64{
		frame.High:  {2, 3, 4},
		frame.Low:   {1, 2, 3},
		frame.Close: {1.5, 2.5, 3.5},
	})
	out, err := ATR(f, 2)
	require.NoError(t, err)

	atr, _ := out.Column(ColATR)
	assert.GreaterOrEqual(t, definedCount(atr), 1)
	assertClose(t, "row 1", atr[0], math.NaN())
	// TR = [1, 1.5, 1.5]
	assertClose(t, "row 2", atr[1], 1.25)
	assertClose(t, "row 3", atr[2], 1.5)
}

func TestRSI(t *testing.T) {
	cases := []struct {
		name  string
		close []float64
		check func(t *testing.T, rsi []float64)
	}{
		{
			name:  "oscillating",
			close: []float64{1, 2, 1, 2, 1, 2, 1, 2},
			check: func(t *testing.T, rsi []float64) {
				assert.GreaterOrEqual(t, definedCount(rsi), 1)
				for _, v := range rsi[:3] {
					assert.True(t, math.IsNaN(v))
				}
				// deltas +1 -1 +1: gain 2/3, loss 1/3
				assertClose(t, "row 4", rsi[3], 100-100/(1+2.0))
			},
		},
		{
			name:  "zero loss streak",
			close: []float64{1, 2, 3, 4, 5},
			check: func(t *testing.T, rsi []float64) {
				assertClose(t, "rising", rsi[4], 100)
			},
		},
		{
			name:  "flat",
			close: []float64{3, 3, 3, 3},
			check: func(t *testing.T, rsi []float64) {
				assertClose(t, "flat", rsi[3], 100)
			},
		},
		{
			name:  "flat after fractional decline",
			close: []float64{0.7, 0.6, 0.3, 0.1, 0.1, 0.1, 0.1},
			check: func(t *testing.T, rsi []float64) {
				assertClose(t, "declining", rsi[3], 0)
				assertClose(t, "flat", rsi[6], 100)
			},
		},
		{
			name:  "flat after decimal steps",
			close: []float64{10, 9.9, 9.7, 9.4, 9.4, 9.4, 9.4},
			check: func(t *testing.T, rsi []float64) {
				assertClose(t, "flat", rsi[6], 100)
			},
		},
		{
			name:  "falling",
			close: []float64{5, 4, 3, 2},
			check: func(t *testing.T, rsi []float64) {
				assertClose(t, "falling", rsi[3], 0)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := mustFrame(t, map[string][]float64{frame.Close: tc.close})
			out, err := RSI(f, 3)
			require.NoError(t, err)
			rsi, _ := out.Column(ColRSI)
			tc.check(t, rsi)
		})
	}
}

func TestMACDColumnsOnShortSeries(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 10)})
	out, err := MACD(f, 12, 26, 9)
	require.NoError(t, err)
	assert.True(t, out.Has(ColMACD))
	assert.True(t, out.Has(ColSignalLine))
	m, _ := out.Column(ColMACD)
	assert.Len(t, m, 10)
	assert.Zero(t, definedCount(m))
}

func TestMACDSeeding(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 8)})
	out, err := MACD(f, 2, 4, 2)
	require.NoError(t, err)

	m, _ := out.Column(ColMACD)
	s, _ := out.Column(ColSignalLine)
	assertClose(t, "macd row 3", m[2], math.NaN())
	// on a linear series each EMA lags by (n-1)/2, so macd settles at (4-1)/2-(2-1)/2 = 1
	assertClose(t, "macd row 4", m[3], 1)
	assertClose(t, "macd last", m[7], 1)
	assertClose(t, "signal row 4", s[3], math.NaN())
	assertClose(t, "signal row 5", s[4], 1)
}

func TestEMASeedAndSmoothing(t *testing.T) {
	got := ema([]float64{2, 4, 6, 8}, 3)
	assertClose(t, "row 1", got[0], math.NaN())
	assertClose(t, "seed", got[2], 4)
	assertClose(t, "next", got[3], 0.5*8+0.5*4)
}

func TestEMARestartsAfterGap(t *testing.T) {
	got := ema([]float64{math.NaN(), 2, 4, 6, math.NaN(), 1, 3}, 2)
	assertClose(t, "leading", got[0], math.NaN())
	assertClose(t, "seed", got[2], 3)
	assertClose(t, "smoothed", got[3], 2.0/3*6+1.0/3*3)
	assertClose(t, "gap", got[4], math.NaN())
	assertClose(t, "reseeded", got[6], 2)
}

func TestRollingMeanZeroWindows(t *testing.T) {
	got := rollingMean([]float64{0.1, 0.2, 0.3, 0, 0, 0, math.NaN(), 1, 2}, 3)
	assertClose(t, "warm-up", got[1], math.NaN())
	assertClose(t, "first", got[2], 0.2)
	assert.Equal(t, 0.0, got[5], "all-zero window is exactly zero")
	assertClose(t, "nan window", got[7], math.NaN())
	assertClose(t, "short run", got[8], math.NaN())
}

func TestVolumeMovingAverages(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Volume: seq(100, 109)})
	out, err := VolumeMovingAverages(f, 5, 20)
	require.NoError(t, err)
	assert.True(t, out.Has(ColVMAShort))
	assert.True(t, out.Has(ColVMALong))
	assertClose(t, "short last", out.Value(ColVMAShort, -1), 107)
	assertClose(t, "long last", out.Value(ColVMALong, -1), math.NaN())
}

func TestCCI(t *testing.T) {
	f := mustFrame(t, map[string][]float64{
		frame.High:  {2, 3, 4, 5},
		frame.Low:   {1, 2, 3, 4},
		frame.Close: {1.5, 2.5, 3.5, 4.5},
	})
	out, err := CCI(f, 2)
	require.NoError(t, err)
	cci, _ := out.Column(ColCCI)
	assert.GreaterOrEqual(t, definedCount(cci), 1)
	// tp 1.5,2.5: mean 2, mad 0.5
	assertClose(t, "row 2", cci[1], 0.5/(0.015*0.5))
}

func TestCCIZeroDeviation(t *testing.T) {
	f := mustFrame(t, map[string][]float64{
		frame.High:  {2, 2, 2},
		frame.Low:   {1, 1, 1},
		frame.Close: {1.5, 1.5, 1.5},
	})
	out, err := CCI(f, 2)
	require.NoError(t, err)
	cci, _ := out.Column(ColCCI)
	assert.Zero(t, definedCount(cci))
}

func TestKDJ(t *testing.T) {
	f := mustFrame(t, map[string][]float64{
		frame.High:  {2, 3, 4, 5, 6},
		frame.Low:   {1, 2, 3, 4, 5},
		frame.Close: {1.5, 2.5, 3.5, 4.5, 5.5},
	})
	out, err := KDJ(f, 3, 3)
	require.NoError(t, err)
	assert.Empty(t, out.Missing(ColKDJK, ColKDJD, ColKDJJ))

	k, _ := out.Column(ColKDJK)
	d, _ := out.Column(ColKDJD)
	j, _ := out.Column(ColKDJJ)
	assertClose(t, "k row 2", k[1], math.NaN())

	rsv := (3.5 - 1) / (4 - 1) * 100
	wantK := (2*50 + rsv) / 3
	wantD := (2*50 + wantK) / 3
	assertClose(t, "k row 3", k[2], wantK)
	assertClose(t, "d row 3", d[2], wantD)
	assertClose(t, "j row 3", j[2], 3*wantK-2*wantD)
}

func TestKDJZeroRange(t *testing.T) {
	f := mustFrame(t, map[string][]float64{
		frame.High:  {5, 5, 5, 6},
		frame.Low:   {5, 5, 5, 4},
		frame.Close: {5, 5, 5, 5},
	})
	out, err := KDJ(f, 2, 3)
	require.NoError(t, err)
	k, _ := out.Column(ColKDJK)
	assertClose(t, "flat", k[2], math.NaN())
	// first defined RSV = 50 keeps K at the seed
	assertClose(t, "resumes", k[3], 50)
}

func TestOBV(t *testing.T) {
	f := mustFrame(t, map[string][]float64{
		frame.Close:  {1, 2, 3, 2, 1},
		frame.Volume: {10, 20, 30, 40, 50},
	})
	out, err := OBV(f)
	require.NoError(t, err)
	obv, _ := out.Column(ColOBV)
	assert.Equal(t, []float64{0, 20, 50, 10, -40}, obv)
	assert.Equal(t, -40.0, obv[len(obv)-1])
}

func TestADXShortSeriesIsUndefined(t *testing.T) {
	out, err := ADX(ohlcv(10), 14)
	require.NoError(t, err)
	adx, ok := out.Column(ColADX)
	require.True(t, ok)
	assert.Zero(t, definedCount(adx))
}

func TestADXLongSeries(t *testing.T) {
	out, err := ADX(ohlcv(40), 5)
	require.NoError(t, err)
	adx, _ := out.Column(ColADX)
	for i := 0; i < 9; i++ {
		assert.True(t, math.IsNaN(adx[i]), "row %d", i)
	}
	assert.True(t, frame.IsDefined(adx[9]))
	assert.True(t, frame.IsDefined(adx[39]))
}

func TestMissingSourceColumn(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 5)})
	_, err := ATR(f, 2)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "high")

	_, err = OBV(f)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestInvalidWindowAndNilFrame(t *testing.T) {
	f := mustFrame(t, map[string][]float64{frame.Close: seq(1, 5)})
	_, err := RSI(f, 0)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = MovingAverages(nil, 5)
	require.ErrorIs(t, err, frame.ErrNilFrame)
}

func TestEmptyFrame(t *testing.T) {
	f := frame.FromKlines(nil)
	out, err := Enrich(f, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Empty(t, out.Missing(Columns(DefaultConfig())...))
}

func TestEnrichIsIdempotentAndPure(t *testing.T) {
	in := ohlcv(45)
	before, _ := in.Column(frame.Close)
	snapshot := append([]float64(nil), before...)

	a, err := Enrich(in, DefaultConfig())
	require.NoError(t, err)
	b, err := Enrich(in, DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, a.Columns(), b.Columns())
	for _, name := range a.Columns() {
		ca, _ := a.Column(name)
		cb, _ := b.Column(name)
		require.Len(t, cb, len(ca))
		for i := range ca {
			if math.IsNaN(ca[i]) {
				assert.True(t, math.IsNaN(cb[i]), "%s[%d]", name, i)
				continue
			}
			assert.Equal(t, ca[i], cb[i], "%s[%d]", name, i)
		}
	}

	assert.Equal(t, []string{frame.Open, frame.High, frame.Low, frame.Close, frame.Volume}, in.Columns())
	after, _ := in.Column(frame.Close)
	assert.Equal(t, snapshot, after)
}

func TestEnrichColumnOrder(t *testing.T) {
	out, err := Enrich(ohlcv(30), DefaultConfig())
	require.NoError(t, err)
	want := append([]string{frame.Open, frame.High, frame.Low, frame.Close, frame.Volume}, Columns(DefaultConfig())...)
	assert.Equal(t, want, out.Columns())
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, []int{5, 10, 20}, c.MAWindows)
	assert.Equal(t, 20, c.BollingerWindow)
	assert.Equal(t, 2.0, c.BollingerK)
	assert.Equal(t, 12, c.MACDFast)
	assert.Equal(t, 26, c.MACDSlow)
	assert.Equal(t, 9, c.MACDSignal)
	require.NoError(t, c.Validate())

	c.MACDSlow = 5
	assert.Error(t, c.Validate())

	var partial Config
	partial.RSIWindow = 7
	require.NoError(t, partial.ApplyDefaults())
	assert.Equal(t, 7, partial.RSIWindow)
	assert.Equal(t, 14, partial.ATRWindow)
}
