package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
)

func TestFromKlines(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := FromKlines([]models.Kline{
		{Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Date: day.AddDate(0, 0, 1), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
	})

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{Open, High, Low, Close, Volume}, f.Columns())
	assert.Equal(t, 2.0, f.Value(Close, -1))
	assert.Equal(t, 100.0, f.Value(Volume, 0))
	assert.Equal(t, day, f.Index()[0])
}

func TestWithCopiesAndKeepsReceiver(t *testing.T) {
	f, err := FromColumns(nil, map[string][]float64{Close: {1, 2, 3}})
	require.NoError(t, err)

	vals := []float64{7, 8, 9}
	g, err := f.With("x", vals)
	require.NoError(t, err)
	vals[0] = 100

	assert.False(t, f.Has("x"))
	assert.Equal(t, 7.0, g.Value("x", 0))
	assert.Equal(t, []string{Close, "x"}, g.Columns())

	h, err := g.With(Close, []float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{Close, "x"}, h.Columns())
	assert.Equal(t, 3.0, g.Value(Close, 2))
	assert.Equal(t, 0.0, h.Value(Close, 2))
}

func TestWithShapeMismatch(t *testing.T) {
	f := New(SyntheticIndex(3))
	_, err := f.With("x", []float64{1})
	assert.ErrorIs(t, err, ErrShape)

	var nilFrame *Frame
	_, err = nilFrame.With("x", nil)
	assert.ErrorIs(t, err, ErrNilFrame)
}

func TestFromColumnsOrder(t *testing.T) {
	f, err := FromColumns(nil, map[string][]float64{
		"rsi": {1}, Close: {2}, Open: {3}, "atr": {4},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{Open, Close, "atr", "rsi"}, f.Columns())

	_, err = FromColumns(nil, map[string][]float64{Close: {1}}, Close, "missing")
	assert.Error(t, err)
}

func TestTailAndValue(t *testing.T) {
	f, err := FromColumns(nil, map[string][]float64{Close: {1, 2, 3, 4, 5}})
	require.NoError(t, err)

	tail := f.Tail(2)
	assert.Equal(t, 2, tail.Len())
	assert.Equal(t, 4.0, tail.Value(Close, 0))
	assert.Equal(t, 5.0, tail.Value(Close, -1))
	assert.Same(t, f, f.Tail(10))
	assert.Equal(t, 0, f.Tail(-1).Len())

	assert.True(t, math.IsNaN(f.Value("absent", 0)))
	assert.True(t, math.IsNaN(f.Value(Close, 5)))
	assert.True(t, math.IsNaN(f.Value(Close, -6)))
}

func TestMissingAndRow(t *testing.T) {
	f, err := FromColumns(nil, map[string][]float64{Close: {1, 2}, Volume: {10, 20}})
	require.NoError(t, err)

	assert.Equal(t, []string{"rsi", Open}, f.Missing("rsi", Close, Open))
	assert.Nil(t, f.Missing(Close))
	assert.Equal(t, map[string]float64{Close: 2, Volume: 20}, f.Row(1))
}

func TestSyntheticIndex(t *testing.T) {
	idx := SyntheticIndex(3)
	require.Len(t, idx, 3)
	assert.Equal(t, time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC), idx[2])
}

func TestIsDefined(t *testing.T) {
	assert.True(t, IsDefined(0))
	assert.False(t, IsDefined(math.NaN()))
	assert.False(t, IsDefined(math.Inf(1)))
}
