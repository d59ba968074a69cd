package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"TrendPull/internal/domain/models"
)

// Base OHLCV column names.
const (
	Open   = "open"
	High   = "high"
	Low    = "low"
	Close  = "close"
	Volume = "volume"
)

var (
	ErrNilFrame = errors.New("frame: nil frame")
	ErrShape    = errors.New("frame: column length does not match index")
)

// Frame is an immutable, date-indexed set of float64 columns.
// Undefined cells hold NaN.
type Frame struct {
	index []time.Time
	order []string
	cols  map[string][]float64
}

// New creates an empty frame over the given ascending index.
func New(index []time.Time) *Frame {
	idx := make([]time.Time, len(index))
	copy(idx, index)
	return &Frame{index: idx, cols: make(map[string][]float64)}
}

// FromKlines builds an OHLCV frame from klines ordered by date.
func FromKlines(ks []models.Kline) *Frame {
	idx := make([]time.Time, len(ks))
	o := make([]float64, len(ks))
	h := make([]float64, len(ks))
	l := make([]float64, len(ks))
	c := make([]float64, len(ks))
	v := make([]float64, len(ks))
	for i, k := range ks {
		idx[i] = k.Date
		o[i], h[i], l[i], c[i], v[i] = k.Open, k.High, k.Low, k.Close, k.Volume
	}
	return &Frame{
		index: idx,
		order: []string{Open, High, Low, Close, Volume},
		cols:  map[string][]float64{Open: o, High: h, Low: l, Close: c, Volume: v},
	}
}

// FromColumns builds a frame from named columns, added in the order of names when given,
// otherwise OHLCV first and the rest by name. A nil index yields SyntheticIndex.
func FromColumns(index []time.Time, cols map[string][]float64, names ...string) (*Frame, error) {
	n := len(index)
	if index == nil {
		for _, v := range cols {
			n = len(v)
			break
		}
		index = SyntheticIndex(n)
	}
	f := New(index)
	if len(names) == 0 {
		names = knownOrder(cols)
	}
	for _, name := range names {
		vals, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("frame: column %q not provided", name)
		}
		var err error
		if f, err = f.With(name, vals); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// SyntheticIndex returns n consecutive calendar days starting at 2000-01-01 UTC.
func SyntheticIndex(n int) []time.Time {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := make([]time.Time, n)
	for i := range idx {
		idx[i] = start.AddDate(0, 0, i)
	}
	return idx
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Index returns a copy of the row index.
func (f *Frame) Index() []time.Time {
	out := make([]time.Time, len(f.index))
	copy(out, f.index)
	return out
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether column name is present.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Missing returns the names absent from the frame, preserving argument order.
func (f *Frame) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !f.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Column returns the column values. The slice is shared and must be treated as read-only.
func (f *Frame) Column(name string) ([]float64, bool) {
	v, ok := f.cols[name]
	return v, ok
}

// Value returns the cell at row i, or NaN when the column or row does not exist.
// Negative rows count from the end.
func (f *Frame) Value(name string, i int) float64 {
	v, ok := f.cols[name]
	if !ok {
		return math.NaN()
	}
	if i < 0 {
		i += len(v)
	}
	if i < 0 || i >= len(v) {
		return math.NaN()
	}
	return v[i]
}

// With returns a new frame with column name set to a copy of values.
// An existing column of the same name is replaced in the copy only.
func (f *Frame) With(name string, values []float64) (*Frame, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	if len(values) != len(f.index) {
		return nil, fmt.Errorf("%w: %s has %d rows, index has %d", ErrShape, name, len(values), len(f.index))
	}
	cp := make([]float64, len(values))
	copy(cp, values)

	out := &Frame{
		index: f.index,
		order: make([]string, len(f.order), len(f.order)+1),
		cols:  make(map[string][]float64, len(f.cols)+1),
	}
	copy(out.order, f.order)
	for k, v := range f.cols {
		out.cols[k] = v
	}
	if _, exists := out.cols[name]; !exists {
		out.order = append(out.order, name)
	}
	out.cols[name] = cp
	return out, nil
}

// Tail returns the last n rows. n larger than Len returns the whole frame.
func (f *Frame) Tail(n int) *Frame {
	if n >= f.Len() {
		return f
	}
	if n < 0 {
		n = 0
	}
	start := f.Len() - n
	out := &Frame{
		index: f.index[start:],
		order: f.Columns(),
		cols:  make(map[string][]float64, len(f.cols)),
	}
	for k, v := range f.cols {
		out.cols[k] = v[start:]
	}
	return out
}

// Row returns the values of row i keyed by column name.
func (f *Frame) Row(i int) map[string]float64 {
	out := make(map[string]float64, len(f.order))
	for _, name := range f.order {
		out[name] = f.Value(name, i)
	}
	return out
}

// IsDefined reports whether v is a usable number.
func IsDefined(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// knownOrder lists OHLCV columns first, then the rest sorted by name.
func knownOrder(cols map[string][]float64) []string {
	out := make([]string, 0, len(cols))
	for _, n := range []string{Open, High, Low, Close, Volume} {
		if _, ok := cols[n]; ok {
			out = append(out, n)
		}
	}
	rest := make([]string, 0, len(cols))
	for n := range cols {
		switch n {
		case Open, High, Low, Close, Volume:
			continue
		}
		rest = append(rest, n)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
