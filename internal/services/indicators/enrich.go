package indicators

import (
	"fmt"

	"TrendPull/internal/domain/frame"
)

type step struct {
	name string
	run  func(*frame.Frame, Config) (*frame.Frame, error)
}

var pipeline = []step{
	{"moving_averages", func(f *frame.Frame, c Config) (*frame.Frame, error) { return MovingAverages(f, c.MAWindows...) }},
	{"macd", func(f *frame.Frame, c Config) (*frame.Frame, error) { return MACD(f, c.MACDFast, c.MACDSlow, c.MACDSignal) }},
	{"vma", func(f *frame.Frame, c Config) (*frame.Frame, error) { return VolumeMovingAverages(f, c.VMAShort, c.VMALong) }},
	{"cci", func(f *frame.Frame, c Config) (*frame.Frame, error) { return CCI(f, c.CCIWindow) }},
	{"rsi", func(f *frame.Frame, c Config) (*frame.Frame, error) { return RSI(f, c.RSIWindow) }},
	{"bollinger", func(f *frame.Frame, c Config) (*frame.Frame, error) { return Bollinger(f, c.BollingerWindow, c.BollingerK) }},
	{"atr", func(f *frame.Frame, c Config) (*frame.Frame, error) { return ATR(f, c.ATRWindow) }},
	{"kdj", func(f *frame.Frame, c Config) (*frame.Frame, error) { return KDJ(f, c.KDJWindow, c.KDJSmooth) }},
	{"obv", func(f *frame.Frame, _ Config) (*frame.Frame, error) { return OBV(f) }},
	{"adx", func(f *frame.Frame, c Config) (*frame.Frame, error) { return ADX(f, c.ADXWindow) }},
}

// Enrich appends every indicator to an OHLCV frame using cfg.
func Enrich(f *frame.Frame, cfg Config) (*frame.Frame, error) {
	if f == nil {
		return nil, frame.ErrNilFrame
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := f
	for _, s := range pipeline {
		next, err := s.run(out, cfg)
		if err != nil {
			return nil, fmt.Errorf("enrich %s: %w", s.name, err)
		}
		out = next
	}
	return out, nil
}

// Columns lists the columns Enrich appends for cfg, in order.
func Columns(cfg Config) []string {
	out := make([]string, 0, len(cfg.MAWindows)+15)
	for _, w := range cfg.MAWindows {
		out = append(out, MAColumn(w))
	}
	return append(out,
		ColMACD, ColSignalLine, ColVMAShort, ColVMALong, ColCCI, ColRSI,
		ColBollingerUpper, ColBollingerLower, ColATR,
		ColKDJK, ColKDJD, ColKDJJ, ColOBV, ColADX,
	)
}
