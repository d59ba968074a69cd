package trend

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// MinRows is the fewest rows with a defined close the generator accepts.
// Signals compare the latest bar with the one before it.
const MinRows = 2

// Options tunes signal derivation. Zero fields are filled from the default tags.
type Options struct {
	TrendLookbackPeriod   int     `yaml:"trend_lookback_period" default:"60" validate:"gte=2"`
	BreakoutWindow        int     `yaml:"breakout_window" default:"10" validate:"gte=1"`
	SustainedBreakoutDays int     `yaml:"sustained_breakout_days" default:"3" validate:"gte=1"`
	MACDThreshold         float64 `yaml:"macd_threshold" default:"0.01" validate:"gte=0"`
	CCIMomentum           float64 `yaml:"cci_momentum" default:"100"`
	RSIOverbought         float64 `yaml:"rsi_overbought" default:"70" validate:"gte=0,lte=100"`
	RSIOversold           float64 `yaml:"rsi_oversold" default:"30" validate:"gte=0,lte=100"`
	KDJOverbought         float64 `yaml:"kdj_overbought" default:"80"`
	KDJOversold           float64 `yaml:"kdj_oversold" default:"20"`
	VolumeSpikeMultiplier float64 `yaml:"volume_spike_multiplier" default:"2" validate:"gt=0"`
	VolumeSpikeWindow     int     `yaml:"volume_spike_window" default:"20" validate:"gte=1"`
	KbarVolumeMultiplier  float64 `yaml:"kbar_volume_multiplier" default:"2" validate:"gt=0"`
	KbarMaxShadowRatio    float64 `yaml:"kbar_max_shadow_ratio" default:"0.2" validate:"gte=0,lte=1"`
	KbarLookback          int     `yaml:"kbar_lookback" default:"3" validate:"gte=1"`
}

var validate = validator.New()

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	var o Options
	if err := defaults.Set(&o); err != nil {
		panic(err)
	}
	return o
}

// WithLookback returns a copy of o using lookback rows for the trend window.
func (o Options) WithLookback(lookback int) Options {
	o.TrendLookbackPeriod = lookback
	return o
}

// Validate checks option bounds.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("trend options: %w", err)
	}
	return nil
}
