package indicators

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingColumn = errors.New("indicators: missing source column")
	ErrInvalidWindow = errors.New("indicators: window must be positive")
)

// Config holds the window parameters of every indicator. The zero value is not usable;
// start from DefaultConfig or load it from YAML and call Validate.
type Config struct {
	MAWindows       []int   `yaml:"ma_windows" default:"[5,10,20]" validate:"min=1,dive,gte=1"`
	BollingerWindow int     `yaml:"bollinger_window" default:"20" validate:"gte=2"`
	BollingerK      float64 `yaml:"bollinger_k" default:"2" validate:"gt=0"`
	ATRWindow       int     `yaml:"atr_window" default:"14" validate:"gte=1"`
	RSIWindow       int     `yaml:"rsi_window" default:"14" validate:"gte=1"`
	MACDFast        int     `yaml:"macd_fast" default:"12" validate:"gte=1"`
	MACDSlow        int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal      int     `yaml:"macd_signal" default:"9" validate:"gte=1"`
	VMAShort        int     `yaml:"vma_short" default:"5" validate:"gte=1"`
	VMALong         int     `yaml:"vma_long" default:"20" validate:"gtefield=VMAShort"`
	CCIWindow       int     `yaml:"cci_window" default:"20" validate:"gte=1"`
	KDJWindow       int     `yaml:"kdj_window" default:"9" validate:"gte=1"`
	KDJSmooth       int     `yaml:"kdj_smooth" default:"3" validate:"gte=1"`
	ADXWindow       int     `yaml:"adx_window" default:"14" validate:"gte=1"`
}

var validate = validator.New()

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	var c Config
	// defaults.Set only fails on malformed tags.
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return c
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() error {
	return defaults.Set(c)
}

// Validate checks window bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("indicator config: %w", err)
	}
	return nil
}
