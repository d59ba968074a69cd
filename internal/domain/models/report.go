package models

// SignalStatus is the validation outcome of a trend report.
type SignalStatus string

const (
	SignalOK      SignalStatus = "ok"
	SignalInvalid SignalStatus = "invalid"
)

// Bollinger band breakout labels.
const (
	BreakoutUpper = "breakout_upper"
	BreakoutLower = "breakout_lower"
	BreakoutNone  = "none"
)

// SignalReport is the trend assessment of one series. On SignalInvalid only Reason is set;
// on SignalOK the embedded TrendSignals carries every flag and value, flattened in JSON.
type SignalReport struct {
	SignalStatus SignalStatus `json:"signal_status"`
	Reason       string       `json:"reason,omitempty"`
	*TrendSignals
}

// OK reports whether the report passed validation.
func (r *SignalReport) OK() bool { return r != nil && r.SignalStatus == SignalOK }

// InvalidReport builds a failed report with a reason.
func InvalidReport(reason string) *SignalReport {
	return &SignalReport{SignalStatus: SignalInvalid, Reason: reason}
}

// TrendSignals holds the derived flags and the latest indicator values.
type TrendSignals struct {
	MACDBullish          bool   `json:"macd_bullish"`
	MABullishAlignment   bool   `json:"ma_bullish_alignment"`
	MACDTrendConfirmed   bool   `json:"macd_trend_confirmed"`
	RecentHigh           bool   `json:"recent_high"`
	SustainedHighs       int    `json:"sustained_highs"`
	SustainedHighsEnough bool   `json:"sustained_highs_enough"`
	TrendMomentum        bool   `json:"trend_momentum"`
	VolumeConfirmation   bool   `json:"volume_confirmation"`
	VolumeSpike          bool   `json:"volume_spike"`
	MomentumKbar         bool   `json:"momentum_kbar"`
	RSIOverbought        bool   `json:"rsi_overbought"`
	RSIOversold          bool   `json:"rsi_oversold"`
	KDJGoldenCross       bool   `json:"kdj_golden_cross"`
	KDJOverbought        bool   `json:"kdj_overbought"`
	KDJOversold          bool   `json:"kdj_oversold"`
	BollingerBreakout    string `json:"bollinger_breakout"`

	Close          Float `json:"close"`
	MACD           Float `json:"macd"`
	SignalLine     Float `json:"signal_line"`
	CCI            Float `json:"cci"`
	VMAShort       Float `json:"vma_short"`
	VMALong        Float `json:"vma_long"`
	Volume         Float `json:"volume"`
	RSI            Float `json:"rsi"`
	BollingerUpper Float `json:"bollinger_upper"`
	BollingerLower Float `json:"bollinger_lower"`
	ATR            Float `json:"atr"`
	KDJK           Float `json:"kdj_k"`
	KDJD           Float `json:"kdj_d"`
	KDJJ           Float `json:"kdj_j"`
	OBV            Float `json:"obv"`
	ADX            Float `json:"adx"`

	TrendCategories []string `json:"trend_categories"`
}

// StockReport ties a signal report to the instrument it was computed for.
type StockReport struct {
	ReportID string        `json:"report_id"`
	StockID  string        `json:"stock_id"`
	Sector   string        `json:"sector,omitempty"`
	Industry string        `json:"industry,omitempty"`
	Rows     int           `json:"rows"`
	Report   *SignalReport `json:"report"`
}
