package models

// Requests for the stock HTTP endpoints. Defined in domain for reuse by the kafka handler and CLI.

type SignalsRequest struct {
	StockID  string `param:"stock_id" json:"stock_id" validate:"required,max=32"`
	Lookback int    `query:"lookback" json:"lookback" default:"60" validate:"gte=2,lte=1000"`
	NoCache  bool   `query:"no_cache" json:"no_cache"`
}

type InlineSignalsRequest struct {
	Lookback int     `json:"lookback" default:"60" validate:"gte=2,lte=1000"`
	Klines   []Kline `json:"klines" validate:"required,min=1,max=5000,dive"`
}

type LLMReportRequest struct {
	StockID string `json:"stock_id" validate:"required,max=32"`
}

// LLMReport is the model's trading suggestion for a stock.
type LLMReport struct {
	StockID    string `json:"stock_id"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

type ScannerRequest struct {
	Count        int  `query:"count" json:"count" default:"200" validate:"gte=1,lte=500"`
	SkipAnalysis bool `query:"skip_analysis" json:"skip_analysis"`
}

// AnalysisRequest is the kafka message asking for a report.
type AnalysisRequest struct {
	StockID  string `json:"stock_id" validate:"required"`
	Lookback int    `json:"lookback" default:"60" validate:"gte=2"`
}
