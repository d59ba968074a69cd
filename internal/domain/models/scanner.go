package models

// Exchange identifiers returned by the broker scanner.
const (
	ExchangeTSE = "TSE"
	ExchangeOTC = "OTC"
)

// Snapshot is a broker market snapshot of one contract.
type Snapshot struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Exchange        string  `json:"exchange"`
	Close           float64 `json:"close"`
	ChangeRate      float64 `json:"change_rate"`
	TotalVolume     float64 `json:"total_volume"`
	YesterdayVolume float64 `json:"yesterday_volume"`
}

// Candidate is a stock that passed the scanner volume filter.
type Candidate struct {
	YFCode     string  `json:"yf_code"`
	Name       string  `json:"name"`
	ChangeRate float64 `json:"change_rate"`
}

// ScanResult is a candidate with its trend report, or the error that prevented one.
type ScanResult struct {
	Candidate
	Report *SignalReport `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}
