package models

import "time"

// Kline represents one daily OHLCV bar of an instrument.
type Kline struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol,omitempty"`
	Open   float64   `json:"open" validate:"gte=0"`
	High   float64   `json:"high" validate:"gte=0"`
	Low    float64   `json:"low" validate:"gte=0"`
	Close  float64   `json:"close" validate:"gte=0"`
	Volume float64   `json:"volume" validate:"gte=0"`
}

// StockInfo is the descriptive profile of a listed company.
type StockInfo struct {
	StockID  string `json:"stock_id"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

const (
	UnknownSector   = "unknown sector"
	UnknownIndustry = "unknown industry"
)

// UnknownStockInfo is returned when a profile cannot be retrieved.
func UnknownStockInfo(stockID string) StockInfo {
	return StockInfo{StockID: stockID, Sector: UnknownSector, Industry: UnknownIndustry}
}
