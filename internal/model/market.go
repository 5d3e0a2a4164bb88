package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Instrument identifies one member of a market universe.
type Instrument struct {
	Symbol   string `json:"symbol"`
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Ticker   string `json:"ticker"` // data-source ticker, e.g. "RELIANCE.NS"
}

// Closes extracts the close column.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
