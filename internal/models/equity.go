package models

import "time"

// EquityPoint is one sample of total account equity. T is epoch millis.
type EquityPoint struct {
	T      int64   `json:"t"`
	Equity float64 `json:"equity"`
}

// Time returns T as a time.Time
func (p EquityPoint) Time() time.Time {
	return time.UnixMilli(p.T)
}

// Quote is a single-symbol price lookup. Data holds the broker's raw response.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Data   any     `json:"data"`
}
