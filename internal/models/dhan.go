package models

import (
	"math"
	"strconv"
	"strings"
)

// Field-name priority lists for loosely-typed broker payloads. The first
// present, correctly-typed value wins. Validation and extraction both go
// through these lists so they can never disagree.
var (
	SymbolFields     = []string{"tradingSymbol", "symbol", "securityId", "SecurityId"}
	QuantityFields   = []string{"totalQty", "quantity", "Quantity", "qty", "availableQty"}
	AvgPriceFields   = []string{"avgCostPrice", "averagePrice", "AveragePrice", "avgPrice"}
	LastPriceFields  = []string{"lastTradedPrice", "LastTradedPrice", "ltp", "currentPrice"}
	QuotePriceFields = []string{"lastPrice", "ltp", "price", "close", "ltpPrice"}
	CashFields       = []string{
		"availableMargin", "available", "netAvailable", "cash", "cashBalance",
		"availableBalance", "freeCash", "fundBalance", "balance", "availableFunds",
		"netCash", "usableMargin", "availableMarginAmount", "freeMargin", "limit",
	}
)

// RawHolding is one untyped holding record as returned by the broker.
type RawHolding map[string]any

// Symbol resolves the holding's symbol from SymbolFields
func (h RawHolding) Symbol() (string, bool) {
	return LookupString(h, SymbolFields)
}

// SecurityID returns the broker security id, used as a secondary quote key
func (h RawHolding) SecurityID() string {
	id, _ := LookupString(h, []string{"securityId", "SecurityId"})
	return id
}

// Quantity resolves the held quantity from QuantityFields
func (h RawHolding) Quantity() (float64, bool) {
	return LookupNumber(h, QuantityFields)
}

// AvgPrice resolves the average cost from AvgPriceFields
func (h RawHolding) AvgPrice() (float64, bool) {
	return LookupNumber(h, AvgPriceFields)
}

// LastTradedPrice returns the primary last-price field when strictly positive
func (h RawHolding) LastTradedPrice() (float64, bool) {
	return LookupPositive(h, LastPriceFields[:1])
}

// AlternateLastPrice checks the remaining last-price spellings
func (h RawHolding) AlternateLastPrice() (float64, bool) {
	return LookupPositive(h, LastPriceFields[1:])
}

// Valid reports whether the holding has a non-empty symbol, a numeric
// quantity and a numeric average price.
func (h RawHolding) Valid() bool {
	if h == nil {
		return false
	}
	if _, ok := h.Symbol(); !ok {
		return false
	}
	if _, ok := h.Quantity(); !ok {
		return false
	}
	_, ok := h.AvgPrice()
	return ok
}

// LookupString returns the first field that holds a non-empty string.
// Numeric ids (securityId is sometimes sent as a number) are formatted.
func LookupString(m map[string]any, fields []string) (string, bool) {
	for _, f := range fields {
		switch v := m[f].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		case float64:
			if !math.IsNaN(v) && v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64), true
			}
		}
	}
	return "", false
}

// LookupNumber returns the first field that holds a JSON number
func LookupNumber(m map[string]any, fields []string) (float64, bool) {
	for _, f := range fields {
		if v, ok := number(m[f]); ok {
			return v, true
		}
	}
	return 0, false
}

// LookupPositive returns the first field that holds a strictly positive number
func LookupPositive(m map[string]any, fields []string) (float64, bool) {
	for _, f := range fields {
		if v, ok := number(m[f]); ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
