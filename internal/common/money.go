package common

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// displayCurrency returns the go-money currency for code, falling back to INR.
func displayCurrency(code string) *money.Currency {
	if cur := money.GetCurrency(code); cur != nil {
		return cur
	}
	return money.GetCurrency(money.INR)
}

// FormatMoney renders amount in the display currency (e.g. "₹18,426.20").
// Display only: values are rounded to the currency's minor unit.
func FormatMoney(amount float64, currency string) string {
	cur := displayCurrency(currency)
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatCompact renders amount in thousands with one decimal (e.g. "₹21.9k"),
// used for chart axis labels.
func FormatCompact(amount float64, currency string) string {
	cur := displayCurrency(currency)
	k := decimal.NewFromFloat(amount).Div(decimal.NewFromInt(1000)).Round(1)
	return cur.Grapheme + k.StringFixed(1) + "k"
}
