package dhan

import (
	"context"

	"github.com/bobmcallan/dhandash/internal/models"
)

var cashEndpoints = []endpoint{
	{path: "/v2/limits"},
	{path: "/v2/user/fund"},
	{path: "/v2/user/balance"},
	{path: "/v2/user/margin"},
	{path: "/v2/funds"},
	{path: "/v2/margin"},
	{path: "/v2/balance"},
	{path: "/v2/fund"},
	{path: "/limits"},
	{path: "/funds"},
	{path: "/margin"},
	{path: "/balance"},
	{path: "/fund"},
	{path: "/v2/account"},
	{path: "/account"},
}

// Sub-objects searched when no top-level cash field is positive
var nestedCashKeys = []string{"data", "result", "funds", "margin"}

const maxCashDepth = 8

// GetCash returns available cash from the first endpoint whose payload yields
// a strictly positive value. It never fails; 0 means cash is unknown.
func (c *Client) GetCash(ctx context.Context) float64 {
	if !c.Configured() {
		return 0
	}

	cash, _, _ := firstSuccess(ctx, c, kindCash, cashEndpoints, func(payload any) (float64, bool) {
		v := ExtractCash(payload)
		return v, v > 0
	})
	if cash <= 0 {
		c.logger.Warn().Msg("Could not fetch cash from any endpoint, using 0")
		return 0
	}

	c.logger.Info().Float64("cash", cash).Msg("Resolved available cash")
	return cash
}

// ExtractCash finds the first strictly positive cash field in payload,
// descending into data/result/funds/margin sub-objects and into the first
// element of arrays. Returns 0 when nothing matches.
func ExtractCash(payload any) float64 {
	return extractCash(payload, 0)
}

func extractCash(payload any, depth int) float64 {
	if depth > maxCashDepth {
		return 0
	}

	switch v := payload.(type) {
	case map[string]any:
		if cash, ok := models.LookupPositive(v, models.CashFields); ok {
			return cash
		}
		for _, key := range nestedCashKeys {
			nested, ok := v[key]
			if !ok || nested == nil {
				continue
			}
			if cash := extractCash(nested, depth+1); cash > 0 {
				return cash
			}
		}
	case []any:
		if len(v) > 0 {
			return extractCash(v[0], depth+1)
		}
	}
	return 0
}
