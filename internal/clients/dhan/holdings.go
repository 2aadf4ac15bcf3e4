package dhan

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/PaesslerAG/jsonpath"

	"github.com/bobmcallan/dhandash/internal/models"
)

var holdingsEndpoints = []endpoint{
	{path: "/v2/portfolio", auth: authAccessToken},
	{path: "/v2/holdings", auth: authAccessToken},
	{path: "/portfolio", auth: authAccessToken},
	{path: "/holdings", auth: authBearer},
}

// Array-valued locations checked after the bare-array case, in priority order.
var holdingsPaths = []string{
	"$.holdings",
	"$.data",
	"$.data.holdings",
}

var numericKey = regexp.MustCompile(`^\d+$`)

// GetHoldings returns the valid raw holdings from the first endpoint that
// yields at least one. It fails with ErrNotConfigured, ErrNoHoldingsFound
// (broker answered, nothing valid) or ErrBrokerUnavailable.
func (c *Client) GetHoldings(ctx context.Context) ([]models.RawHolding, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	holdings, answered, err := firstSuccess(ctx, c, kindHoldings, holdingsEndpoints, func(payload any) ([]models.RawHolding, bool) {
		h := ExtractHoldings(payload)
		return h, len(h) > 0
	})
	if len(holdings) > 0 {
		c.logger.Info().Int("count", len(holdings)).Msg("Fetched Dhan holdings")
		return holdings, nil
	}

	if answered {
		return nil, ErrNoHoldingsFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}
	return nil, ErrBrokerUnavailable
}

// ExtractHoldings flattens a holdings payload into valid raw holdings.
// Accepted shapes, first match wins: a bare array, {"holdings": [...]},
// {"data": [...]}, {"data": {"holdings": [...]}}, and the legacy
// {"0": {...}, "1": {...}} map-as-array encoding. Entries failing
// RawHolding.Valid are dropped; broker order is preserved.
func ExtractHoldings(payload any) []models.RawHolding {
	return filterValid(locateHoldings(payload))
}

func locateHoldings(payload any) []any {
	if arr, ok := payload.([]any); ok {
		return arr
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}

	for _, path := range holdingsPaths {
		v, err := jsonpath.Get(path, obj)
		if err != nil {
			continue
		}
		if arr, ok := v.([]any); ok {
			return arr
		}
	}

	return numericKeyed(obj)
}

// numericKeyed returns the object values under integer-string keys, ordered
// by their integer value.
func numericKeyed(obj map[string]any) []any {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if numericKey.MatchString(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseUint(keys[i], 10, 64)
		b, _ := strconv.ParseUint(keys[j], 10, 64)
		return a < b
	})

	items := make([]any, 0, len(keys))
	for _, k := range keys {
		items = append(items, obj[k])
	}
	return items
}

func filterValid(items []any) []models.RawHolding {
	var holdings []models.RawHolding
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		h := models.RawHolding(m)
		if h.Valid() {
			holdings = append(holdings, h)
		}
	}
	return holdings
}
