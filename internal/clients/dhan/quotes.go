package dhan

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/dhandash/internal/models"
)

// maxConcurrentQuotes bounds the quote fan-out
const maxConcurrentQuotes = 8

func quoteEndpoints(symbol string) []endpoint {
	path := url.PathEscape(symbol)
	return []endpoint{
		{path: "/v2/quote/" + path, auth: authAccessToken},
		{path: "/v2/quotes?symbol=" + url.QueryEscape(symbol), auth: authAccessToken},
		{path: "/quote/" + path, auth: authAccessToken},
	}
}

// GetQuote returns the first strictly positive price found across the quote
// endpoint variants, along with that endpoint's raw response.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	quote, _, err := firstSuccess(ctx, c, kindQuote, quoteEndpoints(symbol), func(payload any) (*models.Quote, bool) {
		obj, ok := payload.(map[string]any)
		if !ok {
			return nil, false
		}
		price, ok := models.LookupPositive(obj, models.QuotePriceFields)
		if !ok {
			return nil, false
		}
		return &models.Quote{Symbol: symbol, Price: price, Data: payload}, true
	})
	if quote != nil {
		return quote, nil
	}

	c.metrics.QuoteMiss()
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrQuoteUnavailable, symbol, err)
	}
	return nil, fmt.Errorf("%w for %s", ErrQuoteUnavailable, symbol)
}

// GetQuotes fetches quotes for symbols concurrently. Every symbol appears in
// the result; a failed lookup maps to 0 and never affects the others.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) map[string]float64 {
	quotes := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return quotes
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)

	for _, symbol := range symbols {
		g.Go(func() error {
			var price float64
			q, err := c.GetQuote(gctx, symbol)
			if err != nil {
				c.logger.Warn().Err(err).Str("symbol", symbol).Msg("No price found for symbol")
			} else {
				price = q.Price
			}

			mu.Lock()
			quotes[symbol] = price
			mu.Unlock()
			return nil // per-symbol failures are isolated
		})
	}
	_ = g.Wait()

	found := 0
	for _, p := range quotes {
		if p > 0 {
			found++
		}
	}
	c.logger.Info().Int("requested", len(symbols)).Int("found", found).Msg("Fetched Dhan quotes")

	return quotes
}
