// Package quote provides single-symbol live price lookups
package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/bobmcallan/dhandash/internal/clients/dhan"
	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/interfaces"
	"github.com/bobmcallan/dhandash/internal/models"
)

// ErrMissingSymbol is returned for an empty or blank symbol
var ErrMissingSymbol = errors.New("symbol is required")

// Service implements QuoteService over the broker client
type Service struct {
	broker interfaces.BrokerClient
	logger *common.Logger
}

// NewService creates a new quote service
func NewService(broker interfaces.BrokerClient, logger *common.Logger) *Service {
	return &Service{
		broker: broker,
		logger: logger,
	}
}

// GetQuote returns the live price for symbol. Errors are ErrMissingSymbol,
// dhan.ErrNotConfigured, or a wrapped dhan.ErrQuoteUnavailable.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrMissingSymbol
	}
	if !s.broker.Configured() {
		return nil, dhan.ErrNotConfigured
	}

	q, err := s.broker.GetQuote(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
		return nil, err
	}

	s.logger.Debug().Str("symbol", symbol).Float64("price", q.Price).Msg("Quote resolved")
	return q, nil
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
