package dhan

import (
	"errors"
	"fmt"
)

// Error taxonomy. None of these escape the portfolio snapshot path; they are
// converted into a mock snapshot or zero cash there.
var (
	// ErrNotConfigured means no access token is configured. Never retried.
	ErrNotConfigured = errors.New("DHAN_ACCESS_TOKEN not configured")

	// ErrBrokerUnavailable means every endpoint candidate failed at the network,
	// HTTP or parse level.
	ErrBrokerUnavailable = errors.New("all Dhan API endpoints failed")

	// ErrNoHoldingsFound means the broker answered but no entry passed validation.
	ErrNoHoldingsFound = errors.New("no valid holdings found in Dhan response")

	// ErrQuoteUnavailable means no quote endpoint produced a positive price.
	ErrQuoteUnavailable = errors.New("quote not found")
)

// APIError represents a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Dhan API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// ParseError represents a 2xx response whose body was not valid JSON
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON from %s: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
