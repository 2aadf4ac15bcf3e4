// Package dhan provides a client for the Dhan brokerage API.
//
// Dhan's holdings, quote and funds endpoints are not contractually stable:
// paths, auth headers and response shapes vary between API versions. Every
// call therefore walks an ordered list of endpoint candidates and keeps the
// first response that yields usable data.
package dhan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/interfaces"
	"github.com/bobmcallan/dhandash/internal/metrics"
)

const (
	DefaultBaseURL   = "https://api.dhan.co"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second

	maxBodyBytes = 8 << 20
	logSnippet   = 300
)

// Endpoint kinds, used as log and metric labels
const (
	kindHoldings = "holdings"
	kindQuote    = "quote"
	kindCash     = "cash"
)

// authScheme selects how the access token is attached to a request
type authScheme int

const (
	authAccessToken authScheme = iota // Access-Token: <token>
	authBearer                        // Authorization: Bearer <token>
)

// endpoint is one request candidate in a fallback cascade
type endpoint struct {
	path string
	auth authScheme
}

// Client implements the BrokerClient interface
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *common.Logger
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout. Zero disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMetrics attaches Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new Dhan client. An empty accessToken yields a client
// whose calls fail fast with ErrNotConfigured.
func NewClient(accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		accessToken: strings.TrimSpace(accessToken),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured reports whether an access token is set
func (c *Client) Configured() bool {
	return c.accessToken != ""
}

// get performs a rate-limited GET against one endpoint candidate and decodes
// the body as untyped JSON.
func (c *Client) get(ctx context.Context, kind string, ep endpoint) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + ep.path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	switch ep.auth {
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	default:
		req.Header.Set("Access-Token", c.accessToken)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("kind", kind).Str("endpoint", ep.path).Msg("Dhan API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.BrokerRequest(kind, metrics.OutcomeNetworkError)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.BrokerRequest(kind, metrics.OutcomeNetworkError)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.BrokerRequest(kind, metrics.OutcomeHTTPError)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), logSnippet),
			Endpoint:   ep.path,
		}
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.metrics.BrokerRequest(kind, metrics.OutcomeParseError)
		return nil, &ParseError{Endpoint: ep.path, Err: err}
	}

	c.metrics.BrokerRequest(kind, metrics.OutcomeOK)
	return payload, nil
}

// firstSuccess tries each endpoint in order and returns the first value that
// accept reports usable. Attempts are sequential; a failure simply moves on
// to the next candidate. answered is true when at least one endpoint returned
// parseable JSON, which lets callers tell "broker down" from "nothing there".
func firstSuccess[T any](ctx context.Context, c *Client, kind string, endpoints []endpoint, accept func(payload any) (T, bool)) (value T, answered bool, err error) {
	var lastErr error

	for _, ep := range endpoints {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return value, answered, ctxErr
		}

		payload, err := c.get(ctx, kind, ep)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("kind", kind).Str("endpoint", ep.path).Msg("Dhan endpoint failed, trying next")
			continue
		}

		answered = true
		if v, ok := accept(payload); ok {
			c.logger.Debug().Str("kind", kind).Str("endpoint", ep.path).Msg("Dhan endpoint succeeded")
			return v, true, nil
		}

		c.metrics.BrokerRequest(kind, metrics.OutcomeEmpty)
		c.logger.Info().Str("kind", kind).Str("endpoint", ep.path).Msg("Dhan endpoint returned no usable data")
	}

	return value, answered, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure Client implements BrokerClient
var _ interfaces.BrokerClient = (*Client)(nil)
