// Package fuelfinder provides an API client for the UK Government Fuel Finder service.
package fuelfinder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// StationsPath is the paginated station list endpoint.
	StationsPath = "/api/v1/pfs"
	// PricesPath is the paginated fuel price endpoint.
	PricesPath = "/api/v1/pfs/fuel-prices"

	tokenPathV1   = "/api/v1/oauth/generate_access_token"
	refreshPathV1 = "/api/v1/oauth/regenerate_access_token"
	tokenPathV2   = "/api/v2/oauth/generate_access_token"
	refreshPathV2 = "/api/v2/oauth/regenerate_access_token"

	// pageSize is the provider's fixed batch size. A shorter batch signals
	// the last page on API versions without explicit pagination metadata.
	pageSize = 500

	tokenRetries   = 8
	fetchRetries   = 6
	requestTimeout = 30 * time.Second

	backoffBase           = 1.6
	defaultBackoffInitial = 1 * time.Second
	defaultBackoffJitter  = 500 * time.Millisecond

	tokenExpiryBuffer  = 30 * time.Second
	priceRefetchBuffer = 30 * time.Minute
)

// Client is an API client for the Fuel Finder service. All network calls go
// through a shared retry layer with exponential backoff.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         zerolog.Logger
	clock          clockwork.Clock
	backoffInitial time.Duration
	backoffJitter  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the clock used for token expiry, backoff sleeps, and
// opening-hours lookups.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithBackoff overrides the retry backoff timing.
func WithBackoff(initial, jitter time.Duration) Option {
	return func(c *Client) {
		c.backoffInitial = initial
		c.backoffJitter = jitter
	}
}

// New creates a new Fuel Finder client.
func New(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL:        baseURL,
		logger:         logger.With().Str("component", "fuelfinder").Logger(),
		clock:          clockwork.NewRealClock(),
		backoffInitial: defaultBackoffInitial,
		backoffJitter:  defaultBackoffJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requestJSON issues one HTTP request with retries and returns the raw JSON
// response body. Retryable conditions are 429/500/502/503/504, connection
// errors, and timeouts. 401/403 fail immediately without consuming the retry
// budget. A 2xx body that is not valid JSON is a hard failure.
func (c *Client) requestJSON(ctx context.Context, method, path string, headers map[string]string, query url.Values, body any, retries int) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffInitial
	bo.Multiplier = backoffBase
	bo.RandomizationFactor = 0
	bo.MaxInterval = 2 * time.Minute

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		data, retryAfter, retryable, err := c.doOnce(ctx, method, path, headers, query, body)
		if err == nil {
			return data, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		if attempt == retries {
			break
		}

		wait := bo.NextBackOff() + c.backoffJitter
		if retryAfter > 0 {
			wait = retryAfter
		}
		c.logger.Debug().
			Err(err).
			Str("path", path).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retrying request")
		if serr := c.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
	return nil, lastErr
}

// doOnce performs a single request attempt and classifies the outcome.
func (c *Client) doOnce(ctx context.Context, method, path string, headers map[string]string, query url.Values, body any) (data []byte, retryAfter time.Duration, retryable bool, err error) {
	var reqBody io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return nil, 0, false, fmt.Errorf("encoding request body: %w", merr)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, false, fmt.Errorf("creating request: %w", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, true, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, true, fmt.Errorf("%w: reading response body: %v", ErrConnection, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, false, fmt.Errorf("%w: status %d: %s", ErrAuthentication, resp.StatusCode, trimBody(respBody))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryAfterHint(resp.Header.Get("Retry-After")), true,
			fmt.Errorf("%w: status 429: %s", ErrRateLimited, trimBody(respBody))
	case retryableStatus(resp.StatusCode):
		return nil, 0, true, fmt.Errorf("%w: unexpected status %d: %s", ErrConnection, resp.StatusCode, trimBody(respBody))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, 0, false, fmt.Errorf("%w: unexpected status %d: %s", ErrAPI, resp.StatusCode, trimBody(respBody))
	}

	if !gjson.ValidBytes(respBody) {
		return nil, 0, false, fmt.Errorf("%w: response is not valid JSON", ErrAPI)
	}
	return respBody, 0, false, nil
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfterHint parses a Retry-After header as float seconds. A value that
// does not parse falls back to the backoff formula.
func retryAfterHint(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func trimBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
