// Package dbtcloud implements the authenticated dbt Cloud v2 API client used
// to retrieve an account's projects, environments, and jobs.
package dbtcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig configures the API client behavior.
type ClientConfig struct {
	// BaseURL is the API host, e.g. https://cloud.getdbt.com/api/v2.
	BaseURL string

	// APIKey authenticates every request (Token header).
	APIKey string

	// AccountID scopes all endpoints.
	AccountID int64

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// MaxAttempts per request including the first try (default: 5).
	MaxAttempts int

	// PageSize for list endpoints (default: 100).
	PageSize int

	// RateLimit requests per second (default: 5).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// BackoffBase is the first retry delay, doubled per attempt (default: 500ms).
	BackoffBase time.Duration

	// BackoffCap bounds a single retry delay (default: 8s).
	BackoffCap time.Duration

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// Client is a rate-limited, retry-capable dbt Cloud API client.
type Client struct {
	config      *ClientConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a new API client with the given configuration.
func NewClient(config *ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 5
	}
	if config.PageSize == 0 {
		config.PageSize = 100
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if config.BackoffBase == 0 {
		config.BackoffBase = 500 * time.Millisecond
	}
	if config.BackoffCap == 0 {
		config.BackoffCap = 8 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
	}
}

// =============================================================================
// REQUEST EXECUTION
// =============================================================================

// get executes one GET against an account-scoped endpoint, with rate limiting
// and bounded exponential backoff on 429/5xx. 401/403 fail immediately.
func (c *Client) get(ctx context.Context, resource, path string, query url.Values) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, &RetrievalError{Resource: resource, Attempts: attempt + 1, Err: err}
		}

		data, err := c.getOnce(ctx, path, query)
		if err == nil {
			return data, nil
		}

		var httpErr *httpError
		if errors.As(err, &httpErr) {
			if httpErr.authFailure() {
				return nil, &AuthenticationError{StatusCode: httpErr.StatusCode, Message: httpErr.Body}
			}
			if !httpErr.retryable() {
				return nil, &RetrievalError{Resource: resource, Attempts: attempt + 1, Err: err}
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, &RetrievalError{Resource: resource, Attempts: attempt + 1, Err: ctx.Err()}
		case <-time.After(c.backoff(attempt, err)):
		}
	}

	return nil, &RetrievalError{Resource: resource, Attempts: c.config.MaxAttempts, Err: lastErr}
}

// backoff computes the retry delay, honoring a Retry-After hint when present.
func (c *Client) backoff(attempt int, err error) time.Duration {
	var httpErr *httpError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return time.Duration(httpErr.RetryAfter) * time.Second
	}
	d := c.config.BackoffBase << uint(attempt)
	if d > c.config.BackoffCap {
		d = c.config.BackoffCap
	}
	return d
}

// getOnce executes a single request attempt and unwraps the response envelope.
func (c *Client) getOnce(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	fullURL := fmt.Sprintf("%s/accounts/%d/%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), c.config.AccountID, strings.TrimPrefix(path, "/"))
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			retryAfter, _ = strconv.Atoi(ra)
		}
		return nil, &httpError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512), RetryAfter: retryAfter}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
