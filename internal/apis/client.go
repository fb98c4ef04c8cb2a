// Package apis holds the thin HTTP clients for the upstream document
// sources: CourtListener for Supreme Court opinions and the Federal
// Register for Executive Orders. A shared harness applies per-provider
// rate limits and the retry policy for transient failures.
package apis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"govreporter/internal/logging"
)

// =============================================================================
// SHARED HTTP HARNESS
// =============================================================================

const (
	// maxAttempts bounds the 429 backoff loop.
	maxAttempts = 5

	// backoffBase is the first retry delay; it doubles per attempt.
	backoffBase = time.Second

	requestTimeout = 30 * time.Second
)

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.StatusCode, e.URL)
}

// RateLimited reports whether the response was a 429.
func (e *HTTPError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NetworkError is a connect or timeout failure with no HTTP status.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// httpClient is the shared request harness. Each provider owns one, with
// its own rate limiter, auth headers, and network-retry allowance.
type httpClient struct {
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string

	// networkRetries is the number of extra attempts after a network
	// failure. The Federal Register historically needs one; everyone
	// else propagates immediately.
	networkRetries int
}

func newHTTPClient(interval time.Duration, headers map[string]string, networkRetries int) *httpClient {
	return &httpClient{
		http:           &http.Client{Timeout: requestTimeout},
		limiter:        rate.NewLimiter(rate.Every(interval), 1),
		headers:        headers,
		networkRetries: networkRetries,
	}
}

// get fetches a URL honoring the provider rate limit. 429 responses are
// retried with exponential backoff; other 4xx and 5xx propagate as
// HTTPError without retry.
func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	delay := backoffBase
	netRetriesLeft := c.networkRetries

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if netRetriesLeft > 0 {
				netRetriesLeft--
				logging.APIWarn("network failure for %s, retrying once: %v", url, err)
				continue
			}
			return nil, &NetworkError{URL: url, Err: err}
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, &NetworkError{URL: url, Err: readErr}
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= maxAttempts {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
			}
			logging.APIWarn("rate limited by %s (attempt %d/%d), backing off %v", url, attempt, maxAttempts, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2

		default:
			return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
		}
	}
}

// getJSON fetches a URL and decodes the JSON body into out.
func (c *httpClient) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}
