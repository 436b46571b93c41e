// Package httpclient provides a small retrying HTTP client used for direct
// artifact fetches. Server errors and transport failures are retried with
// exponential backoff and jitter; client errors fail immediately.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

var (
	ErrNotFound     = errors.New("httpclient: resource not found")
	ErrForbidden    = errors.New("httpclient: access forbidden")
	ErrUnauthorized = errors.New("httpclient: unauthorized")
	ErrServerError  = errors.New("httpclient: server error")
)

// Options configures the client.
type Options struct {
	// Timeout for individual requests. Default: 60s.
	Timeout time.Duration

	// RetryAttempts is the maximum number of retries after the first
	// attempt. Default: 3.
	RetryAttempts int

	// RetryBackoff is the initial backoff duration. Default: 1s.
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration. Default: 15s.
	RetryMaxBackoff time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:         60 * time.Second,
		RetryAttempts:   3,
		RetryBackoff:    time.Second,
		RetryMaxBackoff: 15 * time.Second,
	}
}

// Client wraps http.Client with bounded retries.
type Client struct {
	client *http.Client
	opts   Options
}

// New creates a client with the given options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.RetryMaxBackoff <= 0 {
		opts.RetryMaxBackoff = 15 * time.Second
	}

	return &Client{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Get performs a GET request and returns the response body on 2xx. The
// caller owns the returned reader and must close it.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d %s", ErrServerError, resp.StatusCode, resp.Status)
			continue
		}

		if err := checkStatusCode(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, err
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("get request failed after %d attempts: %w", c.opts.RetryAttempts+1, lastErr)
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Jitter: 0.5 to 1.5 of backoff.
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
