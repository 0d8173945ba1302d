// Package httpfetch is the REST client venue adapters use to fetch
// tradable-symbol lists, wrapping per-call retry and rate limiting so no
// adapter reimplements connection pooling or backoff.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/morroisback/exchange-observer/internal/ratelimit"
	"github.com/morroisback/exchange-observer/internal/retry"
)

// Client wraps an *http.Client with connection pooling tuned for short REST
// calls, a rate limiter shared across calls to the same venue, and a retry
// schedule for transient failures.
type Client struct {
	http    *http.Client
	limiter *ratelimit.Limiter
	retry   retry.Config
}

func New(timeout time.Duration, requestsPerSecond float64) *Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http:    &http.Client{Transport: transport, Timeout: timeout},
		limiter: ratelimit.New(requestsPerSecond, requestsPerSecond*2),
		retry:   retry.DefaultConfig(),
	}
}

// GetJSON issues a GET against url, retrying transient failures, and returns
// the raw response body. A non-2xx status is treated as a retryable error.
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithResult(ctx, c.retry, func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}
		return body, nil
	})
}
