// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited, retrying HTTP client shared by
// the oracle collaborators. Rate limiting lives here, with the collaborator,
// not in the traversal core.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// Client wraps an http.Client with a shared inter-call delay and retry on
// HTTP 429. Every oracle collaborator owns one Client; requests from
// concurrent callers serialize on the limiter, so the per-oracle rate limit
// holds globally.
type Client struct {
	// HTTP is the underlying client. Nil means http.DefaultClient.
	HTTP *http.Client

	// Limiter enforces the minimum interval between requests. Nil disables
	// rate limiting.
	Limiter *Limiter

	// MaxRetries bounds 429 retries; zero means the default (5).
	MaxRetries int
}

// Do waits for the limiter, executes the request, and retries on HTTP 429
// with exponential backoff starting at RetryBaseDelay and doubling each
// attempt. On each 429 the response body is drained and closed before the
// backoff wait. If ctx is cancelled during a wait, Do returns ctx.Err().
// After exhausting retries the last 429 response is returned as-is so the
// caller can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 0; ; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
