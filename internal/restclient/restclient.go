// Package restclient holds the JSON request helper shared by the provider
// clients.
package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is a non-2xx response. Body is kept for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// RequestFunc builds a fresh request for every attempt so bodies can be
// replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// RetryPolicy returns the backoff used for idempotent requests.
func RetryPolicy(maxElapsed time.Duration) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// NoRetry is the policy for requests that must not be repeated.
func NoRetry() backoff.BackOff {
	return &backoff.StopBackOff{}
}

// Do sends the request and returns the raw body of a 2xx response.
// Transport failures and 5xx responses are retried per policy; 4xx responses
// end immediately with a *StatusError.
func Do(ctx context.Context, c *http.Client, build RequestFunc, policy backoff.BackOff) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode >= 500 {
			return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, Body: string(b)})
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// DoJSON is Do followed by decoding the body into target.
func DoJSON(ctx context.Context, c *http.Client, build RequestFunc, policy backoff.BackOff, target any) error {
	body, err := Do(ctx, c, build, policy)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %w body=%s", err, string(body))
	}
	return nil
}
