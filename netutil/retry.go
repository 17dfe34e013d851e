// Package netutil provides the HTTP plumbing the fetch layer builds on:
// a retrying transport and a size-limited reader for registry downloads.
package netutil

import (
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// RetryTransport retries transient failures with exponential backoff,
// honoring Retry-After when the server supplies one.
type RetryTransport struct {
	// Base is the underlying transport, http.DefaultTransport when nil.
	Base http.RoundTripper

	// OnRetry, when set, observes each retry before its wait.
	OnRetry func(attempt int, wait time.Duration, statusCode int)

	// MaxRetries caps retry attempts after the first try. Zero means 3.
	MaxRetries int

	// InitialBackoff is the first wait. Zero means 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps every wait, including server-requested ones.
	// Zero means 30s.
	MaxBackoff time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	retries := t.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}
	initial := t.InitialBackoff
	if initial == 0 {
		initial = defaultInitialBackoff
	}
	ceiling := t.MaxBackoff
	if ceiling == 0 {
		ceiling = defaultMaxBackoff
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= retries; attempt++ {
		clone := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = body
		}

		resp, err := base.RoundTrip(clone)
		if err != nil {
			lastErr = err
			lastResp = nil
			if attempt == retries {
				break
			}
			if !t.wait(req, t.backoff(attempt, initial, ceiling, nil), attempt, 0) {
				return nil, req.Context().Err()
			}
			continue
		}

		if !RetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		lastErr = nil
		lastResp = resp
		if attempt == retries {
			break
		}

		wait := t.backoff(attempt, initial, ceiling, resp)
		_ = resp.Body.Close()
		lastResp = nil
		if !t.wait(req, wait, attempt, resp.StatusCode) {
			return nil, req.Context().Err()
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

// wait sleeps for the backoff, giving up early if the request's context
// ends first.
func (t *RetryTransport) wait(req *http.Request, d time.Duration, attempt, status int) bool {
	if t.OnRetry != nil {
		t.OnRetry(attempt+1, d, status)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}

// backoff picks the wait before the next attempt: the Retry-After header
// when present and parseable, exponential doubling otherwise.
func (t *RetryTransport) backoff(attempt int, initial, ceiling time.Duration, resp *http.Response) time.Duration {
	if resp != nil {
		if after := resp.Header.Get("Retry-After"); after != "" {
			if d, ok := parseRetryAfter(after); ok {
				return min(d, ceiling)
			}
		}
	}
	return min(initial<<attempt, ceiling)
}

func parseRetryAfter(value string) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// RetryableStatus reports whether a status code indicates a transient
// condition worth retrying. Client errors other than 429 are final.
func RetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
