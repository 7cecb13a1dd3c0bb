// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the network clients.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff on a retryable status. It doubles on
// each attempt. Tests override it to avoid real sleeps.
var RetryBaseDelay = time.Second

// MaxRetryAfter caps a server-supplied Retry-After delay.
var MaxRetryAfter = 30 * time.Second

const defaultMaxRetries = 2

// RetryableStatus reports whether code signals a transient overload worth
// retrying: 429, 503 and the 529 "overloaded" status some AI APIs use.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable || code == 529
}

// DoWithRetry executes req and retries on a retryable status with
// exponential backoff starting at RetryBaseDelay. A Retry-After header in
// seconds replaces the computed delay, capped at MaxRetryAfter.
//
// When maxRetries is 0 the default (2) is used. The body of each rejected
// response is drained and closed before sleeping. If ctx ends during a wait
// the function returns ctx.Err(). After exhausting retries the last response
// is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !RetryableStatus(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := Backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		// Requests with a body must be replayable.
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Backoff returns the delay before retry attempt+1.
func Backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > MaxRetryAfter {
			d = MaxRetryAfter
		}
		return d
	}
	return RetryBaseDelay << attempt
}
