// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindRateLimited Kind = "rate_limited"
	KindUnavailable Kind = "unavailable"
	KindMalformed   Kind = "malformed_response"
)

// Error is a classified provider failure. Every non-cancellation error
// returned by Client.Search is an *Error.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether a later round may succeed with the same query.
// Malformed responses are deterministic and are not retried.
func (e *Error) Retryable() bool {
	return e.Kind != KindMalformed
}

// KindOf returns the Kind of err, or "" when err is not a provider error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsRetryable reports whether err is a provider error worth retrying in a
// later round.
func IsRetryable(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Retryable()
}

// statusError maps a non-200 HTTP status to a classified error.
func statusError(provider string, code int) *Error {
	kind := KindUnavailable
	switch {
	case code == http.StatusTooManyRequests:
		kind = KindRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: provider, Err: fmt.Errorf("HTTP %d", code)}
}

// malformed wraps a decode failure.
func malformed(provider string, err error) *Error {
	return &Error{Kind: KindMalformed, Provider: provider, Err: err}
}

// classify converts any provider error into an *Error. Errors that are
// already classified pass through unchanged.
func classify(provider string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: provider, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Provider: provider, Err: err}
	}
	return &Error{Kind: KindUnavailable, Provider: provider, Err: err}
}
