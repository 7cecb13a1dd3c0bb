// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

func statusSequence(t *testing.T, calls *int32, codes ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)
		code := codes[len(codes)-1]
		if int(n) <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
		w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", []int{200}, 2, 200, 1},
		{"429 then success", []int{429, 429, 200}, 5, 200, 3},
		{"503 then success", []int{503, 200}, 2, 200, 2},
		{"529 then success", []int{529, 200}, 2, 200, 2},
		{"exhausts retries", []int{429}, 3, 429, 4},
		{"default retries", []int{429}, 0, 429, 3},
		{"500 passes through", []int{500}, 5, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := statusSequence(t, &calls, tt.codes...)

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestDoWithRetryReplaysBody(t *testing.T) {
	var calls int32
	ts := statusSequence(t, &calls, 429, 200)

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"q":1}`))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 2)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"q":1}`, string(body))
}

func TestDoWithRetryContextCancelled(t *testing.T) {
	var calls int32
	ts := statusSequence(t, &calls, 429)

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = time.Second
	defer func() { RetryBaseDelay = old }()

	assert.Equal(t, time.Second, Backoff(0, ""))
	assert.Equal(t, 4*time.Second, Backoff(2, ""))
	assert.Equal(t, 3*time.Second, Backoff(0, "3"))
	assert.Equal(t, MaxRetryAfter, Backoff(0, "3600"))
	assert.Equal(t, 2*time.Second, Backoff(1, "Wed, 21 Oct 2026 07:28:00 GMT"))
}

func TestRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{200: false, 400: false, 429: true, 500: false, 503: true, 529: true} {
		assert.Equal(t, want, RetryableStatus(code), "status %d", code)
	}
}
