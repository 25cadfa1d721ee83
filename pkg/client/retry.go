package client

import (
	"bytes"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig tunes the retrying transport.
type RetryConfig struct {
	MaxRetries       int
	InitialBackoffMs int
	MaxBackoffMs     int
}

// DefaultRetryConfig returns the default retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:       3,
		InitialBackoffMs: 100,
		MaxBackoffMs:     30000,
	}
}

// RetryTransport is an http.RoundTripper that retries transient failures
// with exponential backoff. Retries live here, underneath the client's
// operations, so the business layer itself never auto-retries.
type RetryTransport struct {
	Base   http.RoundTripper
	Config RetryConfig
}

// NewRetryTransport wraps a transport with retry behavior. A nil base uses
// http.DefaultTransport.
func NewRetryTransport(base http.RoundTripper, cfg RetryConfig) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{Base: base, Config: cfg}
}

// isRetryableStatus checks if an HTTP status code is retryable
// Retryable: 429, 500-504
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// backoff calculates exponential backoff delay for a given attempt
// with jitter (0-25%) to prevent thundering herd
func (t *RetryTransport) backoff(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	exponentialDelay := float64(t.Config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(t.Config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay
	return time.Duration(cappedDelay+jitter) * time.Millisecond
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body so it can be replayed across attempts.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err = t.Base.RoundTrip(req)
		if err == nil && !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt >= t.Config.MaxRetries {
			return resp, err
		}

		retryAfter := ""
		if resp != nil {
			retryAfter = resp.Header.Get("Retry-After")
			resp.Body.Close()
		}

		delay := t.backoff(attempt, retryAfter)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}
