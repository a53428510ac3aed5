// Package http builds HTTP clients with retry behavior on top of
// HashiCorp's retryablehttp, exposing functional options for timeouts and
// retry pacing. Every outbound API client in the project goes through this
// factory so a stuck upstream is always bounded by the request timeout.
package http

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type config struct {
	timeout      time.Duration // per-request deadline
	retryWaitMin time.Duration // floor for backoff between attempts
	retryWaitMax time.Duration // ceiling for backoff between attempts
	retryMax     int           // retries after the first attempt
}

// Option customizes the client produced by NewClient.
type Option func(*config)

// NewClient returns a retryablehttp.Client. Without options it uses a
// 10-second request timeout, 1-5 second backoff, and 2 retries.
func NewClient(opts ...Option) *retryablehttp.Client {
	cfg := config{
		timeout:      10 * time.Second,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 5 * time.Second,
		retryMax:     2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.timeout
	client.RetryWaitMin = cfg.retryWaitMin
	client.RetryWaitMax = cfg.retryWaitMax
	client.RetryMax = cfg.retryMax
	return client
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRetryWaitMin sets the minimum backoff between attempts.
func WithRetryWaitMin(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMin = d
	}
}

// WithRetryWaitMax sets the maximum backoff between attempts.
func WithRetryWaitMax(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMax = d
	}
}

// WithRetryMax sets how many retries follow a failed attempt.
func WithRetryMax(n int) Option {
	return func(c *config) {
		c.retryMax = n
	}
}
