// Package http builds the retrying HTTP clients used for webhook delivery
// and outbound evaluator calls, layered on HashiCorp's retryablehttp.
package http

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Option tunes a client before NewClient hands it out.
type Option func(*retryablehttp.Client)

// NewClient returns a retryablehttp.Client capped at 2 retries with a 5s
// per-request timeout and backoff waits between 1s and 5s, unless options
// override them. The client's own logger is silenced; request logging is the
// caller's concern.
func NewClient(opts ...Option) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = 5 * time.Second
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.RetryMax = 2

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout bounds a single request end to end, connection setup included.
func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Timeout = d
	}
}

// WithRetryWaitMin sets the smallest wait between retry attempts.
func WithRetryWaitMin(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = d
	}
}

// WithRetryWaitMax caps the backoff wait between retry attempts.
func WithRetryWaitMax(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMax = d
	}
}

// WithRetryMax sets how many retries follow a failed attempt. Zero disables
// retrying entirely.
func WithRetryMax(n int) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}
