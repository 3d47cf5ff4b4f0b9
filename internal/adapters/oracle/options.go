package oracle

import (
	"time"

	"github.com/rarespot/rarespot/pkg/logger"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.1
	defaultMaxTokens   = 1024
	defaultTimeout     = 30 * time.Second
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithModel sets the vision model identifier.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRetries enables resty retries with backoff for transient failures.
func WithRetries(count int) Option {
	return func(c *Client) {
		if count > 0 {
			c.http.SetRetryCount(count).
				SetRetryWaitTime(500 * time.Millisecond).
				SetRetryMaxWaitTime(5 * time.Second)
		}
	}
}
