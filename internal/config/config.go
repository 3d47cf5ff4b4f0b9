// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of normalization workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CacheSize caps the recent-record cache keyed by car slug.
	CacheSize int `koanf:"cache_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// OracleBaseURL is the OpenAI-compatible endpoint root, e.g.
	// "https://api.openai.com/v1".
	OracleBaseURL string `koanf:"oracle_base_url"`

	// OracleAPIKey authenticates against the vision endpoint.
	OracleAPIKey string `koanf:"oracle_api_key"`

	// OracleModel names the vision model to use.
	OracleModel string `koanf:"oracle_model"`

	// OracleTemperature controls sampling; keep it low for deterministic
	// identification.
	OracleTemperature float64 `koanf:"oracle_temperature"`

	// OracleMaxTokens caps the completion length.
	OracleMaxTokens int `koanf:"oracle_max_tokens"`

	// OracleTimeoutMS bounds a single classification round trip.
	OracleTimeoutMS int `koanf:"oracle_timeout_ms"`

	// OracleRetries enables client retries on transient failures.
	OracleRetries int `koanf:"oracle_retries"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          500_000,
		CacheSize:           10_000,
		MaxLeaderboardLimit: 100,
		OracleBaseURL:       "https://api.openai.com/v1",
		OracleModel:         "gpt-4o-mini",
		OracleTemperature:   0.1,
		OracleMaxTokens:     1024,
		OracleTimeoutMS:     30_000,
		OracleRetries:       2,
	}
	return c
}
