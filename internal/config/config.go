// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

// Package config loads Fanscout configuration with koanf, layering
// defaults, an optional YAML file, and FANSCOUT_ environment variables
// in increasing precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for all Fanscout components.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Server   ServerConfig   `koanf:"server"`
	Bandcamp BandcampConfig `koanf:"bandcamp"`
	Engine   EngineConfig   `koanf:"engine"`
	Cache    CacheConfig    `koanf:"cache"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file and line in log output.
	Caller bool `koanf:"caller"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout bounds request handling; engine runs can take minutes, so
	// this is much longer than a typical API timeout.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the per-client request limit per minute. Zero
	// disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// CORSOrigins lists allowed CORS origins. Empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins"`
}

// BandcampConfig controls the Bandcamp client.
type BandcampConfig struct {
	// BaseURL is the Bandcamp root, overridable for tests.
	BaseURL string `koanf:"base_url"`

	// Identity is the "identity" session cookie value; optional, but
	// some fan collections are only visible when logged in.
	Identity string `koanf:"identity"`

	UserAgent         string        `koanf:"user_agent"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	MaxRetries        int           `koanf:"max_retries"`
	PageSize          int           `koanf:"page_size"`
}

// EngineConfig controls the recommendation engine.
type EngineConfig struct {
	// Workers bounds the parallel fetch pool.
	Workers int `koanf:"workers"`

	// FetchTimeout bounds each collection or tag fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// DefaultResults is the result count when a request specifies none.
	DefaultResults int `koanf:"default_results"`

	// MaxResults caps the result count of any request.
	MaxResults int `koanf:"max_results"`

	// Seed seeds the sampling RNG for reproducible output.
	Seed int64 `koanf:"seed"`
}

// CacheConfig controls the API response cache.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Capacity int           `koanf:"capacity"`
	TTL      time.Duration `koanf:"ttl"`
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Timeout:   10 * time.Minute,
			RateLimit: 30,
		},
		Bandcamp: BandcampConfig{
			BaseURL:           "https://bandcamp.com",
			UserAgent:         "fanscout/1.0 (+https://github.com/fanscout/fanscout)",
			RequestTimeout:    30 * time.Second,
			RequestsPerSecond: 3,
			Burst:             3,
			MaxRetries:        3,
			PageSize:          100,
		},
		Engine: EngineConfig{
			Workers:        15,
			FetchTimeout:   30 * time.Second,
			DefaultResults: 10,
			MaxResults:     100,
			Seed:           42,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 500,
			TTL:      15 * time.Minute,
		},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0, got %d", c.Server.RateLimit)
	}
	if c.Bandcamp.BaseURL == "" {
		return fmt.Errorf("bandcamp.base_url must not be empty")
	}
	if c.Bandcamp.RequestsPerSecond <= 0 {
		return fmt.Errorf("bandcamp.requests_per_second must be positive, got %g", c.Bandcamp.RequestsPerSecond)
	}
	if c.Bandcamp.MaxRetries < 0 {
		return fmt.Errorf("bandcamp.max_retries must be >= 0, got %d", c.Bandcamp.MaxRetries)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", c.Engine.Workers)
	}
	if c.Engine.DefaultResults < 1 {
		return fmt.Errorf("engine.default_results must be >= 1, got %d", c.Engine.DefaultResults)
	}
	if c.Engine.MaxResults < c.Engine.DefaultResults {
		return fmt.Errorf("engine.max_results (%d) must be >= engine.default_results (%d)", c.Engine.MaxResults, c.Engine.DefaultResults)
	}
	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be >= 1 when enabled, got %d", c.Cache.Capacity)
	}
	return nil
}
