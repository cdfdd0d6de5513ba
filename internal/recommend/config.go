// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"fmt"
	"time"
)

// Config holds engine tuning knobs.
type Config struct {
	// Workers bounds the fetch worker pool. The effective pool size is
	// additionally capped at the number of supporters being fetched.
	Workers int

	// FetchTimeout is the per-fetch deadline applied to each collection
	// or tag fetch.
	FetchTimeout time.Duration

	// DefaultK is the result count used when a request does not specify one.
	DefaultK int

	// MaxK caps the result count of any request.
	MaxK int

	// Seed seeds the engine RNG for reproducible sampling. Zero selects
	// the default seed.
	Seed int64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      15,
		FetchTimeout: 30 * time.Second,
		DefaultK:     10,
		MaxK:         100,
		Seed:         42,
	}
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.DefaultK < 1 {
		return fmt.Errorf("default k must be >= 1, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max k (%d) must be >= default k (%d)", c.MaxK, c.DefaultK)
	}
	return nil
}
