// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.Workers != 15 {
		t.Errorf("engine.workers = %d, want 15", cfg.Engine.Workers)
	}
	if cfg.Bandcamp.BaseURL != "https://bandcamp.com" {
		t.Errorf("bandcamp.base_url = %q", cfg.Bandcamp.BaseURL)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fanscout.yaml")
	content := `
server:
  port: 9999
engine:
  workers: 5
  seed: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Engine.Workers != 5 || cfg.Engine.Seed != 7 {
		t.Errorf("engine = %+v, want workers 5 seed 7", cfg.Engine)
	}

	// Untouched sections keep their defaults.
	if cfg.Bandcamp.PageSize != 100 {
		t.Errorf("bandcamp.page_size = %d, want default 100", cfg.Bandcamp.PageSize)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fanscout.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FANSCOUT_SERVER_PORT", "7777")
	t.Setenv("FANSCOUT_ENGINE_FETCH_TIMEOUT", "45s")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("server.port = %d, env should win over file", cfg.Server.Port)
	}
	if cfg.Engine.FetchTimeout != 45*time.Second {
		t.Errorf("engine.fetch_timeout = %s, want 45s", cfg.Engine.FetchTimeout)
	}
}

func TestEnvSliceField(t *testing.T) {
	t.Setenv("FANSCOUT_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors_origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FANSCOUT_SERVER_PORT", "server.port"},
		{"FANSCOUT_BANDCAMP_BASE_URL", "bandcamp.base_url"},
		{"FANSCOUT_ENGINE_DEFAULT_RESULTS", "engine.default_results"},
		{"FANSCOUT_LOG_LEVEL", "log.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
		{"empty base url", func(c *Config) { c.Bandcamp.BaseURL = "" }},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }},
		{"max below default", func(c *Config) { c.Engine.MaxResults = 1 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := LoadFile("/nonexistent/fanscout.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
