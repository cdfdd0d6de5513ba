// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

// Command fanscout discovers music through the collections of a
// release's supporters: people who bought an album you love have
// usually bought other things worth hearing.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fanscout/fanscout/internal/bandcamp"
	"github.com/fanscout/fanscout/internal/config"
	"github.com/fanscout/fanscout/internal/logging"
	"github.com/fanscout/fanscout/internal/recommend"
)

var (
	configPath string
	logLevel   string
	quiet      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fanscout",
		Short:         "Music discovery through Bandcamp supporter collections",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(similarCmd())
	rootCmd.AddCommand(randomCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration and initializes logging. CLI runs log
// to the console by default; the serve command switches to the
// configured format.
func loadConfig(console bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	format := cfg.Log.Format
	if console {
		format = "console"
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: format,
		Caller: cfg.Log.Caller,
	})
	return cfg, nil
}

// buildEngine wires the Bandcamp client into a recommendation engine.
// The returned cleanup releases the client's connections.
func buildEngine(cfg *config.Config) (*recommend.Engine, func(), error) {
	client, err := bandcamp.NewClient(bandcamp.Config{
		BaseURL:           cfg.Bandcamp.BaseURL,
		Identity:          cfg.Bandcamp.Identity,
		UserAgent:         cfg.Bandcamp.UserAgent,
		RequestTimeout:    cfg.Bandcamp.RequestTimeout,
		RequestsPerSecond: cfg.Bandcamp.RequestsPerSecond,
		Burst:             cfg.Bandcamp.Burst,
		MaxRetries:        uint64(cfg.Bandcamp.MaxRetries),
		PageSize:          cfg.Bandcamp.PageSize,
	})
	if err != nil {
		return nil, nil, err
	}

	engine, err := recommend.NewEngine(client, recommend.Config{
		Workers:      cfg.Engine.Workers,
		FetchTimeout: cfg.Engine.FetchTimeout,
		DefaultK:     cfg.Engine.DefaultResults,
		MaxK:         cfg.Engine.MaxResults,
		Seed:         cfg.Engine.Seed,
	}, logging.Logger())
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return engine, client.Close, nil
}

// progressReporter returns the terminal progress renderer, or a no-op
// reporter under --quiet.
func progressReporter() recommend.ProgressReporter {
	if quiet {
		return recommend.NopProgress
	}
	return newTerminalProgress(os.Stderr)
}
