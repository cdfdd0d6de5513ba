// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/fanscout/fanscout/internal/api"
	"github.com/fanscout/fanscout/internal/recommend"
)

func recommendCmd() *cobra.Command {
	var (
		maxResults    int
		minSupporters int
		withTags      bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <item-url>",
		Short: "Recommend items other supporters of a release also bought",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := engine.GetRecommendations(cmd.Context(), args[0], recommend.OverlapOptions{
				MaxRecommendations: maxResults,
				MinSupporters:      minSupporters,
				IncludeTags:        withTags,
			}, progressReporter())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(results)
			}
			if len(results) == 0 {
				fmt.Println("No recommendations found.")
				return nil
			}
			for i, rec := range results {
				fmt.Printf("%2d. %s by %s (%d supporters)\n", i+1, orUntitled(rec.Item.Title), orUnknown(rec.Item.Artist), rec.SupportersCount)
				printItemDetails(rec.Item)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum number of recommendations (0 = default)")
	cmd.Flags().IntVar(&minSupporters, "min-supporters", 2, "minimum overlapping supporters")
	cmd.Flags().BoolVar(&withTags, "tags", false, "fetch tags for recommended items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func similarCmd() *cobra.Command {
	var (
		maxResults    int
		minSimilarity float64
		maxSupporters int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "similar <item-url>",
		Short: "Recommend items with tags similar to a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := engine.GetTagSimilarRecommendations(cmd.Context(), args[0], recommend.SimilarOptions{
				MaxRecommendations: maxResults,
				MinSimilarity:      minSimilarity,
				MaxSupporters:      maxSupporters,
			}, progressReporter())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(results)
			}
			if len(results) == 0 {
				fmt.Println("No similar items found.")
				return nil
			}
			for i, sim := range results {
				fmt.Printf("%2d. %s by %s (similarity %.3f, %d supporters)\n",
					i+1, orUntitled(sim.Item.Title), orUnknown(sim.Item.Artist), sim.Similarity, sim.SupportersCount)
				printItemDetails(sim.Item)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum number of results (0 = default)")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0.05, "minimum similarity score in [0,1]")
	cmd.Flags().IntVar(&maxSupporters, "max-supporters", 50, "cap on supporters to sample (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func randomCmd() *cobra.Command {
	var (
		numItems      int
		numSupporters int
		wishlist      bool
		minOverlap    int
		noFallback    bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "random <item-url>",
		Short: "Sample random items from supporter collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := engine.GetRandomItems(cmd.Context(), args[0], recommend.RandomOptions{
				NumItems:      numItems,
				NumSupporters: numSupporters,
				UseWishlist:   wishlist,
				MinOverlap:    minOverlap,
				UseFallback:   !noFallback,
			}, progressReporter())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(results)
			}
			if len(results) == 0 {
				fmt.Println("No items found.")
				return nil
			}
			for i, item := range results {
				fmt.Printf("%2d. %s by %s (in %d collections)\n",
					i+1, orUntitled(item.Item.Title), orUnknown(item.Item.Artist), item.OverlapCount)
				printItemDetails(item.Item)
			}
			if len(results) > 0 && results[0].FinalOverlap != nil && *results[0].FinalOverlap != minOverlap {
				fmt.Printf("Note: overlap threshold lowered to %d to find enough items.\n", *results[0].FinalOverlap)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&numItems, "num", 10, "number of items to sample")
	cmd.Flags().IntVar(&numSupporters, "num-supporters", 20, "number of supporters to sample collections from")
	cmd.Flags().BoolVar(&wishlist, "wishlist", false, "sample wishlists instead of purchases")
	cmd.Flags().IntVar(&minOverlap, "min-overlap", 0, "keep only items in at least this many collections")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "do not lower the overlap threshold when the pool is small")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(cfg.Server, cfg.Cache, engine)
			return server.Start(ctx)
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printItemDetails(item recommend.Item) {
	if item.URL != "" {
		fmt.Printf("    %s\n", item.URL)
	}
	if len(item.Tags) > 0 {
		fmt.Printf("    tags: %s\n", strings.Join(item.Tags, ", "))
	}
}

func orUntitled(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}

func orUnknown(artist string) string {
	if artist == "" {
		return "(unknown artist)"
	}
	return artist
}
