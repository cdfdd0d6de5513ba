// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

// Package recommend implements the supporter-based recommendation engine.
//
// # Architecture
//
// The engine derives recommendations from the collections of supporters who
// bought or wishlisted a seed item, in three modes:
//
//   - Overlap: co-purchase frequency counting across supporter collections
//   - Similar: TF-IDF weighted Jaccard similarity over item tag sets
//   - Random: uniform sampling with overlap filtering and stepwise fallback
//
// # Design Principles
//
//   - Deterministic: identical fetched inputs produce identical ordered
//     results (seeded RNG, ties broken by first-seen order)
//   - Pure core: RankByOverlap, RankByTagSimilarity, and SampleWithFallback
//     are side-effect free and operate only on already-fetched data
//   - Degraded, not broken: a failed fetch for one supporter or item is
//     logged and skipped; only invalid arguments abort a request
//
// # Data Flow
//
// External fetching is abstracted behind the Source interface. A bounded
// worker pool performs the high-latency collection and tag fetches in
// parallel; results are folded in stable supporter order so that the final
// ranking never depends on fetch completion order. Item metadata is
// memoized in a request-scoped store with a single in-flight fetch per key.
//
// # Usage
//
//	eng, err := recommend.NewEngine(src, recommend.DefaultConfig(), logger)
//	recs, err := eng.GetRecommendations(ctx, seedURL, recommend.OverlapOptions{
//	    MaxRecommendations: 10,
//	    MinSupporters:      2,
//	}, progress)
package recommend
