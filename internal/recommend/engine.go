// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fanscout/fanscout/internal/metrics"
)

// Engine produces recommendations from supporter collection overlap.
// All three operations share the same shape: list the supporters of a
// seed item, fetch their collections through a bounded worker pool,
// fold the results into a request-scoped item store, then rank or
// sample. Fetch failures for individual supporters are logged and
// absorbed; only invalid input fails a request.
type Engine struct {
	source Source
	cfg    Config
	logger zerolog.Logger

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine creates an engine backed by the given source.
func NewEngine(source Source, cfg Config, logger zerolog.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("source must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultConfig().Seed
	}
	return &Engine{
		source: source,
		cfg:    cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// GetRecommendations ranks items by the number of the seed item's
// supporters that also own them. Results are ordered by supporter
// count descending, ties broken by first sighting across supporter
// collections in input order.
func (e *Engine) GetRecommendations(ctx context.Context, seedURL string, opts OverlapOptions, progress ProgressReporter) ([]Recommendation, error) {
	if progress == nil {
		progress = NopProgress
	}
	if err := validateSeedURL(seedURL); err != nil {
		return nil, err
	}
	maxResults, err := e.resolveMax(opts.MaxRecommendations)
	if err != nil {
		return nil, err
	}
	minSupporters := opts.MinSupporters
	if minSupporters == 0 {
		minSupporters = 2
	}
	if minSupporters < 1 {
		return nil, fmt.Errorf("%w: min supporters must be >= 1, got %d", ErrInvalidArgument, opts.MinSupporters)
	}

	start := time.Now()
	defer func() { metrics.RecordEngineRequest("overlap", time.Since(start), nil) }()

	logger := e.requestLogger(seedURL)
	logger.Info().Int("max_results", maxResults).Int("min_supporters", minSupporters).Msg("overlap recommendation request")

	supporters, seedID, ok := e.listSupporters(ctx, seedURL, logger, progress)
	if !ok {
		return []Recommendation{}, nil
	}

	store := newItemStore()
	collections := e.fetchCollections(ctx, supporters, false, logger, progress)
	foldCollections(store, supporters, collections)

	ranked := RankByOverlap(seedID, supporters, func(s Supporter) Collection {
		return collections[s]
	}, minSupporters, maxResults)

	if opts.IncludeTags {
		ids := make([]string, len(ranked))
		for i, r := range ranked {
			ids[i] = r.ItemID
		}
		e.fetchTags(ctx, ids, store, logger, progress)
	}

	results := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		item, _ := store.Get(r.ItemID)
		results = append(results, Recommendation{Item: item, SupportersCount: r.Supporters})
	}
	progress.OnProgress(fmt.Sprintf("Done: %d recommendations", len(results)), len(supporters), len(supporters), 0)
	logger.Info().Int("results", len(results)).Msg("overlap recommendation complete")
	return results, nil
}

// GetTagSimilarRecommendations ranks candidate items by weighted
// Jaccard similarity between their tag sets and the seed item's tags.
// Tag weights are inverse document frequencies over the candidate set.
func (e *Engine) GetTagSimilarRecommendations(ctx context.Context, seedURL string, opts SimilarOptions, progress ProgressReporter) ([]SimilarItem, error) {
	if progress == nil {
		progress = NopProgress
	}
	if err := validateSeedURL(seedURL); err != nil {
		return nil, err
	}
	maxResults, err := e.resolveMax(opts.MaxRecommendations)
	if err != nil {
		return nil, err
	}
	if opts.MinSimilarity < 0 || opts.MinSimilarity > 1 {
		return nil, fmt.Errorf("%w: min similarity must be in [0, 1], got %g", ErrInvalidArgument, opts.MinSimilarity)
	}
	if opts.MaxSupporters < 0 {
		return nil, fmt.Errorf("%w: max supporters must be >= 0, got %d", ErrInvalidArgument, opts.MaxSupporters)
	}

	start := time.Now()
	defer func() { metrics.RecordEngineRequest("similar", time.Since(start), nil) }()

	logger := e.requestLogger(seedURL)
	logger.Info().Int("max_results", maxResults).Float64("min_similarity", opts.MinSimilarity).Msg("tag similarity request")

	progress.OnProgress("Fetching tags from seed item", 0, 0, 0)
	seedTags := e.fetchSeedTags(ctx, seedURL, logger)
	if len(seedTags) == 0 {
		logger.Warn().Msg("seed item has no tags")
		progress.OnProgress("No tags found on seed item", 0, 0, 0)
		return []SimilarItem{}, nil
	}

	supporters, seedID, ok := e.listSupporters(ctx, seedURL, logger, progress)
	if !ok {
		return []SimilarItem{}, nil
	}
	if opts.MaxSupporters > 0 && len(supporters) > opts.MaxSupporters {
		supporters = e.sampleSupporters(supporters, opts.MaxSupporters)
		logger.Debug().Int("sampled", len(supporters)).Msg("subsampled supporters")
	}

	store := newItemStore()
	collections := e.fetchCollections(ctx, supporters, false, logger, progress)
	foldCollections(store, supporters, collections)

	candidateIDs := make([]string, 0, store.Len())
	for _, item := range store.Items() {
		if item.ID == seedID {
			continue
		}
		candidateIDs = append(candidateIDs, item.ID)
	}
	e.fetchTags(ctx, candidateIDs, store, logger, progress)

	candidates := make([]Item, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		item, _ := store.Get(id)
		candidates = append(candidates, item)
	}

	docFreq := DocumentFrequencies(candidates)
	ranked := RankByTagSimilarity(seedTags, candidates, docFreq, opts.MinSimilarity, maxResults)

	counts := OccurrenceCounts(seedID, supporters, func(s Supporter) Collection {
		return collections[s]
	})

	results := make([]SimilarItem, 0, len(ranked))
	for _, r := range ranked {
		item, _ := store.Get(r.ItemID)
		si := SimilarItem{Item: item, Similarity: r.Score}
		if occ, ok := counts[r.ItemID]; ok {
			si.SupportersCount = occ.count
		}
		results = append(results, si)
	}
	progress.OnProgress(fmt.Sprintf("Done: %d similar items", len(results)), len(supporters), len(supporters), 0)
	logger.Info().Int("results", len(results)).Msg("tag similarity complete")
	return results, nil
}

// GetRandomItems samples random items from supporter collections,
// preferring items owned by at least MinOverlap supporters and
// stepping the threshold down when the pool is too small.
func (e *Engine) GetRandomItems(ctx context.Context, seedURL string, opts RandomOptions, progress ProgressReporter) ([]RandomItem, error) {
	if progress == nil {
		progress = NopProgress
	}
	if err := validateSeedURL(seedURL); err != nil {
		return nil, err
	}
	if opts.NumItems < 1 {
		return nil, fmt.Errorf("%w: num items must be >= 1, got %d", ErrInvalidArgument, opts.NumItems)
	}
	if opts.NumItems > e.cfg.MaxK {
		return nil, fmt.Errorf("%w: num items must be <= %d, got %d", ErrInvalidArgument, e.cfg.MaxK, opts.NumItems)
	}
	if opts.MinOverlap < 0 {
		return nil, fmt.Errorf("%w: min overlap must be >= 0, got %d", ErrInvalidArgument, opts.MinOverlap)
	}
	numSupporters := opts.NumSupporters
	if numSupporters == 0 {
		numSupporters = 20
	}
	if numSupporters < 1 {
		return nil, fmt.Errorf("%w: num supporters must be >= 1, got %d", ErrInvalidArgument, opts.NumSupporters)
	}

	start := time.Now()
	defer func() { metrics.RecordEngineRequest("random", time.Since(start), nil) }()

	logger := e.requestLogger(seedURL)
	logger.Info().Int("num_items", opts.NumItems).Bool("wishlist", opts.UseWishlist).Msg("random items request")

	supporters, seedID, ok := e.listSupporters(ctx, seedURL, logger, progress)
	if !ok {
		return []RandomItem{}, nil
	}
	if len(supporters) > numSupporters {
		supporters = e.sampleSupporters(supporters, numSupporters)
	}

	store := newItemStore()
	collections := e.fetchCollections(ctx, supporters, opts.UseWishlist, logger, progress)
	foldCollections(store, supporters, collections)

	counts := OccurrenceCounts(seedID, supporters, func(s Supporter) Collection {
		return collections[s]
	})

	pool := func(threshold int) []Item {
		var out []Item
		for _, item := range store.Items() {
			if occ, ok := counts[item.ID]; ok && occ.count >= threshold {
				out = append(out, item)
			}
		}
		return out
	}

	e.rngMu.Lock()
	items, finalOverlap := SampleWithFallback(pool, opts.NumItems, opts.MinOverlap, opts.UseFallback, e.rng)
	e.rngMu.Unlock()

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	e.fetchTags(ctx, ids, store, logger, progress)

	results := make([]RandomItem, 0, len(items))
	for _, item := range items {
		enriched, _ := store.Get(item.ID)
		rec := RandomItem{Item: enriched, OverlapCount: counts[item.ID].count}
		if opts.MinOverlap >= 1 {
			fo := finalOverlap
			rec.FinalOverlap = &fo
		}
		results = append(results, rec)
	}
	progress.OnProgress(fmt.Sprintf("Done: %d random items", len(results)), len(supporters), len(supporters), 0)
	logger.Info().Int("results", len(results)).Int("final_overlap", finalOverlap).Msg("random items complete")
	return results, nil
}

func (e *Engine) resolveMax(requested int) (int, error) {
	if requested < 0 {
		return 0, fmt.Errorf("%w: max results must be >= 0, got %d", ErrInvalidArgument, requested)
	}
	if requested == 0 {
		return e.cfg.DefaultK, nil
	}
	if requested > e.cfg.MaxK {
		return e.cfg.MaxK, nil
	}
	return requested, nil
}

func (e *Engine) requestLogger(seedURL string) zerolog.Logger {
	return e.logger.With().
		Str("request_id", uuid.NewString()).
		Str("seed_url", seedURL).
		Logger()
}

// listSupporters resolves the seed item ID and lists its supporters.
// A listing failure or an empty supporter set ends the request with an
// empty result, not an error.
func (e *Engine) listSupporters(ctx context.Context, seedURL string, logger zerolog.Logger, progress ProgressReporter) ([]Supporter, string, bool) {
	progress.OnProgress("Listing supporters", 0, 0, 0)
	supporters, err := e.source.ListSupporters(ctx, seedURL)
	if err != nil {
		logger.Warn().Err(err).Msg("supporter listing failed")
		progress.OnProgress("Could not list supporters", 0, 0, 0)
		return nil, "", false
	}
	if len(supporters) == 0 {
		logger.Info().Msg("no supporters found")
		progress.OnProgress("No supporters found", 0, 0, 0)
		return nil, "", false
	}
	progress.OnProgress(fmt.Sprintf("Found %d supporters", len(supporters)), 0, len(supporters), 0)

	seedID, err := e.source.ResolveItemID(ctx, seedURL)
	if err != nil {
		logger.Warn().Err(err).Msg("seed item id resolution failed")
		seedID = ""
	}
	return supporters, seedID, true
}

func (e *Engine) fetchSeedTags(ctx context.Context, seedURL string, logger zerolog.Logger) []string {
	tags, err := e.source.FetchTags(ctx, seedURL)
	if err == nil && len(tags) > 0 {
		return tags
	}
	if err != nil {
		logger.Warn().Err(err).Msg("seed tag fetch failed, retrying")
	}
	tags, err = e.source.FetchTags(ctx, seedURL)
	if err != nil {
		logger.Warn().Err(err).Msg("seed tag fetch retry failed")
		return nil
	}
	return tags
}

// fetchCollections fetches supporter collections through a bounded
// worker pool. Failed fetches yield an empty collection for that
// supporter. The returned map is keyed by supporter so callers can
// fold results in input order regardless of completion order.
func (e *Engine) fetchCollections(ctx context.Context, supporters []Supporter, wishlist bool, logger zerolog.Logger, progress ProgressReporter) map[Supporter]Collection {
	total := len(supporters)
	collections := make(map[Supporter]Collection, total)
	if total == 0 {
		return collections
	}
	workers := e.cfg.Workers
	if workers > total {
		workers = total
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
	)
	start := time.Now()
	jobs := make(chan Supporter)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
				col, err := e.source.FetchCollection(fetchCtx, s, wishlist)
				cancel()
				if err != nil {
					logger.Warn().Err(err).Str("supporter", string(s)).Msg("collection fetch failed")
					col = nil
				}
				metrics.EngineSupportersFetched.Inc()
				mu.Lock()
				collections[s] = col
				completed++
				progress.OnProgress(
					fmt.Sprintf("Fetched %d items from %s (%d/%d)", len(col), s, completed, total),
					completed, total, etaSeconds(start, completed, total),
				)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, s := range supporters {
		select {
		case jobs <- s:
		case <-ctx.Done():
			logger.Warn().Err(ctx.Err()).Msg("collection fetch cancelled")
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return collections
}

// fetchTags resolves tags for the given item IDs through a bounded
// worker pool. Each item's tags are fetched at most once per request
// via the store's single-flight resolution.
func (e *Engine) fetchTags(ctx context.Context, ids []string, store *itemStore, logger zerolog.Logger, progress ProgressReporter) {
	total := len(ids)
	if total == 0 {
		return
	}
	workers := e.cfg.Workers
	if workers > total {
		workers = total
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
	)
	start := time.Now()
	jobs := make(chan string)

	fetch := func(ctx context.Context, itemURL string) ([]string, error) {
		if itemURL == "" {
			return nil, fmt.Errorf("item has no url")
		}
		fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
		return e.source.FetchTags(fetchCtx, itemURL)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if _, err := store.ResolveTags(ctx, id, fetch); err != nil {
					logger.Debug().Err(err).Str("item_id", id).Msg("tag fetch failed")
				}
				mu.Lock()
				completed++
				progress.OnProgress(
					fmt.Sprintf("Fetched tags (%d/%d)", completed, total),
					completed, total, etaSeconds(start, completed, total),
				)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			logger.Warn().Err(ctx.Err()).Msg("tag fetch cancelled")
			break feed
		}
	}
	close(jobs)
	wg.Wait()
}

// sampleSupporters picks n supporters uniformly at random, preserving
// input order among the selected so downstream tie-breaks stay stable.
func (e *Engine) sampleSupporters(supporters []Supporter, n int) []Supporter {
	if n >= len(supporters) {
		return supporters
	}
	e.rngMu.Lock()
	perm := e.rng.Perm(len(supporters))
	e.rngMu.Unlock()

	selected := make(map[int]bool, n)
	for _, idx := range perm[:n] {
		selected[idx] = true
	}
	out := make([]Supporter, 0, n)
	for i, s := range supporters {
		if selected[i] {
			out = append(out, s)
		}
	}
	return out
}

// foldCollections populates the store from fetched collections in
// supporter input order, keeping first-sighting indices deterministic.
func foldCollections(store *itemStore, supporters []Supporter, collections map[Supporter]Collection) {
	for _, s := range supporters {
		for _, item := range collections[s] {
			if item.ID == "" {
				continue
			}
			store.Put(item)
		}
	}
}

func validateSeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: malformed url %q: %v", ErrInvalidArgument, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url %q must use http or https", ErrInvalidArgument, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url %q has no host", ErrInvalidArgument, raw)
	}
	return nil
}

func etaSeconds(start time.Time, completed, total int) int {
	if completed <= 0 || completed >= total {
		return 0
	}
	elapsed := time.Since(start).Seconds()
	return int(elapsed / float64(completed) * float64(total-completed))
}
