// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package bandcamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/fanscout/fanscout/internal/cache"
	"github.com/fanscout/fanscout/internal/logging"
	"github.com/fanscout/fanscout/internal/metrics"
	"github.com/fanscout/fanscout/internal/recommend"
)

// Ensure Client implements the engine's Source interface.
var _ recommend.Source = (*Client)(nil)

const (
	kindPage          = "page"
	kindCollectionAPI = "collection_api"

	// maxBodyBytes bounds response reads; Bandcamp pages are well under this.
	maxBodyBytes = 10 << 20
)

// Config holds Bandcamp client configuration.
type Config struct {
	// BaseURL is the Bandcamp root, overridable for tests.
	// Default: https://bandcamp.com
	BaseURL string

	// Identity is the optional "identity" cookie value of a logged-in
	// session. Some fan collections are only visible when logged in.
	Identity string

	// UserAgent is sent on every request.
	UserAgent string

	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration

	// RequestsPerSecond and Burst configure the shared rate limiter.
	RequestsPerSecond float64
	Burst             int

	// MaxRetries is the number of retry attempts for transient failures.
	MaxRetries uint64

	// PageSize is the batch size for collection API pagination.
	PageSize int

	// TagCacheSize and TagCacheTTL bound the cross-request tag cache.
	// Tags on an item page change rarely enough that reusing them
	// between requests saves a page fetch per repeated item.
	TagCacheSize int
	TagCacheTTL  time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://bandcamp.com",
		UserAgent:         "fanscout/1.0 (+https://github.com/fanscout/fanscout)",
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 3,
		Burst:             3,
		MaxRetries:        3,
		PageSize:          100,
		TagCacheSize:      1024,
		TagCacheTTL:       time.Hour,
	}
}

// Client fetches supporter and item data from Bandcamp. All requests
// flow through one rate limiter and one circuit breaker so a burst of
// parallel collection fetches cannot hammer the site or pile onto an
// outage.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	tags    *cache.Cache[[]string]
	logger  zerolog.Logger
}

// NewClient creates a Bandcamp client. When cfg.Identity is set the
// session cookie is installed in the client's cookie jar.
func NewClient(cfg Config) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.TagCacheSize <= 0 {
		cfg.TagCacheSize = defaults.TagCacheSize
	}
	if cfg.TagCacheTTL <= 0 {
		cfg.TagCacheTTL = defaults.TagCacheTTL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if cfg.Identity != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: "identity", Value: cfg.Identity}})
	}

	logger := logging.With().Str("component", "bandcamp").Logger()

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "bandcamp",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	metrics.CircuitBreakerState.WithLabelValues("bandcamp").Set(breakerStateValue(gobreaker.StateClosed))

	return &Client{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
		tags:    cache.New[[]string](cfg.TagCacheSize, cfg.TagCacheTTL),
		logger:  logger,
	}, nil
}

// Close releases idle connections held by the underlying HTTP client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// ListSupporters returns the usernames of fans listed as supporters on
// an album or track page.
func (c *Client) ListSupporters(ctx context.Context, itemURL string) ([]recommend.Supporter, error) {
	body, err := c.get(ctx, kindPage, itemURL)
	if err != nil {
		return nil, fmt.Errorf("fetch item page: %w", err)
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	names, err := parseSupporters(doc)
	if err != nil {
		return nil, err
	}
	supporters := make([]recommend.Supporter, len(names))
	for i, n := range names {
		supporters[i] = recommend.Supporter(n)
	}
	c.logger.Debug().Str("url", itemURL).Int("supporters", len(supporters)).Msg("listed supporters")
	return supporters, nil
}

// FetchTags returns the tag set of an album or track page.
func (c *Client) FetchTags(ctx context.Context, itemURL string) ([]string, error) {
	if tags, ok := c.tags.Get(itemURL); ok {
		metrics.CacheHits.WithLabelValues("tags").Inc()
		return tags, nil
	}
	metrics.CacheMisses.WithLabelValues("tags").Inc()

	body, err := c.get(ctx, kindPage, itemURL)
	if err != nil {
		return nil, fmt.Errorf("fetch item page: %w", err)
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	tags := parseTags(doc)
	c.tags.Set(itemURL, tags)
	metrics.CacheEntries.WithLabelValues("tags").Set(float64(c.tags.Len()))
	return tags, nil
}

// ResolveItemID resolves an item page URL to its tralbum ID. Track
// pages belonging to an album resolve to the parent album's ID.
func (c *Client) ResolveItemID(ctx context.Context, itemURL string) (string, error) {
	body, err := c.get(ctx, kindPage, itemURL)
	if err != nil {
		return "", fmt.Errorf("fetch item page: %w", err)
	}
	doc, err := parseDocument(body)
	if err != nil {
		return "", err
	}
	page, err := parsePagedata(doc)
	if err != nil {
		return "", err
	}
	if page.FanTralbumData.AlbumID != 0 {
		return strconv.FormatInt(page.FanTralbumData.AlbumID, 10), nil
	}
	if page.TralbumData.TralbumID != 0 {
		return strconv.FormatInt(page.TralbumData.TralbumID, 10), nil
	}
	return "", fmt.Errorf("no tralbum id on page %s", itemURL)
}

// FetchCollection returns a fan's purchases, or wishlist items when
// wishlist is true. The fan page's pagedata blob seeds the result; the
// collection API pages through the remainder.
func (c *Client) FetchCollection(ctx context.Context, supporter recommend.Supporter, wishlist bool) (recommend.Collection, error) {
	fanURL := c.cfg.BaseURL + "/" + url.PathEscape(string(supporter))
	body, err := c.get(ctx, kindPage, fanURL)
	if err != nil {
		return nil, fmt.Errorf("fetch fan page for %s: %w", supporter, err)
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	page, err := parsePagedata(doc)
	if err != nil {
		return nil, fmt.Errorf("fan page for %s: %w", supporter, err)
	}

	data := page.CollectionData
	cache := page.ItemCache.Collection
	if wishlist {
		data = page.WishlistData
		cache = page.ItemCache.Wishlist
	}

	sequence := data.Sequence
	if len(sequence) == 0 {
		sequence = data.PendingSequence
	}

	collection := make(recommend.Collection, 0, data.ItemCount)
	for _, key := range sequence {
		if cached, ok := cache[key]; ok {
			if item, ok := itemFromCached(cached); ok {
				collection = append(collection, item)
			}
		}
	}

	if len(collection) < data.ItemCount && data.LastToken != "" && page.FanData.FanID != 0 {
		rest, err := c.paginateCollection(ctx, page.FanData.FanID, data.LastToken, wishlist)
		if err != nil {
			c.logger.Warn().Err(err).Str("supporter", string(supporter)).Int("partial", len(collection)).Msg("collection pagination failed, returning partial")
		}
		collection = append(collection, rest...)
	}

	c.logger.Debug().Str("supporter", string(supporter)).Bool("wishlist", wishlist).Int("items", len(collection)).Msg("fetched collection")
	return collection, nil
}

// paginateCollection pages through the fan collection API starting at
// the given token. A mid-pagination failure returns the items gathered
// so far along with the error.
func (c *Client) paginateCollection(ctx context.Context, fanID int64, token string, wishlist bool) (recommend.Collection, error) {
	endpoint := c.cfg.BaseURL + "/api/fancollection/1/collection_items"
	if wishlist {
		endpoint = c.cfg.BaseURL + "/api/fancollection/1/wishlist_items"
	}

	var collection recommend.Collection
	for {
		payload := collectionItemsRequest{
			FanID:          fanID,
			OlderThanToken: token,
			Count:          c.cfg.PageSize,
		}
		body, err := c.postJSON(ctx, kindCollectionAPI, endpoint, payload)
		if err != nil {
			return collection, err
		}
		var resp collectionItemsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return collection, fmt.Errorf("decode collection items: %w", err)
		}
		for _, cached := range resp.Items {
			if item, ok := itemFromCached(cached); ok {
				collection = append(collection, item)
			}
		}
		if !resp.MoreAvailable || resp.LastToken == "" || resp.LastToken == token {
			return collection, nil
		}
		token = resp.LastToken
	}
}

// itemFromCached maps a wire item to the engine's Item. Track entries
// that belong to an album use the album's ID so the same release never
// counts twice.
func itemFromCached(cached cachedItem) (recommend.Item, bool) {
	id := cached.AlbumID
	if id == 0 {
		id = cached.ItemID
	}
	if id == 0 {
		return recommend.Item{}, false
	}
	return recommend.Item{
		ID:     strconv.FormatInt(id, 10),
		Title:  cached.ItemTitle,
		Artist: cached.BandName,
		URL:    cached.ItemURL,
	}, true
}

func (c *Client) get(ctx context.Context, kind, rawURL string) ([]byte, error) {
	return c.do(ctx, kind, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
}

func (c *Client) postJSON(ctx context.Context, kind, rawURL string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return c.do(ctx, kind, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// do sends one logical request through the rate limiter, circuit
// breaker, and retry policy, returning the response body.
func (c *Client) do(ctx context.Context, kind string, build func() (*http.Request, error)) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, build)
	})
	metrics.RecordFetch(kind, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordFetchRejected(kind)
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var result []byte

	attempt := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("http %d from %s", resp.StatusCode, req.URL.Path)
		default:
			return backoff.Permanent(fmt.Errorf("http %d from %s", resp.StatusCode, req.URL.Path))
		}

		result, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), c.cfg.MaxRetries), ctx)
	notify := func(err error, next time.Duration) {
		metrics.FetchRetries.Inc()
		c.logger.Debug().Err(err).Dur("next_retry", next).Msg("retrying request")
	}
	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		return nil, err
	}
	return result, nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
