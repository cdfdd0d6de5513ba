// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"context"
	"errors"
)

// ErrInvalidArgument indicates a caller error detected before any fetching
// begins. It is wrapped with detail; test with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// Supporter identifies a user who purchased or wishlisted an item.
type Supporter string

// Item is a marketplace item with the metadata needed for recommendations.
// An Item is immutable once fetched; within one request it is cached by ID.
type Item struct {
	// ID is the tralbum identifier (unique per album/track).
	ID string `json:"id"`

	// Title is the release title.
	Title string `json:"item_title"`

	// Artist is the band or artist name.
	Artist string `json:"band_name"`

	// URL is the canonical item page URL.
	URL string `json:"item_url"`

	// Tags is the item's tag set, deduplicated, in page order.
	Tags []string `json:"tags,omitempty"`
}

// Collection is the ordered sequence of items belonging to one supporter.
// An empty collection means the supporter's purchases are private or
// unreachable; it contributes no counts and is never an error.
type Collection []Item

// Recommendation is an overlap-mode result: an item ranked by how many
// distinct supporters of the seed also have it in their collection.
type Recommendation struct {
	Item            Item `json:"item"`
	SupportersCount int  `json:"supporters_count"`
}

// SimilarItem is a tag-similarity result.
type SimilarItem struct {
	Item            Item    `json:"item"`
	Similarity      float64 `json:"similarity_score"`
	SupportersCount int     `json:"supporters_count"`
}

// RandomItem is a random-sampling result. FinalOverlap is set only when
// overlap filtering was requested; after fallback it records the threshold
// actually used.
type RandomItem struct {
	Item         Item `json:"item"`
	OverlapCount int  `json:"overlap_count"`
	FinalOverlap *int `json:"final_overlap,omitempty"`
}

// Source provides the external collaborator capabilities the engine
// consumes. Implementations perform network I/O and must honor ctx.
type Source interface {
	// ListSupporters returns supporter usernames for an item page.
	ListSupporters(ctx context.Context, itemURL string) ([]Supporter, error)

	// FetchCollection returns a supporter's purchases, or wishlist items
	// when wishlist is true. A private collection yields an empty result.
	FetchCollection(ctx context.Context, supporter Supporter, wishlist bool) (Collection, error)

	// FetchTags returns the tag set of an item page.
	FetchTags(ctx context.Context, itemURL string) ([]string, error)

	// ResolveItemID resolves an item URL to its tralbum ID.
	ResolveItemID(ctx context.Context, itemURL string) (string, error)
}

// ProgressReporter receives coarse progress updates, typically once per
// supporter processed. Implementations must not block.
type ProgressReporter interface {
	OnProgress(status string, current, total, etaSeconds int)
}

// ProgressFunc adapts a function to the ProgressReporter interface.
type ProgressFunc func(status string, current, total, etaSeconds int)

// OnProgress calls f.
func (f ProgressFunc) OnProgress(status string, current, total, etaSeconds int) {
	f(status, current, total, etaSeconds)
}

// NopProgress discards all progress updates.
var NopProgress ProgressReporter = ProgressFunc(func(string, int, int, int) {})

// OverlapOptions controls GetRecommendations.
type OverlapOptions struct {
	// MaxRecommendations caps the result list. Defaults to Config.DefaultK.
	MaxRecommendations int

	// MinSupporters is the minimum number of distinct supporters whose
	// collection must contain an item. Defaults to 2.
	MinSupporters int

	// IncludeTags fetches tag sets for the ranked results.
	IncludeTags bool
}

// SimilarOptions controls GetTagSimilarRecommendations.
type SimilarOptions struct {
	// MaxRecommendations caps the result list. Defaults to Config.DefaultK.
	MaxRecommendations int

	// MinSimilarity is the minimum weighted Jaccard score in [0,1].
	MinSimilarity float64

	// MaxSupporters, when positive, limits the fan-out to a random subset
	// of supporters. Zero means all supporters.
	MaxSupporters int
}

// RandomOptions controls GetRandomItems.
type RandomOptions struct {
	// NumItems is the number of random items to return. Must be positive.
	NumItems int

	// NumSupporters is how many random supporters to sample collections
	// from. Defaults to 20.
	NumSupporters int

	// UseWishlist samples wishlist items instead of purchases.
	UseWishlist bool

	// MinOverlap, when >= 1, keeps only items present in at least that
	// many distinct collections. Zero disables overlap filtering.
	MinOverlap int

	// UseFallback lowers the overlap threshold stepwise (down to 1) when
	// the filtered pool cannot satisfy NumItems.
	UseFallback bool
}
