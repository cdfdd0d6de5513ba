// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package bandcamp

// Wire types for the "#pagedata" blob and the fan collection API.
// Only the fields Fanscout reads are declared; the blobs carry far more.

type pageBlob struct {
	FanData        fanData        `json:"fan_data"`
	CollectionData collectionData `json:"collection_data"`
	WishlistData   collectionData `json:"wishlist_data"`
	ItemCache      itemCache      `json:"item_cache"`
	TralbumData    tralbumData    `json:"tralbum_data"`
	FanTralbumData fanTralbumData `json:"fan_tralbum_data"`
}

type fanData struct {
	FanID int64 `json:"fan_id"`
}

// collectionData describes one fan list (purchases or wishlist).
// Sequence holds cache keys in display order; PendingSequence replaces
// it while Bandcamp is still assembling the page.
type collectionData struct {
	ItemCount       int      `json:"item_count"`
	LastToken       string   `json:"last_token"`
	Sequence        []string `json:"sequence"`
	PendingSequence []string `json:"pending_sequence"`
}

type itemCache struct {
	Collection map[string]cachedItem `json:"collection"`
	Wishlist   map[string]cachedItem `json:"wishlist"`
}

// cachedItem is one collection entry, both in the pagedata item cache
// and in collection API responses.
type cachedItem struct {
	ItemID    int64  `json:"item_id"`
	AlbumID   int64  `json:"album_id"`
	ItemType  string `json:"item_type"`
	ItemTitle string `json:"item_title"`
	BandName  string `json:"band_name"`
	ItemURL   string `json:"item_url"`
}

type tralbumData struct {
	TralbumID int64 `json:"tralbum_id"`
}

// fanTralbumData is present on track pages that belong to an album; its
// AlbumID identifies the parent album.
type fanTralbumData struct {
	AlbumID int64 `json:"album_id"`
}

// collectorsBlob is the "#collectors-data" payload on item pages.
type collectorsBlob struct {
	Thumbs []collectorThumb `json:"thumbs"`
}

type collectorThumb struct {
	Username string `json:"username"`
}

type collectionItemsRequest struct {
	FanID          int64  `json:"fan_id"`
	OlderThanToken string `json:"older_than_token"`
	Count          int    `json:"count"`
}

type collectionItemsResponse struct {
	Items         []cachedItem `json:"items"`
	MoreAvailable bool         `json:"more_available"`
	LastToken     string       `json:"last_token"`
}
