// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"context"
	"sync"
)

// itemStore is the request-scoped memoization store for item metadata.
// It records items in first-seen order and guarantees a single in-flight
// tag fetch per item key, so repeated lookups across supporters'
// collections hit the memoized value instead of re-fetching.
//
// The store lives for exactly one recommendation request; nothing leaks
// across requests, which keeps results reproducible.
type itemStore struct {
	mu       sync.Mutex
	items    map[string]Item
	order    []string
	tagsDone map[string]bool
	inflight map[string]chan struct{}
}

func newItemStore() *itemStore {
	return &itemStore{
		items:    make(map[string]Item),
		tagsDone: make(map[string]bool),
		inflight: make(map[string]chan struct{}),
	}
}

// Put records item metadata. The first write for a key wins; later
// sightings of the same item only fill fields the first one lacked.
func (s *itemStore) Put(item Item) {
	if item.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		s.order = append(s.order, item.ID)
		s.items[item.ID] = item
		if len(item.Tags) > 0 {
			s.tagsDone[item.ID] = true
		}
		return
	}

	if existing.Title == "" {
		existing.Title = item.Title
	}
	if existing.Artist == "" {
		existing.Artist = item.Artist
	}
	if existing.URL == "" {
		existing.URL = item.URL
	}
	if len(existing.Tags) == 0 && len(item.Tags) > 0 {
		existing.Tags = item.Tags
		s.tagsDone[item.ID] = true
	}
	s.items[item.ID] = existing
}

// Get returns the memoized item for an ID.
func (s *itemStore) Get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}

// Items returns all memoized items in first-seen order.
func (s *itemStore) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of distinct items seen.
func (s *itemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// ResolveTags returns the item's tag set, fetching it at most once per key.
// Concurrent callers for the same key block until the single fetch
// completes; a failed fetch is memoized as an empty tag set so one bad item
// cannot be retried in a loop within the request.
func (s *itemStore) ResolveTags(ctx context.Context, id string, fetch func(ctx context.Context, itemURL string) ([]string, error)) ([]string, error) {
	for {
		s.mu.Lock()
		item, known := s.items[id]
		if !known {
			s.mu.Unlock()
			return nil, nil
		}
		if s.tagsDone[id] {
			s.mu.Unlock()
			return item.Tags, nil
		}

		if wait, busy := s.inflight[id]; busy {
			s.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		done := make(chan struct{})
		s.inflight[id] = done
		url := item.URL
		s.mu.Unlock()

		tags, err := fetch(ctx, url)

		s.mu.Lock()
		item = s.items[id]
		if err == nil {
			item.Tags = dedupeTags(tags)
		}
		s.items[id] = item
		s.tagsDone[id] = true
		delete(s.inflight, id)
		s.mu.Unlock()
		close(done)

		return item.Tags, err
	}
}

// dedupeTags removes duplicate tags preserving page order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
