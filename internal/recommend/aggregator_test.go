// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"reflect"
	"testing"
)

func collectionsOf(m map[Supporter]Collection) func(Supporter) Collection {
	return func(s Supporter) Collection { return m[s] }
}

func items(ids ...string) Collection {
	col := make(Collection, 0, len(ids))
	for _, id := range ids {
		col = append(col, Item{ID: id, URL: "https://example.bandcamp.com/album/" + id})
	}
	return col
}

func TestRankByOverlap(t *testing.T) {
	tests := []struct {
		name          string
		seedID        string
		supporters    []Supporter
		collections   map[Supporter]Collection
		minSupporters int
		maxResults    int
		want          []OverlapResult
	}{
		{
			name:       "threshold filters singletons",
			seedID:     "seed",
			supporters: []Supporter{"a", "b", "c"},
			collections: map[Supporter]Collection{
				"a": items("x", "y"),
				"b": items("x", "z"),
				"c": items("x"),
			},
			minSupporters: 2,
			maxResults:    10,
			want:          []OverlapResult{{ItemID: "x", Supporters: 3}},
		},
		{
			name:       "seed item excluded from counts",
			seedID:     "seed",
			supporters: []Supporter{"a", "b"},
			collections: map[Supporter]Collection{
				"a": items("seed", "x"),
				"b": items("seed", "x"),
			},
			minSupporters: 2,
			maxResults:    10,
			want:          []OverlapResult{{ItemID: "x", Supporters: 2}},
		},
		{
			name:       "duplicate within one collection counts once",
			seedID:     "seed",
			supporters: []Supporter{"a", "b"},
			collections: map[Supporter]Collection{
				"a": items("x", "x", "x"),
				"b": items("x"),
			},
			minSupporters: 2,
			maxResults:    10,
			want:          []OverlapResult{{ItemID: "x", Supporters: 2}},
		},
		{
			name:       "ties break by first sighting",
			seedID:     "seed",
			supporters: []Supporter{"a", "b"},
			collections: map[Supporter]Collection{
				"a": items("y", "x"),
				"b": items("x", "y"),
			},
			minSupporters: 2,
			maxResults:    10,
			want: []OverlapResult{
				{ItemID: "y", Supporters: 2},
				{ItemID: "x", Supporters: 2},
			},
		},
		{
			name:       "truncated to max results",
			seedID:     "seed",
			supporters: []Supporter{"a", "b"},
			collections: map[Supporter]Collection{
				"a": items("x", "y", "z"),
				"b": items("x", "y", "z"),
			},
			minSupporters: 2,
			maxResults:    2,
			want: []OverlapResult{
				{ItemID: "x", Supporters: 2},
				{ItemID: "y", Supporters: 2},
			},
		},
		{
			name:       "empty collections contribute nothing",
			seedID:     "seed",
			supporters: []Supporter{"a", "b", "c"},
			collections: map[Supporter]Collection{
				"a": items("x"),
				"b": nil,
				"c": items("x"),
			},
			minSupporters: 2,
			maxResults:    10,
			want:          []OverlapResult{{ItemID: "x", Supporters: 2}},
		},
		{
			name:          "no supporters yields empty",
			seedID:        "seed",
			supporters:    nil,
			collections:   nil,
			minSupporters: 2,
			maxResults:    10,
			want:          []OverlapResult{},
		},
		{
			name:       "threshold below one treated as one",
			seedID:     "seed",
			supporters: []Supporter{"a"},
			collections: map[Supporter]Collection{
				"a": items("x"),
			},
			minSupporters: 0,
			maxResults:    10,
			want:          []OverlapResult{{ItemID: "x", Supporters: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankByOverlap(tt.seedID, tt.supporters, collectionsOf(tt.collections), tt.minSupporters, tt.maxResults)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RankByOverlap() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRankByOverlapIdempotent(t *testing.T) {
	supporters := []Supporter{"a", "b", "c"}
	collections := map[Supporter]Collection{
		"a": items("x", "y", "q"),
		"b": items("x", "z", "q"),
		"c": items("x", "y"),
	}

	first := RankByOverlap("seed", supporters, collectionsOf(collections), 2, 10)
	second := RankByOverlap("seed", supporters, collectionsOf(collections), 2, 10)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated ranking differs: %+v vs %+v", first, second)
	}
}

func TestOccurrenceCountsSkipsEmptyIDs(t *testing.T) {
	supporters := []Supporter{"a"}
	collections := map[Supporter]Collection{
		"a": {Item{ID: ""}, Item{ID: "x"}},
	}

	counts := OccurrenceCounts("seed", supporters, collectionsOf(collections))
	if len(counts) != 1 {
		t.Fatalf("expected 1 counted item, got %d", len(counts))
	}
	if counts["x"].count != 1 {
		t.Errorf("count for x = %d, want 1", counts["x"].count)
	}
}
