// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import "sort"

// OverlapResult pairs an item ID with the number of distinct supporters
// whose collection contains it.
type OverlapResult struct {
	ItemID     string
	Supporters int
}

// occurrence tracks a running count with the position of first appearance,
// which breaks ties deterministically.
type occurrence struct {
	count     int
	firstSeen int
}

// OccurrenceCounts counts, for every item across the supporters'
// collections, how many distinct collections contain it. An item repeated
// within a single collection is counted once. The seed item is excluded.
// Supporters are folded in input order so first-seen positions are stable
// regardless of fetch completion order.
func OccurrenceCounts(seedID string, supporters []Supporter, collectionOf func(Supporter) Collection) map[string]*occurrence {
	counts := make(map[string]*occurrence)
	next := 0

	for _, s := range supporters {
		seen := make(map[string]struct{})
		for _, item := range collectionOf(s) {
			if item.ID == "" || item.ID == seedID {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}

			occ, ok := counts[item.ID]
			if !ok {
				occ = &occurrence{firstSeen: next}
				next++
				counts[item.ID] = occ
			}
			occ.count++
		}
	}

	return counts
}

// RankByOverlap ranks items by how many distinct supporters' collections
// contain them. Items below minSupporters are dropped, the rest are sorted
// by count descending with ties broken by first-seen order, and the list is
// truncated to maxResults. An empty collection contributes nothing and is
// not an error.
func RankByOverlap(seedID string, supporters []Supporter, collectionOf func(Supporter) Collection, minSupporters, maxResults int) []OverlapResult {
	if minSupporters < 1 {
		minSupporters = 1
	}

	counts := OccurrenceCounts(seedID, supporters, collectionOf)

	type ranked struct {
		id  string
		occ *occurrence
	}
	kept := make([]ranked, 0, len(counts))
	for id, occ := range counts {
		if occ.count >= minSupporters {
			kept = append(kept, ranked{id, occ})
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].occ.count != kept[j].occ.count {
			return kept[i].occ.count > kept[j].occ.count
		}
		return kept[i].occ.firstSeen < kept[j].occ.firstSeen
	})

	if maxResults < 0 {
		maxResults = 0
	}
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}

	results := make([]OverlapResult, 0, len(kept))
	for _, r := range kept {
		results = append(results, OverlapResult{ItemID: r.id, Supporters: r.occ.count})
	}
	return results
}
