// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"math"
	"sort"
	"strings"
)

// SimilarityResult pairs an item ID with its weighted Jaccard score.
type SimilarityResult struct {
	ItemID string
	Score  float64
}

// tagAliases folds common spelling variants onto one canonical form so
// that, e.g., "UK" and "united kingdom" tags match.
var tagAliases = map[string]string{
	"uk":     "united kingdom",
	"u.k.":   "united kingdom",
	"usa":    "united states",
	"u.s.a.": "united states",
}

// NormalizeTag lowercases, trims, and alias-folds a tag for comparison.
func NormalizeTag(tag string) string {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if canonical, ok := tagAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// normalizeTagSet converts a tag list to a deduplicated set of normalized
// tags. Empty tags are dropped.
func normalizeTagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if n := NormalizeTag(t); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// DocumentFrequencies counts, per normalized tag, the number of candidate
// items whose tag set contains it. A tag repeated on one item counts once.
func DocumentFrequencies(candidates []Item) map[string]int {
	freq := make(map[string]int)
	for _, item := range candidates {
		for tag := range normalizeTagSet(item.Tags) {
			freq[tag]++
		}
	}
	return freq
}

// WeightedJaccard computes the TF-IDF weighted Jaccard similarity between
// two tag sets. Each tag is weighted by its inverse document frequency
// over a corpus of totalDocs candidates:
//
//	weight(t) = log(totalDocs / (1 + docFreq[t]))
//	sim(a, b) = sum(weight of a∩b) / sum(weight of a∪b)
//
// The score is clipped to [0,1]. An empty set on either side scores 0.
// When the union weight is not positive (degenerate IDF, e.g. every tag
// appears in every document) the unweighted Jaccard index is used instead,
// so a nonempty set is always similarity 1.0 with itself.
func WeightedJaccard(a, b []string, docFreq map[string]int, totalDocs int) float64 {
	setA := normalizeTagSet(a)
	setB := normalizeTagSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var interCount, unionCount int
	var interWeight, unionWeight float64

	weight := func(tag string) float64 {
		if totalDocs < 1 {
			return 0
		}
		return math.Log(float64(totalDocs) / (1 + float64(docFreq[tag])))
	}

	for tag := range setA {
		w := weight(tag)
		unionCount++
		unionWeight += w
		if _, ok := setB[tag]; ok {
			interCount++
			interWeight += w
		}
	}
	for tag := range setB {
		if _, ok := setA[tag]; !ok {
			unionCount++
			unionWeight += weight(tag)
		}
	}

	var score float64
	if unionWeight > 0 {
		score = interWeight / unionWeight
	} else if unionCount > 0 {
		score = float64(interCount) / float64(unionCount)
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// RankByTagSimilarity scores every candidate against the seed tag set and
// returns those at or above minSimilarity, sorted by score descending with
// ties broken by candidate input order, truncated to maxResults. A corpus
// with zero candidates yields an empty result.
func RankByTagSimilarity(seedTags []string, candidates []Item, docFreq map[string]int, minSimilarity float64, maxResults int) []SimilarityResult {
	if len(candidates) == 0 {
		return nil
	}
	totalDocs := len(candidates)

	type scored struct {
		id    string
		score float64
		index int
	}
	kept := make([]scored, 0, len(candidates))
	for i, item := range candidates {
		score := WeightedJaccard(seedTags, item.Tags, docFreq, totalDocs)
		if score >= minSimilarity {
			kept = append(kept, scored{id: item.ID, score: score, index: i})
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].index < kept[j].index
	})

	if maxResults < 0 {
		maxResults = 0
	}
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}

	results := make([]SimilarityResult, 0, len(kept))
	for _, s := range kept {
		results = append(results, SimilarityResult{ItemID: s.id, Score: s.score})
	}
	return results
}
