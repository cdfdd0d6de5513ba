// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package recommend

import (
	"math/rand"
	"time"
)

// SampleWithFallback draws numItems random items from the pool of
// candidates at the given overlap threshold. The pool function must be
// monotone: lowering the threshold never shrinks the pool.
//
// Starting at threshold = minOverlap, the pool is queried; when it holds at
// least numItems candidates a uniform random subset (without replacement)
// is returned together with the threshold used. When the pool is too small
// and useFallback is false, whatever was found is returned as-is. When
// useFallback is true the threshold is decremented and the pool re-queried
// until enough items are found or the threshold reaches 1.
//
// The rng is injected so outcomes are reproducible under a fixed seed; a
// nil rng falls back to a time-seeded source.
func SampleWithFallback(pool func(threshold int) []Item, numItems, minOverlap int, useFallback bool, rng *rand.Rand) ([]Item, int) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // sampling, not cryptography
	}
	if minOverlap < 1 {
		minOverlap = 1
	}

	threshold := minOverlap
	for {
		candidates := pool(threshold)

		if len(candidates) >= numItems {
			return sampleWithoutReplacement(candidates, numItems, rng), threshold
		}
		if !useFallback || threshold <= 1 {
			return candidates, threshold
		}
		threshold--
	}
}

// sampleWithoutReplacement returns a uniform random subset of size n.
func sampleWithoutReplacement(items []Item, n int, rng *rand.Rand) []Item {
	if n >= len(items) {
		out := make([]Item, len(items))
		copy(out, items)
		return out
	}

	selected := make([]Item, 0, n)
	for _, idx := range rng.Perm(len(items))[:n] {
		selected = append(selected, items[idx])
	}
	return selected
}
