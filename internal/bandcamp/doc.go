// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

// Package bandcamp implements the recommend.Source interface against
// Bandcamp's public pages and fan collection API.
//
// # Data Access
//
// Three surfaces are scraped or called:
//
//   - Album/track pages: the "#collectors-data" element carries a JSON
//     blob listing supporters; "a.tag" anchors carry the tag set; the
//     "#pagedata" blob resolves the page to its tralbum ID.
//   - Fan pages: the "#pagedata" blob carries the fan ID, the first
//     batch of collection items, and a pagination token.
//   - Collection API: POST /api/fancollection/1/collection_items pages
//     through the remainder of a collection using the token.
//
// # Resilience
//
// All outbound requests share a token-bucket rate limiter, a circuit
// breaker, and exponential backoff retries for transient failures.
// Private or missing collections surface as empty results so one
// unreachable fan never fails a whole recommendation run.
package bandcamp
