// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

// Package api exposes the recommendation engine over HTTP using the
// chi router.
//
// # Endpoints
//
//	GET /api/v1/recommendations  co-purchase overlap recommendations
//	GET /api/v1/similar          tag similarity recommendations
//	GET /api/v1/random           random supporter collection items
//	GET /healthz                 liveness probe
//	GET /metrics                 Prometheus metrics
//
// Responses use a uniform envelope with a status, payload, metadata
// (timestamp and request ID), and an error object on failure.
//
// Engine runs fan out to dozens of Bandcamp fetches and can take
// minutes, so successful responses are cached by URL and parameters.
package api
