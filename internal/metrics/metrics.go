// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

// Package metrics provides Prometheus instrumentation for Fanscout:
// Bandcamp fetch latency and outcomes, circuit breaker state, engine
// request durations, API endpoint throughput, and response cache
// efficiency. All collectors are registered on the default registry
// via promauto and exposed at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bandcamp fetch metrics.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bandcamp_fetch_duration_seconds",
			Help:    "Duration of Bandcamp page and API fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"}, // "page", "collection_api"
	)

	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bandcamp_fetches_total",
			Help: "Total number of Bandcamp fetches by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "success", "error", "rejected"
	)

	FetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bandcamp_fetch_retries_total",
			Help: "Total number of Bandcamp fetch retry attempts",
		},
	)

	// Circuit breaker metrics.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Engine metrics.
	EngineRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_request_duration_seconds",
			Help:    "Duration of recommendation engine requests in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"}, // "overlap", "similar", "random"
	)

	EngineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_requests_total",
			Help: "Total number of recommendation engine requests",
		},
		[]string{"operation", "outcome"},
	)

	EngineSupportersFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_supporter_collections_fetched_total",
			Help: "Total number of supporter collections fetched",
		},
	)

	// HTTP API metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Response cache metrics.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"cache"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "response_cache_entries",
			Help: "Current number of cached responses",
		},
		[]string{"cache"},
	)
)

// RecordFetch records one Bandcamp fetch with its duration and outcome.
func RecordFetch(kind string, duration time.Duration, err error) {
	FetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	FetchesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordFetchRejected records a fetch rejected by the circuit breaker.
func RecordFetchRejected(kind string) {
	FetchesTotal.WithLabelValues(kind, "rejected").Inc()
}

// RecordEngineRequest records one engine operation.
func RecordEngineRequest(operation string, duration time.Duration, err error) {
	EngineRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	EngineRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordAPIRequest records one HTTP API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
