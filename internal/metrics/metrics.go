package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniwrap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aniwrap_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AniList
	AnilistRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniwrap_anilist_requests_total",
			Help: "Total number of AniList API attempts by outcome",
		},
		[]string{"outcome"}, // "success", "retry", "error"
	)

	AnilistRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aniwrap_anilist_request_duration_seconds",
			Help:    "Duration of AniList API attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TruncatedHistoriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aniwrap_truncated_histories_total",
			Help: "Watch histories that had more pages than were fetched",
		},
	)

	// Statistics
	WrappedComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniwrap_wrapped_computations_total",
			Help: "Total number of wrapped computations by outcome",
		},
		[]string{"outcome"},
	)

	AggregateFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniwrap_aggregate_fallbacks_total",
			Help: "Aggregates that failed and fell back to their neutral default",
		},
		[]string{"computation"},
	)

	// Scheduler
	SnapshotRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniwrap_snapshot_refreshes_total",
			Help: "Snapshot refreshes of registered users by outcome",
		},
		[]string{"outcome"},
	)
)
