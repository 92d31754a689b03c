package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits tracks cache hits by layer.
	Hits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_cache_hits_total",
			Help: "Total number of listing cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// Misses tracks cache misses.
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wp_cache_misses_total",
			Help: "Total number of listing cache misses",
		},
	)

	// NotModified tracks 304 Not Modified responses to conditional requests.
	NotModified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wp_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// ConditionalRequests tracks requests sent with revalidation headers.
	ConditionalRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wp_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	// Errors tracks cache operation errors.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
