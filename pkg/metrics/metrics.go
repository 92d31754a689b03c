// Package metrics documents the Prometheus metrics exported by the listing
// client. Metrics are defined in their owning packages (client, cache,
// history, listing) via promauto to keep packages self-contained; this
// package carries the catalog and the registry reference.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer used by the listing client.
// All metrics register automatically via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Catalog
//
// Request metrics (pkg/client):
//   - wp_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - wp_request_duration_seconds{endpoint} (Histogram): request duration
//   - wp_errors_total{class} (Counter): errors by class (client, server, network, decode)
//
// Retry metrics (pkg/client):
//   - wp_retries_total{error_class} (Counter): retry attempts
//   - wp_retry_backoff_seconds{error_class} (Histogram): backoff durations
//   - wp_retry_exhausted_total{error_class} (Counter): exhausted retry budgets
//
// Cache metrics (pkg/cache):
//   - wp_cache_hits_total{layer="redis"} (Counter): cache hits
//   - wp_cache_misses_total (Counter): cache misses
//   - wp_304_responses_total (Counter): 304 Not Modified responses
//   - wp_conditional_requests_total (Counter): conditional requests sent
//   - wp_cache_errors_total{operation} (Counter): cache operation errors
//
// History metrics (pkg/history):
//   - wp_history_pushes_total (Counter): history entries pushed
//   - wp_history_pushes_suppressed_total (Counter): pushes swallowed after restore/mount
//   - wp_history_pops_total (Counter): back/forward navigations observed
//
// Listing metrics (pkg/listing):
//   - wp_listing_reactions_total{outcome} (Counter): parameter-change reactions by outcome
//   - wp_listing_stale_responses_total (Counter): superseded responses discarded
//
// Example queries:
//
//   # Cache hit rate
//   sum(rate(wp_cache_hits_total[5m])) /
//   (sum(rate(wp_cache_hits_total[5m])) + sum(rate(wp_cache_misses_total[5m])))
//
//   # Fetch error rate
//   rate(wp_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(wp_request_duration_seconds_bucket[5m]))
