// Package metrics exposes the Prometheus registry used by the client.
// Collectors are defined next to the code that updates them (client, cache,
// ratelimit, paging) and registered through promauto; this package serves
// them over HTTP and documents them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all promauto collectors use.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics
//
// Requests (pkg/client):
//   - unsplash_requests_total{endpoint, status} (Counter)
//   - unsplash_request_duration_seconds{endpoint} (Histogram)
//   - unsplash_errors_total{class} (Counter)
//
// Quota (pkg/ratelimit):
//   - unsplash_quota_remaining (Gauge): requests left in the hourly window
//   - unsplash_quota_blocks_total (Counter): requests refused locally
//   - unsplash_quota_throttles_total (Counter): requests delayed near the limit
//
// Cache (pkg/cache):
//   - unsplash_cache_hits_total{state} (Counter): fresh or stale hits
//   - unsplash_cache_misses_total (Counter)
//   - unsplash_cache_written_bytes_total (Counter)
//   - unsplash_conditional_requests_total (Counter)
//   - unsplash_304_responses_total (Counter)
//   - unsplash_cache_errors_total{operation} (Counter)
//
// Paging (pkg/paging):
//   - unsplash_paging_loads_total{source, result} (Counter): result is page, end, or an error class
//   - unsplash_paging_telemetry_reports_total{source} (Counter)
//   - unsplash_paging_batch_pages_total{result} (Counter)
//   - unsplash_paging_batch_duration_seconds (Histogram)
//
// Example queries:
//
//	# Page load failure ratio per source
//	sum by (source) (rate(unsplash_paging_loads_total{result!~"page|end"}[5m]))
//	  / sum by (source) (rate(unsplash_paging_loads_total[5m]))
//
//	# Quota close to exhaustion
//	unsplash_quota_remaining < 5
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(unsplash_request_duration_seconds_bucket[5m]))
