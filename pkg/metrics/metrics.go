// Package metrics exposes the Prometheus registry used by the readingdb client.
// Metrics are defined in their own packages (fetch, cache) and registered
// through promauto; this package serves them and documents the catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving every registered metric.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Fetch Metrics (pkg/fetch):
//   - readingdb_fetch_requests_total{result} (Counter): Multi-stream requests by result (success, error, invalid)
//   - readingdb_fetch_duration_seconds (Histogram): Multi-stream request duration
//   - readingdb_pages_total (Counter): Response pages read
//   - readingdb_points_total (Counter): Points read
//   - readingdb_stream_errors_total (Counter): Streams that failed with a query or decode error
//   - readingdb_dial_failures_total (Counter): Workers that exited because they could not connect
//   - readingdb_active_workers (Gauge): Workers currently running
//
// Cache Metrics (pkg/cache):
//   - readingdb_cache_hits_total (Counter): Stream results served from Redis
//   - readingdb_cache_misses_total (Counter): Stream results not in Redis
//   - readingdb_cache_written_bytes_total (Counter): Bytes written to Redis
//   - readingdb_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Request failure ratio
//   rate(readingdb_fetch_requests_total{result="error"}[5m]) /
//   rate(readingdb_fetch_requests_total[5m])
//
//   # Workers silently lost to connection failures
//   increase(readingdb_dial_failures_total[1h]) > 0
//
//   # Average points per page
//   rate(readingdb_points_total[5m]) / rate(readingdb_pages_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(readingdb_fetch_duration_seconds_bucket[5m]))
