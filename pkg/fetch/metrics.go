package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for fetch operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingdb_fetch_requests_total",
		Help: "Total multi-stream fetch requests by result",
	}, []string{"result"}) // "success", "error", "invalid"

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "readingdb_fetch_duration_seconds",
		Help:    "Duration of multi-stream fetch requests in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	pagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "readingdb_pages_total",
		Help: "Total response pages read from readingdb",
	})

	pointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "readingdb_points_total",
		Help: "Total points read from readingdb",
	})

	streamErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "readingdb_stream_errors_total",
		Help: "Total streams whose fetch failed with a query or decode error",
	})

	dialFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "readingdb_dial_failures_total",
		Help: "Total workers that exited because their connection could not be opened",
	})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "readingdb_active_workers",
		Help: "Number of fetch workers currently running",
	})
)
