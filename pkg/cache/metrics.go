package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readingdb_cache_hits_total",
			Help: "Total number of stream result cache hits",
		},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readingdb_cache_misses_total",
			Help: "Total number of stream result cache misses",
		},
	)

	// CacheWrittenBytes tracks bytes written to the cache
	CacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readingdb_cache_written_bytes_total",
			Help: "Total bytes of stream results written to the cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readingdb_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
