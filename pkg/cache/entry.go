package cache

import (
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/fetch"
)

// CacheEntry is a cached stream result.
type CacheEntry struct {
	// Points is the stream buffer, already truncated to the query limit
	Points []fetch.Point `json:"points"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this result
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
