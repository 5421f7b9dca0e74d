package fetch

import "context"

// CacheKey identifies one stream's result for a given query.
type CacheKey struct {
	StreamID  StreamID
	Substream uint64
	Start     uint64
	End       uint64
	Limit     int
}

// ResultCache stores completed per-stream results. Get returns an error
// (any error) when the key is not cached.
type ResultCache interface {
	Get(ctx context.Context, key CacheKey) ([]Point, error)
	Set(ctx context.Context, key CacheKey, points []Point) error
}
