package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/conn"
	"github.com/Sternrassler/readingdb-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Fetcher fetches many streams in parallel over a pool of connections.
type Fetcher struct {
	dialer conn.Dialer
	config Config
	cache  ResultCache
	logger zerolog.Logger
}

// NewFetcher creates a fetcher that opens connections with dialer.
func NewFetcher(dialer conn.Dialer, cfg Config) (*Fetcher, error) {
	if dialer == nil {
		return nil, fmt.Errorf("%w: dialer is required", ErrInvalidConfig)
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Fetcher{
		dialer: dialer,
		config: cfg,
		logger: logging.NewLogger(logging.ComponentFetch),
	}, nil
}

// WithCache returns a copy of the fetcher that reads and fills cache.
func (f *Fetcher) WithCache(cache ResultCache) *Fetcher {
	cp := *f
	cp.cache = cache
	return &cp
}

// Config returns the fetcher configuration.
func (f *Fetcher) Config() Config {
	return f.config
}

// FetchMultiple returns the points of every stream in ids between start and
// end (inclusive), one buffer per ID in input order, each holding at most
// limit points. A negative limit means Config.DefaultLimit.
//
// If any stream fails, no data is returned and the error wraps ErrFetchFailed.
func (f *Fetcher) FetchMultiple(ctx context.Context, ids []StreamID, start, end uint64, limit int) ([][]Point, error) {
	begin := time.Now()

	if len(ids) == 0 {
		return [][]Point{}, nil
	}
	for i, id := range ids {
		if id == 0 {
			fetchRequestsTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("%w: 0 at index %d", ErrInvalidStreamID, i)
		}
	}

	if limit < 0 {
		limit = f.config.DefaultLimit
	}
	params := query{
		start:     start,
		end:       end,
		limit:     limit,
		substream: f.config.Substream,
		pageSize:  f.config.PageSize,
	}

	cached, pending := f.lookupCache(ctx, ids, params)
	req := newRequestContext(ids, pending, params)

	workers := min(f.config.Workers, req.queue.len())

	f.logger.Info().
		Int("streams", len(ids)).
		Int("cached", len(ids)-len(pending)).
		Int("workers", workers).
		Uint64("start", start).
		Uint64("end", end).
		Int("limit", limit).
		Msg("Starting multi-stream fetch")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.worker(ctx, req, &wg, i)
	}
	wg.Wait()

	fetchDuration.Observe(time.Since(begin).Seconds())

	if n := req.errors.Load(); n > 0 {
		for _, se := range req.streamErrors() {
			f.logger.Debug().Err(se.Err).
				Uint64("stream_id", uint64(se.StreamID)).
				Int("index", se.Index).
				Msg("Stream failed")
		}
		req.release()
		fetchRequestsTotal.WithLabelValues("error").Inc()
		f.logger.Error().
			Int32("errors", n).
			Int("streams", len(ids)).
			Dur("duration", time.Since(begin)).
			Msg("Multi-stream fetch failed, discarding all data")
		return nil, fmt.Errorf("%w: %d worker(s) failed", ErrFetchFailed, n)
	}

	result := assemble(req.buffers, cached, limit)
	f.storeCache(ctx, ids, pending, result, params)

	fetchRequestsTotal.WithLabelValues("success").Inc()
	f.logger.Info().
		Int("streams", len(ids)).
		Dur("duration", time.Since(begin)).
		Msg("Multi-stream fetch complete")

	return result, nil
}

// assemble builds the caller-facing result: cached entries win, every buffer
// is truncated to limit and missing data becomes an empty slice.
func assemble(buffers [][]Point, cached map[int][]Point, limit int) [][]Point {
	result := make([][]Point, len(buffers))
	for i, buf := range buffers {
		if pts, ok := cached[i]; ok {
			buf = pts
		}
		if len(buf) > limit {
			buf = buf[:limit]
		}
		if buf == nil {
			buf = []Point{}
		}
		result[i] = buf
	}
	return result
}

// lookupCache returns cached results by position and the positions still to fetch.
func (f *Fetcher) lookupCache(ctx context.Context, ids []StreamID, p query) (map[int][]Point, []int) {
	pending := make([]int, 0, len(ids))
	if f.cache == nil {
		for i := range ids {
			pending = append(pending, i)
		}
		return nil, pending
	}

	cached := make(map[int][]Point)
	for i, id := range ids {
		pts, err := f.cache.Get(ctx, cacheKey(id, p))
		if err != nil {
			pending = append(pending, i)
			continue
		}
		cached[i] = pts
	}
	return cached, pending
}

// storeCache writes freshly fetched streams. Failures are logged only.
func (f *Fetcher) storeCache(ctx context.Context, ids []StreamID, fetched []int, result [][]Point, p query) {
	if f.cache == nil {
		return
	}
	for _, i := range fetched {
		if err := f.cache.Set(ctx, cacheKey(ids[i], p), result[i]); err != nil {
			f.logger.Warn().Err(err).Uint64("stream_id", uint64(ids[i])).Msg("Failed to cache stream result")
		}
	}
}

func cacheKey(id StreamID, p query) CacheKey {
	return CacheKey{
		StreamID:  id,
		Substream: p.substream,
		Start:     p.start,
		End:       p.end,
		Limit:     p.limit,
	}
}

// FetchMultipleStreams fetches ids from the server described by cfg over TCP.
func FetchMultipleStreams(ctx context.Context, cfg Config, ids []StreamID, start, end uint64, limit int) ([][]Point, error) {
	f, err := NewFetcher(conn.NetDialer{Timeout: cfg.DialTimeout}, cfg)
	if err != nil {
		return nil, err
	}
	return f.FetchMultiple(ctx, ids, start, end, limit)
}
