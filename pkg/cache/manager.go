package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/fetch"
	"github.com/Sternrassler/readingdb-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long a stream result stays cached.
const DefaultTTL = 5 * time.Minute

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

var _ fetch.ResultCache = (*Manager)(nil)

// Manager handles caching of stream results with a Redis backend.
type Manager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager creates a new cache manager. A ttl <= 0 means DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis:  redisClient,
		ttl:    ttl,
		logger: logging.NewLogger(logging.ComponentCache),
	}
}

// Get returns the cached points for key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *Manager) Get(ctx context.Context, key fetch.CacheKey) ([]fetch.Point, error) {
	entry, err := m.GetEntry(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Points, nil
}

// Set caches points for key with the manager TTL.
func (m *Manager) Set(ctx context.Context, key fetch.CacheKey, points []fetch.Point) error {
	now := time.Now()
	return m.SetEntry(ctx, key, &CacheEntry{
		Points:   points,
		Expires:  now.Add(m.ttl),
		CachedAt: now,
	})
}

// GetEntry retrieves a cache entry by key.
func (m *Manager) GetEntry(ctx context.Context, key fetch.CacheKey) (*CacheEntry, error) {
	cacheKey := Key(key)

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		m.logger.Warn().Err(err).Str("key", cacheKey).Msg("Discarding unreadable cache entry")
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		if err := m.Delete(ctx, key); err != nil {
			m.logger.Debug().Err(err).Str("key", cacheKey).Msg("Failed to delete expired entry")
		}
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	if entry.Points == nil {
		entry.Points = []fetch.Point{}
	}

	CacheHits.Inc()
	return &entry, nil
}

// SetEntry stores a cache entry with a TTL based on its Expires field.
func (m *Manager) SetEntry(ctx context.Context, key fetch.CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		// Already expired, don't cache
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, Key(key), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrittenBytes.Add(float64(len(data)))
	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key fetch.CacheKey) error {
	if err := m.redis.Del(ctx, Key(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
