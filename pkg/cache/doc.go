// Package cache stores completed readingdb stream results in Redis.
//
// A Manager implements fetch.ResultCache. Each stream result is stored under a
// key derived from the stream ID, substream, time range and limit, so a
// repeated query for the same window is answered without opening a
// connection to readingdb.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//	f = f.WithCache(manager)
//
// Entries are only written after a fully successful fetch, so a cached
// stream never holds data from a request that was discarded.
//
// # Metrics
//
//   - readingdb_cache_hits_total - Cache hits
//   - readingdb_cache_misses_total - Cache misses
//   - readingdb_cache_written_bytes_total - Bytes written to the cache
//   - readingdb_cache_errors_total{operation} - Cache operation errors
package cache
