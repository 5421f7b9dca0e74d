// Package fetch retrieves time-ranged series for many readingdb streams in parallel.
//
// A Fetcher spawns min(Workers, streams) workers. Each worker owns one
// connection for its lifetime, claims stream IDs from a shared queue and pages
// through each claimed stream until the server returns a short page or the
// limit is reached.
//
// Example usage:
//
//	cfg := fetch.DefaultConfig()
//	cfg.Host = "readingdb.local"
//	f, err := fetch.NewFetcher(conn.NetDialer{Timeout: cfg.DialTimeout}, cfg)
//	series, err := f.FetchMultiple(ctx, []fetch.StreamID{1, 2, 3}, start, end, -1)
//
// Results are all-or-nothing:
//   - On success every input stream gets a buffer, in input order, truncated to the limit
//   - Streams without data get an empty, non-nil buffer
//   - If any worker hits a query or decode error, every buffer is discarded and a
//     single error wrapping ErrFetchFailed is returned
//   - A worker that cannot open its connection exits quietly and is not counted
//     as an error; the remaining workers pick up its share
//
// Queries have no timeout and workers cannot be cancelled once started. The
// context passed to FetchMultiple is only used to dial and to talk to the
// optional result cache.
package fetch
