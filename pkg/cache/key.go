package cache

import (
	"fmt"

	"github.com/Sternrassler/readingdb-client/pkg/fetch"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "readingdb"

// Key generates a deterministic Redis key for a stream result.
// Format: readingdb:stream=<id>:sub=<substream>:start=<start>:end=<end>:limit=<limit>
//
// Example:
//
//	readingdb:stream=42:sub=0:start=0:end=1000:limit=100000
func Key(k fetch.CacheKey) string {
	return fmt.Sprintf("%s:stream=%d:sub=%d:start=%d:end=%d:limit=%d",
		KeyPrefix, k.StreamID, k.Substream, k.Start, k.End, k.Limit)
}
