package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/readingdb-client/internal/testutil"
	"github.com/Sternrassler/readingdb-client/pkg/conn"
	"github.com/Sternrassler/readingdb-client/pkg/fetch"
)

func TestManager_AsFetcherCache(t *testing.T) {
	mr, client := setupTestRedis(t)

	srv, err := testutil.NewMockReadingDB(10)
	if err != nil {
		t.Fatalf("Failed to start mock readingdb: %v", err)
	}
	defer srv.Close()
	srv.GenerateStream(1, 23, 1, 1)
	srv.GenerateStream(2, 4, 1, 1)

	cfg := fetch.DefaultConfig()
	cfg.Host = srv.Host()
	cfg.Port = srv.Port()
	cfg.PageSize = 10

	f, err := fetch.NewFetcher(conn.NetDialer{Timeout: time.Second}, cfg)
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}
	f = f.WithCache(NewManager(client, time.Minute))

	ids := []fetch.StreamID{1, 2, 3}
	first, err := f.FetchMultiple(context.Background(), ids, 0, 100, -1)
	if err != nil {
		t.Fatalf("first FetchMultiple failed: %v", err)
	}

	for _, id := range ids {
		key := fetch.CacheKey{StreamID: id, Start: 0, End: 100, Limit: fetch.DefaultLimit}
		if !mr.Exists(Key(key)) {
			t.Errorf("stream %d not cached", id)
		}
	}

	queries := srv.QueryCount()
	second, err := f.FetchMultiple(context.Background(), ids, 0, 100, -1)
	if err != nil {
		t.Fatalf("second FetchMultiple failed: %v", err)
	}
	if srv.QueryCount() != queries {
		t.Errorf("second fetch sent %d queries, want 0", srv.QueryCount()-queries)
	}

	for i := range ids {
		if len(first[i]) != len(second[i]) {
			t.Errorf("stream %d: cached %d points, fetched %d", ids[i], len(second[i]), len(first[i]))
		}
	}
	if second[2] == nil || len(second[2]) != 0 {
		t.Errorf("stream without data should come back empty from cache, got %v", second[2])
	}
}
