package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/fetch"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	fc := cfg.FetchConfig()
	if fc != fetch.DefaultConfig() {
		t.Errorf("FetchConfig() = %+v, want defaults %+v", fc, fetch.DefaultConfig())
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("cache should be disabled by default, got addr %q", cfg.Redis.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
readingdb:
  host: db.example.org
  port: 4343
  workers: 12
  substream: 2
  dial_timeout: 3s
redis:
  addr: redis:6379
  cache_ttl: 1m
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ReadingDB.Host != "db.example.org" || cfg.ReadingDB.Port != 4343 {
		t.Errorf("endpoint = %s:%d", cfg.ReadingDB.Host, cfg.ReadingDB.Port)
	}
	if cfg.ReadingDB.Workers != 12 || cfg.ReadingDB.Substream != 2 {
		t.Errorf("workers/substream = %d/%d", cfg.ReadingDB.Workers, cfg.ReadingDB.Substream)
	}
	if cfg.ReadingDB.DialTimeout != 3*time.Second {
		t.Errorf("DialTimeout = %v, want 3s", cfg.ReadingDB.DialTimeout)
	}
	if cfg.ReadingDB.PageSize != fetch.DefaultPageSize {
		t.Errorf("unset page size should keep default, got %d", cfg.ReadingDB.PageSize)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.CacheTTL != time.Minute {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("log = %+v", cfg.Log)
	}
	if lc := cfg.LoggingConfig(); lc.Level != "debug" || !lc.Pretty || lc.Output == nil {
		t.Errorf("LoggingConfig() = %+v", lc)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "readingdb:\n  host: from-file\n  workers: 3\n")

	t.Setenv("READINGDB_HOST", "from-env")
	t.Setenv("READINGDB_WORKERS", "9")
	t.Setenv("READINGDB_SUBSTREAM", "4")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ReadingDB.Host != "from-env" {
		t.Errorf("Host = %q, want from-env", cfg.ReadingDB.Host)
	}
	if cfg.ReadingDB.Workers != 9 {
		t.Errorf("Workers = %d, want 9", cfg.ReadingDB.Workers)
	}
	if cfg.ReadingDB.Substream != 4 {
		t.Errorf("Substream = %d, want 4", cfg.ReadingDB.Substream)
	}
	if cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v, want 30s", cfg.Redis.CacheTTL)
	}
	if cfg.Metrics.ListenAddr != ":9100" {
		t.Errorf("ListenAddr = %q, want :9100", cfg.Metrics.ListenAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad_port_env", env: map[string]string{"READINGDB_PORT": "http"}},
		{name: "bad_duration_env", env: map[string]string{"READINGDB_DIAL_TIMEOUT": "soon"}},
		{name: "bad_substream_env", env: map[string]string{"READINGDB_SUBSTREAM": "-1"}},
		{name: "bad_bool_env", env: map[string]string{"LOG_PRETTY": "maybe"}},
		{name: "invalid_workers", env: map[string]string{"READINGDB_WORKERS": "0"}},
		{name: "bad_yaml", file: "readingdb: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
