// Package config loads the readingdb client configuration.
//
// Precedence: defaults, then the optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/cache"
	"github.com/Sternrassler/readingdb-client/pkg/fetch"
	"github.com/Sternrassler/readingdb-client/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	ReadingDB ReadingDBConfig `yaml:"readingdb"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ReadingDBConfig describes the server and the worker pool.
type ReadingDBConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Workers      int           `yaml:"workers"`
	Substream    uint64        `yaml:"substream"`
	PageSize     int           `yaml:"page_size"`
	DefaultLimit int           `yaml:"default_limit"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
}

// RedisConfig enables the result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig enables the Prometheus listener when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	fc := fetch.DefaultConfig()
	return &Config{
		ReadingDB: ReadingDBConfig{
			Host:         fc.Host,
			Port:         fc.Port,
			Workers:      fc.Workers,
			Substream:    fc.Substream,
			PageSize:     fc.PageSize,
			DefaultLimit: fc.DefaultLimit,
			DialTimeout:  fc.DialTimeout,
		},
		Redis: RedisConfig{
			CacheTTL: cache.DefaultTTL,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ReadingDB.Host = getEnv("READINGDB_HOST", c.ReadingDB.Host)
	c.Redis.Addr = getEnv("REDIS_URL", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Metrics.ListenAddr = getEnv("METRICS_ADDR", c.Metrics.ListenAddr)

	var err error
	if c.ReadingDB.Port, err = getEnvInt("READINGDB_PORT", c.ReadingDB.Port); err != nil {
		return err
	}
	if c.ReadingDB.Workers, err = getEnvInt("READINGDB_WORKERS", c.ReadingDB.Workers); err != nil {
		return err
	}
	if c.ReadingDB.PageSize, err = getEnvInt("READINGDB_PAGE_SIZE", c.ReadingDB.PageSize); err != nil {
		return err
	}
	if c.ReadingDB.DefaultLimit, err = getEnvInt("READINGDB_DEFAULT_LIMIT", c.ReadingDB.DefaultLimit); err != nil {
		return err
	}
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if v := os.Getenv("READINGDB_SUBSTREAM"); v != "" {
		if c.ReadingDB.Substream, err = strconv.ParseUint(v, 10, 64); err != nil {
			return fmt.Errorf("READINGDB_SUBSTREAM: %w", err)
		}
	}
	if c.ReadingDB.DialTimeout, err = getEnvDuration("READINGDB_DIAL_TIMEOUT", c.ReadingDB.DialTimeout); err != nil {
		return err
	}
	if c.Redis.CacheTTL, err = getEnvDuration("CACHE_TTL", c.Redis.CacheTTL); err != nil {
		return err
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		if c.Log.Pretty, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.FetchConfig().Validate(); err != nil {
		return err
	}
	if c.Redis.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be >= 0 (got %s)", c.Redis.CacheTTL)
	}
	return nil
}

// FetchConfig converts to fetch.Config.
func (c *Config) FetchConfig() fetch.Config {
	return fetch.Config{
		Host:         c.ReadingDB.Host,
		Port:         c.ReadingDB.Port,
		Workers:      c.ReadingDB.Workers,
		Substream:    c.ReadingDB.Substream,
		PageSize:     c.ReadingDB.PageSize,
		DefaultLimit: c.ReadingDB.DefaultLimit,
		DialTimeout:  c.ReadingDB.DialTimeout,
	}
}

// LoggingConfig converts to logging.Config writing to stderr.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.LogLevel(c.Log.Level)
	lc.Pretty = c.Log.Pretty
	return lc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
