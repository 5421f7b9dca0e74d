package fetch

import (
	"fmt"
	"time"
)

const (
	// DefaultPageSize is the server's maximum readings per response. A page
	// shorter than this means the range is exhausted.
	DefaultPageSize = 10000

	// DefaultLimit replaces a negative limit.
	DefaultLimit = 100000
)

// Config holds the endpoint and pool settings for a Fetcher.
type Config struct {
	// Host and Port of the readingdb server
	Host string
	Port int

	// Workers is the pool size; at most this many connections are open at once
	Workers int

	// Substream is sent unchanged with every query
	Substream uint64

	// PageSize is the short-page threshold used to detect the end of a range
	PageSize int

	// DefaultLimit caps each stream when the caller passes a negative limit
	DefaultLimit int

	// DialTimeout bounds connection establishment (0 means none)
	DialTimeout time.Duration
}

// DefaultConfig returns the default configuration for a local readingdb.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         4242,
		Workers:      5,
		Substream:    0,
		PageSize:     DefaultPageSize,
		DefaultLimit: DefaultLimit,
		DialTimeout:  10 * time.Second,
	}
}

// Validate checks that the configuration can be used to fetch.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be in 1..65535 (got %d)", ErrInvalidConfig, c.Port)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0 (got %d)", ErrInvalidConfig, c.Workers)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be > 0 (got %d)", ErrInvalidConfig, c.PageSize)
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("%w: default limit must be >= 0 (got %d)", ErrInvalidConfig, c.DefaultLimit)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: dial timeout must be >= 0 (got %s)", ErrInvalidConfig, c.DialTimeout)
	}
	return nil
}
