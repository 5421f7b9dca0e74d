// Package logging configures the zerolog logger shared by the readingdb client.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Component names used with NewLogger.
const (
	ComponentFetch = "fetch"
	ComponentConn  = "conn"
	ComponentCache = "cache"
	ComponentCLI   = "cli"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output is the writer logs go to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures and installs the global zerolog logger.
// Loggers created before Setup keep their previous output.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-query and per-stream detail
//   - Range queries sent, responses received
//   - Stream fetched (pages, points, duration)
//   - Worker completed, per-stream failure detail after a failed request
//
// Info: one line per request
//   - Multi-stream fetch started / completed
//   - CLI startup, metrics listener
//
// Warn: a worker or optional subsystem degraded
//   - Worker could not connect (not a request error)
//   - Stream fetch failed, worker stopping
//   - Cache read/write failures
//
// Error: the request failed
//   - Multi-stream fetch failed, all data discarded
//   - Configuration errors
//
// Context Fields:
//   - component: fetch, conn, cache, cli
//   - worker_id: index of the worker within one request
//   - stream_id: readingdb stream identifier
//   - pages, points: counts for one stream
//   - errors: failed workers in one request
//   - duration: elapsed time
