package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/readingdb-client/internal/config"
	"github.com/Sternrassler/readingdb-client/pkg/cache"
	"github.com/Sternrassler/readingdb-client/pkg/conn"
	"github.com/Sternrassler/readingdb-client/pkg/fetch"
	"github.com/Sternrassler/readingdb-client/pkg/logging"
	"github.com/Sternrassler/readingdb-client/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const usage = `usage: readingdb-fetch [flags] streamid...

Fetches [start, end] of every stream from readingdb and prints one entry per
stream in input order. Exits 1 if any stream could not be read.

Flags:
`

// options are the per-invocation command line settings.
type options struct {
	configPath string
	start      uint64
	end        uint64
	limit      int
	format     string
	ids        []fetch.StreamID
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "readingdb-fetch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logging.Setup(logCfg)
	logger := logging.NewLogger(logging.ComponentCLI)

	if cfg.Metrics.ListenAddr != "" {
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: metricsMux()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Err(err).Str("addr", cfg.Metrics.ListenAddr).Msg("Metrics server failed")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", cfg.Metrics.ListenAddr).Msg("Serving metrics")
	}

	fc := cfg.FetchConfig()
	fetcher, err := fetch.NewFetcher(conn.NetDialer{Timeout: fc.DialTimeout}, fc)
	if err != nil {
		return err
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, cache disabled")
		} else {
			fetcher = fetcher.WithCache(cache.NewManager(redisClient, cfg.Redis.CacheTTL))
			logger.Debug().Str("addr", cfg.Redis.Addr).Msg("Result cache enabled")
		}
	}

	result, err := fetcher.FetchMultiple(ctx, opts.ids, opts.start, opts.end, opts.limit)
	if err != nil {
		return err
	}

	switch opts.format {
	case "csv":
		return writeCSV(stdout, opts.ids, result)
	default:
		return writeJSON(stdout, opts.ids, result)
	}
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("readingdb-fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to YAML config file")
	fs.Uint64Var(&opts.start, "start", 0, "range start timestamp (inclusive)")
	fs.Uint64Var(&opts.end, "end", uint64(time.Now().Unix()), "range end timestamp (inclusive)")
	fs.IntVar(&opts.limit, "limit", -1, "max points per stream (negative: server default cap)")
	fs.StringVar(&opts.format, "format", "json", "output format: json or csv")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.format != "json" && opts.format != "csv" {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.end < opts.start {
		return nil, fmt.Errorf("end %d before start %d", opts.end, opts.start)
	}

	ids, err := parseStreamIDs(fs.Args())
	if err != nil {
		return nil, err
	}
	opts.ids = ids
	return opts, nil
}

func parseStreamIDs(args []string) ([]fetch.StreamID, error) {
	ids := make([]fetch.StreamID, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid stream id %q: %w", a, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("invalid stream id %q: must be > 0", a)
		}
		ids = append(ids, fetch.StreamID(n))
	}
	return ids, nil
}

// streamOutput is the JSON form of one stream; Points is never null.
type streamOutput struct {
	StreamID fetch.StreamID `json:"stream_id"`
	Points   []fetch.Point  `json:"points"`
}

func writeJSON(w io.Writer, ids []fetch.StreamID, result [][]fetch.Point) error {
	out := make([]streamOutput, len(ids))
	for i, id := range ids {
		pts := result[i]
		if pts == nil {
			pts = []fetch.Point{}
		}
		out[i] = streamOutput{StreamID: id, Points: pts}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeCSV(w io.Writer, ids []fetch.StreamID, result [][]fetch.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"stream_id", "timestamp", "value"}); err != nil {
		return err
	}
	for i, id := range ids {
		sid := strconv.FormatUint(uint64(id), 10)
		for _, p := range result[i] {
			rec := []string{
				sid,
				strconv.FormatUint(p.Timestamp, 10),
				strconv.FormatFloat(p.Value, 'g', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

