package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Sternrassler/readingdb-client/internal/testutil"
	"github.com/Sternrassler/readingdb-client/pkg/fetch"
	"github.com/Sternrassler/readingdb-client/pkg/wire"
)

func setupMockServer(t *testing.T) *testutil.MockReadingDB {
	t.Helper()

	srv, err := testutil.NewMockReadingDB(10)
	if err != nil {
		t.Fatalf("Failed to start mock readingdb: %v", err)
	}
	t.Cleanup(srv.Close)

	t.Setenv("READINGDB_HOST", srv.Host())
	t.Setenv("READINGDB_PORT", strconv.Itoa(srv.Port()))
	t.Setenv("READINGDB_PAGE_SIZE", "10")
	t.Setenv("LOG_LEVEL", "error")
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(metricsMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "readingdb_fetch_requests_total") &&
		!strings.Contains(string(body), "readingdb_active_workers") {
		t.Errorf("expected readingdb metrics in output")
	}
}

func TestParseStreamIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []fetch.StreamID
		wantErr bool
	}{
		{name: "valid", args: []string{"3", "1", "18446744073709551615"}, want: []fetch.StreamID{3, 1, 18446744073709551615}},
		{name: "empty", args: nil, want: []fetch.StreamID{}},
		{name: "zero", args: []string{"1", "0"}, wantErr: true},
		{name: "negative", args: []string{"-4"}, wantErr: true},
		{name: "garbage", args: []string{"abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStreamIDs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("id %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := [][]string{
		{"-format", "xml", "1"},
		{"-start", "10", "-end", "5", "1"},
		{"-limit", "many", "1"},
	}

	for _, args := range tests {
		if _, err := parseArgs(args, io.Discard); err == nil {
			t.Errorf("parseArgs(%v): expected error", args)
		}
	}
}

func TestRun_JSON(t *testing.T) {
	srv := setupMockServer(t)
	want := srv.GenerateStream(2, 25, 1, 1)

	stdout := &bytes.Buffer{}
	err := run(context.Background(), []string{"-start", "0", "-end", "100", "2", "7"}, stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var out []streamOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
	}
	if len(out) != 2 {
		t.Fatalf("got %d streams, want 2", len(out))
	}
	if out[0].StreamID != 2 || len(out[0].Points) != len(want) {
		t.Errorf("stream 2: got id %d with %d points, want %d", out[0].StreamID, len(out[0].Points), len(want))
	}
	if out[1].StreamID != 7 || out[1].Points == nil || len(out[1].Points) != 0 {
		t.Errorf("stream 7: expected empty points, got %+v", out[1])
	}
	if !strings.Contains(stdout.String(), `"points": []`) {
		t.Errorf("empty stream should serialize as [], got:\n%s", stdout.String())
	}
}

func TestRun_CSV(t *testing.T) {
	srv := setupMockServer(t)
	srv.SetStream(5, []wire.Reading{{Timestamp: 10, Value: 1.5}, {Timestamp: 11, Value: -2}})

	stdout := &bytes.Buffer{}
	err := run(context.Background(), []string{"-format", "csv", "-end", "100", "5"}, stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := "stream_id,timestamp,value\n5,10,1.5\n5,11,-2\n"
	if stdout.String() != want {
		t.Errorf("CSV output = %q, want %q", stdout.String(), want)
	}
}

func TestRun_Limit(t *testing.T) {
	srv := setupMockServer(t)
	srv.GenerateStream(1, 50, 1, 1)

	stdout := &bytes.Buffer{}
	if err := run(context.Background(), []string{"-limit", "12", "-end", "100", "1"}, stdout, io.Discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var out []streamOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(out[0].Points) != 12 {
		t.Errorf("got %d points, want 12", len(out[0].Points))
	}
}

func TestRun_FetchFailure(t *testing.T) {
	srv := setupMockServer(t)
	srv.GenerateStream(1, 5, 1, 1)
	srv.FailStream(2, wire.StatusFail)

	stdout := &bytes.Buffer{}
	err := run(context.Background(), []string{"-end", "100", "1", "2"}, stdout, io.Discard)
	if !errors.Is(err, fetch.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("no output expected on failure, got %q", stdout.String())
	}
}

func TestRun_RedisUnavailableDisablesCache(t *testing.T) {
	srv := setupMockServer(t)
	srv.GenerateStream(1, 5, 1, 1)
	t.Setenv("REDIS_URL", "127.0.0.1:1")

	stdout := &bytes.Buffer{}
	if err := run(context.Background(), []string{"-end", "100", "1"}, stdout, io.Discard); err != nil {
		t.Fatalf("run should succeed without redis: %v", err)
	}
	if srv.QueryCount() == 0 {
		t.Error("expected queries to readingdb")
	}
}

func TestWriteJSON_NonFiniteValues(t *testing.T) {
	result := [][]fetch.Point{{
		{Timestamp: 1, Value: math.NaN()},
		{Timestamp: 2, Value: math.Inf(1)},
		{Timestamp: 3, Value: math.Inf(-1)},
		{Timestamp: 4, Value: 0.5},
	}}

	buf := &bytes.Buffer{}
	if err := writeJSON(buf, []fetch.StreamID{1}, result); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}

	for _, want := range []string{`"value": "NaN"`, `"value": "+Inf"`, `"value": "-Inf"`, `"value": 0.5`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %s:\n%s", want, buf.String())
		}
	}

	var out []streamOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if len(out) != 1 || len(out[0].Points) != 4 || !math.IsNaN(out[0].Points[0].Value) {
		t.Errorf("decoded %+v, want 4 points starting with NaN", out)
	}
}

func TestRun_NonFiniteValues(t *testing.T) {
	srv := setupMockServer(t)
	srv.SetStream(8, []wire.Reading{{Timestamp: 5, Value: math.NaN()}, {Timestamp: 6, Value: math.Inf(-1)}})

	stdout := &bytes.Buffer{}
	if err := run(context.Background(), []string{"-end", "100", "8"}, stdout, io.Discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), `"NaN"`) || !strings.Contains(stdout.String(), `"-Inf"`) {
		t.Errorf("expected non-finite values in output, got:\n%s", stdout.String())
	}
}
