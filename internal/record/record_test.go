package record

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rjboer/GoRCS/internal/logging"
	"github.com/rjboer/GoRCS/internal/mie"
)

const table = `variant  D, m   fmin, Hz  fmax, Hz

1  0.1  1e9   10e9
8  0.5  1e8   1.5e9
18 2.0  3e8   4e8
`

func TestParseSelectsVariant(t *testing.T) {
	rec, err := Parse(strings.NewReader(table), "8")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Variant != "8" || rec.Diameter != 0.5 || rec.FMin != 1e8 || rec.FMax != 1.5e9 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Radius() != 0.25 || rec.Target().Radius != 0.25 {
		t.Fatalf("unexpected radius %g", rec.Radius())
	}
	sweep := rec.Sweep(mie.DefaultConfig())
	if sweep.Min != 1e8 || sweep.Max != 1.5e9 || sweep.Step != mie.DefaultStep {
		t.Fatalf("unexpected sweep %+v", sweep)
	}
}

func TestParseDefaultsVariant(t *testing.T) {
	rec, err := ParseBytes([]byte(table), "  ")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Variant != DefaultVariant {
		t.Fatalf("expected default variant, got %q", rec.Variant)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader(table), "99"); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}

	_, err := Parse(strings.NewReader("8 0.5 1e8\n"), "8")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 1 {
		t.Fatalf("expected ParseError on line 1, got %v", err)
	}

	_, err = Parse(strings.NewReader("\n8 half 1e8 2e8\n"), "8")
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Fatalf("expected ParseError on line 2, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	rec, err := ParseFile(path, "18")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Diameter != 2 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"), "8"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func newTestFetcher(retries uint64) *Fetcher {
	f := NewFetcher(logging.New(logging.Debug, logging.Text, io.Discard))
	f.MaxRetries = retries
	f.Policy = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return f
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, table)
	}))
	defer srv.Close()

	body, err := newTestFetcher(4).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != table {
		t.Fatalf("unexpected body %q", body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(4).Fetch(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFetcher(2).Fetch(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 StatusError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchBodySizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "at limit", size: maxTableSize},
		{name: "over limit", size: maxTableSize + 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				io.WriteString(w, strings.Repeat("\n", tt.size))
			}))
			defer srv.Close()

			body, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
			if !tt.wantErr {
				if err != nil || len(body) != tt.size {
					t.Fatalf("expected %d bytes, got %d (%v)", tt.size, len(body), err)
				}
				return
			}
			var tle *TooLargeError
			if !errors.As(err, &tle) || tle.Limit != maxTableSize {
				t.Fatalf("expected TooLargeError, got %v", err)
			}
			if body != nil {
				t.Fatal("truncated body returned")
			}
			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Fatalf("oversized body should not be retried, got %d attempts", got)
			}
		})
	}
}

func TestFetchToFileCachesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, table)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cache", "input.txt")
	body, err := newTestFetcher(0).FetchToFile(context.Background(), srv.URL, path)
	if err != nil {
		t.Fatal(err)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(onDisk) != string(body) {
		t.Fatal("cached file differs from fetched body")
	}
	if _, err := ParseBytes(body, "8"); err != nil {
		t.Fatalf("fetched table does not parse: %v", err)
	}
}
