package record

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rjboer/GoRCS/internal/logging"
)

// DefaultURL is where the task table is published.
const DefaultURL = "https://jenyay.net/uploads/Student/Modelling/task_rcs_02.txt"

const maxTableSize = 1 << 20

// StatusError is a non-200 reply from the table server.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// TooLargeError is a table body longer than the accepted limit.
type TooLargeError struct {
	URL   string
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("GET %s: body exceeds %d bytes", e.URL, e.Limit)
}

// Fetcher downloads the task table. Transport errors and 5xx replies are
// retried with exponential backoff; other statuses fail immediately.
type Fetcher struct {
	Client     *http.Client
	MaxRetries uint64
	// Policy builds the backoff schedule for one Fetch. Nil means exponential.
	Policy func() backoff.BackOff
	Logger logging.Logger
}

// NewFetcher returns a Fetcher with a 30s client timeout and 4 retries.
func NewFetcher(logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 4,
		Logger:     logger,
	}
}

func (f *Fetcher) policy() backoff.BackOff {
	if f.Policy != nil {
		return f.Policy()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = time.Minute
	return b
}

// Fetch returns the body of url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := f.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var (
		body    []byte
		attempt int
	)
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logger.Warn("fetch attempt failed",
				logging.Field{Key: "subsystem", Value: "record"},
				logging.Field{Key: "url", Value: url},
				logging.Field{Key: "attempt", Value: attempt},
				logging.Field{Key: "error", Value: err})
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
			if resp.StatusCode >= 500 {
				logger.Warn("fetch attempt failed",
					logging.Field{Key: "subsystem", Value: "record"},
					logging.Field{Key: "url", Value: url},
					logging.Field{Key: "attempt", Value: attempt},
					logging.Field{Key: "status", Value: resp.StatusCode})
				return serr
			}
			return backoff.Permanent(serr)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxTableSize+1))
		if err != nil {
			return err
		}
		if len(data) > maxTableSize {
			return backoff.Permanent(&TooLargeError{URL: url, Limit: maxTableSize})
		}
		body = data
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(f.policy(), f.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	logger.Debug("fetched task table",
		logging.Field{Key: "subsystem", Value: "record"},
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "bytes", Value: len(body)},
		logging.Field{Key: "attempts", Value: attempt})
	return body, nil
}

// FetchToFile fetches url and keeps a copy at path, creating parent
// directories as needed.
func (f *Fetcher) FetchToFile(ctx context.Context, url, path string) ([]byte, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return body, nil
}
