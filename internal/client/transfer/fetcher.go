package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher is the object-fetch capability the engine downloads through.
type Fetcher interface {
	// Fetch issues a streamed GET for url. It returns the body stream and the
	// declared total length in bytes, or -1 when the server does not declare
	// one. Cancelling ctx aborts the stream at chunk-read granularity.
	Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// HTTPFetcher fetches over plain HTTP. A zero timeout means no per-request
// deadline.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{}, timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, 0, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, 0, fmt.Errorf("http status %d", resp.StatusCode)
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, resp.ContentLength, nil
}

// cancelOnClose ties a request-scoped cancel to the body's lifetime.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
