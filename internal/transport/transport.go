// Package transport fetches raw payloads over HTTP and carries the error
// taxonomy shared by both client flavors.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"time"

	"onvista/internal/httpx"
)

// Fetcher retrieves the raw payload behind a URL. Implementations are
// checked at composition time; there is no runtime capability probing.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

var (
	// ErrTimeout marks a fetch that ran past its deadline. Distinct from
	// StatusError: the upstream never answered.
	ErrTimeout = errors.New("transport: deadline exceeded")

	// ErrNotConfigured is returned when a component was composed without a
	// usable fetcher or HTTP client.
	ErrNotConfigured = errors.New("transport: no fetcher configured")
)

// StatusError reports an upstream response with status >= 400.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s returned status %d", e.URL, e.Status)
}

// HTTPFetcher performs live GETs through a shared httpx client. Timeout, if
// set, bounds each call on top of whatever deadline the context carries.
type HTTPFetcher struct {
	Client  *httpx.Client
	Timeout time.Duration
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.Client == nil {
		return nil, ErrNotConfigured
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("transport: creating request: %w", err)
	}
	resp, err := f.Client.Do(ctx, req)
	if err != nil {
		return nil, wrapTimeout(err, url)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Status: resp.StatusCode, URL: url}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTimeout(err, url)
	}
	return body, nil
}

// wrapTimeout maps deadline failures from the HTTP stack onto ErrTimeout so
// callers can tell a slow upstream from an unhappy one.
func wrapTimeout(err error, url string) error {
	var ue *urlpkg.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
		return fmt.Errorf("%w: %s", ErrTimeout, url)
	}
	return fmt.Errorf("transport: %s: %w", url, err)
}
