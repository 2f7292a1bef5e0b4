// Package onvista is the JSON API client for api.onvista.de. It resolves
// instruments via the search and snapshot endpoints and historical quote
// series via the chart endpoint. A single Client is safe for concurrent use;
// every call suspends only at network I/O on the shared connection pool.
package onvista

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"time"

	"go.uber.org/zap"

	"onvista/internal/transport"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=onvista_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultBaseURL = "https://api.onvista.de/api/v1"

// Client is a client for the onvista JSON API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the HTTP requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// timeout bounds each call when > 0.
	timeout time.Duration
	// log receives request-level debug logging.
	log *zap.Logger
	// now is the clock used for default quote windows.
	now func() time.Time
}

// Option is a configuration option for the Client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeout sets a per-call timeout. When it elapses the call fails with
// transport.ErrTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithClock sets the clock used to derive default quote windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new API client. A nil HTTP client is rejected at
// composition time with transport.ErrNotConfigured.
func NewClient(options ...Option) (*Client, error) {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, option := range options {
		option(client)
	}
	if client.httpClient == nil {
		return nil, transport.ErrNotConfigured
	}
	if client.now == nil {
		client.now = time.Now
	}
	return client, nil
}

// get performs a GET against the API and returns the raw body. Status codes
// >= 400 surface as *transport.StatusError, elapsed deadlines as
// transport.ErrTimeout.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	c.log.Debug("api request", zap.String("url", url))
	res, err := c.httpClient.Do(req)
	if err != nil {
		var ue *urlpkg.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
			return nil, fmt.Errorf("%w: %s", transport.ErrTimeout, url)
		}
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, &transport.StatusError{Status: res.StatusCode, URL: url}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
