package onvista_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"onvista/internal/onvista"
	"onvista/internal/transport"
)

// jsonResponse wraps v in a 200 response body.
func jsonResponse(t *testing.T, v any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(v))
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(buffer),
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	// Assert: the zero-option client is usable.
	client, err := onvista.NewClient()
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestNewClient_NilHTTPClient(t *testing.T) {
	t.Parallel()

	// Act: compose with an explicit nil client.
	client, err := onvista.NewClient(onvista.WithHTTPClient(nil))

	// Assert: composition fails up front, not at call time.
	require.ErrorIs(t, err, transport.ErrNotConfigured)
	require.Nil(t, client)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	baseURL := "http://localhost:8080"

	// Assert: every request goes against the overridden base URL.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			return jsonResponse(t, map[string]any{"facets": []any{}}), nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient), onvista.WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act
	_, err = client.Search(t.Context(), "VW")
	require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the configured header rides along on every request.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(t, map[string]any{"facets": []any{}}), nil
		}).
		Times(1)

	// Arrange: create a new client with a custom header.
	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient), onvista.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act
	_, err = client.Search(t.Context(), "VW")
	require.NoError(t, err)
}

func TestGet_StatusError(t *testing.T) {
	t.Parallel()

	// Arrange: upstream answers 503.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader("try later")),
			}, nil
		}).
		Times(1)

	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	_, err = client.Search(t.Context(), "VW")

	// Assert: the status arrives typed, not as a decode failure.
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
}

func TestGet_TransportError(t *testing.T) {
	t.Parallel()

	// Arrange: the HTTP client itself fails.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	boom := errors.New("connection refused")
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, boom).
		Times(1)

	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	_, err = client.Search(t.Context(), "VW")

	// Assert
	require.ErrorIs(t, err, boom)
}
