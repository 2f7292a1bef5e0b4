package onvista_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"onvista/internal/instrument"
	"onvista/internal/onvista"
)

// searchFixture mirrors the facet search payload for "VW".
var searchFixture = map[string]any{
	"facets": []any{
		map[string]any{
			"type": "INSTRUMENT",
			"results": []any{
				map[string]any{
					"name":        "Volkswagen (VW) Vz",
					"isin":        "DE0007664039",
					"entityType":  "STOCK",
					"entityValue": "133962",
					"symbol":      "VOW3",
					"wkn":         "766403",
					"urls": map[string]any{
						"WEBSITE": "https://www.onvista.de/aktien/Volkswagen-VW-Vz-Aktie-DE0007664039",
					},
				},
				map[string]any{
					"name":        "iShs III-Core MSCI World U.ETF",
					"isin":        "IE00B4L5Y983",
					"entityType":  "FUND",
					"entityValue": "99206463",
				},
			},
		},
		map[string]any{
			"type": "NEWS",
			"results": []any{
				map[string]any{"headline": "VW stellt neuen Vorstand vor"},
			},
		},
	},
}

func TestSearch(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Contains(t, req.URL.Path, "/instruments/search/facet")
			require.Equal(t, "VW", req.URL.Query().Get("searchValue"))
			return jsonResponse(t, searchFixture), nil
		}).
		Times(1)

	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	instruments, err := client.Search(t.Context(), "VW")
	require.NoError(t, err)

	// Assert: both instrument hits are normalized, the news facet is
	// skipped, and the VW hit keeps all metadata.
	require.Len(t, instruments, 2)
	vw := instruments[0]
	require.Contains(t, vw.Name, "Volkswagen")
	require.Equal(t, "DE0007664039", vw.ID())
	require.Equal(t, "133962", vw.UID)
	require.Equal(t, "VOW3", vw.Symbol)
	require.Equal(t, "766403", vw.WKN)
	require.Equal(t, "STOCK", vw.Type)
	require.NotEmpty(t, vw.URL)
	require.Equal(t, instrument.Unresolved, vw.State())
}

func TestSearch_Empty(t *testing.T) {
	t.Parallel()

	// Arrange: no facet produced results.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]any{"facets": []any{}}), nil
		}).
		Times(1)

	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	instruments, err := client.Search(t.Context(), "no such thing")

	// Assert: empty is a valid answer, not an error.
	require.NoError(t, err)
	require.Empty(t, instruments)
}

func TestSearch_MalformedHit(t *testing.T) {
	t.Parallel()

	// Arrange: a hit with neither isin nor uid.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]any{
				"facets": []any{
					map[string]any{
						"type":    "INSTRUMENT",
						"results": []any{map[string]any{"name": "nameless thing"}},
					},
				},
			}), nil
		}).
		Times(1)

	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	_, err = client.Search(t.Context(), "x")

	// Assert: the whole call fails; no partial record escapes.
	var fieldErr *instrument.FieldNotFoundError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "isin", fieldErr.Field)
}

func TestTopFlop(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Contains(t, req.URL.Path, "/indices/20735/top_flop")
			return jsonResponse(t, map[string]any{
				"topList": []any{
					map[string]any{"instrument": map[string]any{
						"name": "SAP SE", "isin": "DE0007164600", "entityType": "STOCK", "entityValue": "86627",
					}},
				},
				"flopList": []any{
					map[string]any{"instrument": map[string]any{
						"name": "Volkswagen (VW) Vz", "isin": "DE0007664039", "entityType": "STOCK", "entityValue": "133962",
					}},
				},
			}), nil
		}).
		Times(1)

	client, err := onvista.NewClient(onvista.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	instruments, err := client.TopFlop(t.Context(), "20735")
	require.NoError(t, err)

	// Assert: top then flop, identifiers non-empty.
	require.Len(t, instruments, 2)
	require.Equal(t, "DE0007164600", instruments[0].ID())
	require.Equal(t, "DE0007664039", instruments[1].ID())
	for _, inst := range instruments {
		require.NotEmpty(t, inst.ID())
	}
}
