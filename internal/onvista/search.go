package onvista

import (
	"context"
	"encoding/json"
	"fmt"
	urlpkg "net/url"
	"strings"

	"onvista/internal/instrument"
)

// searchResponse is the outer shape of the facet search endpoint. Facet
// results stay loosely typed; instrumentFromPayload walks them.
type searchResponse struct {
	Facets []struct {
		Type    string           `json:"type"`
		Results []map[string]any `json:"results"`
	} `json:"facets"`
}

// Search queries the search endpoint and normalizes every instrument hit.
// Facets carrying other content (news, derivative overviews) are skipped by
// type. An empty result is a valid empty slice, not an error. A malformed
// hit fails the whole call; the caller decides whether to retry with a
// narrower query.
func (c *Client) Search(ctx context.Context, text string) ([]*instrument.Instrument, error) {
	query := urlpkg.Values{"searchValue": {text}}
	url := fmt.Sprintf("%s/instruments/search/facet?%s", c.baseURL, query.Encode())

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	instruments := []*instrument.Instrument{}
	for _, facet := range res.Facets {
		if facet.Type != "" && !strings.EqualFold(facet.Type, "INSTRUMENT") {
			continue
		}
		for _, hit := range facet.Results {
			inst, err := instrumentFromPayload(hit)
			if err != nil {
				return nil, fmt.Errorf("normalizing search hit: %w", err)
			}
			instruments = append(instruments, inst)
		}
	}
	return instruments, nil
}

// instrumentFromPayload builds an instrument from the API's instrument
// object as embedded in search hits, snapshots and index constituents.
func instrumentFromPayload(obj map[string]any) (*instrument.Instrument, error) {
	name, err := field[string](obj, "name")
	if err != nil {
		return nil, err
	}

	inst := &instrument.Instrument{Name: name}
	inst.ISIN, _ = optField[string](obj, "isin")
	inst.UID, _ = optField[string](obj, "entityValue")
	if inst.ISIN == "" && inst.UID == "" {
		return nil, &instrument.FieldNotFoundError{Field: "isin"}
	}
	inst.Type, _ = optField[string](obj, "entityType")
	inst.Symbol, _ = optField[string](obj, "symbol", "tickerSymbol")
	inst.WKN, _ = optField[string](obj, "wkn")
	inst.Sector, _ = optField[string](obj, "sector", "branch")
	if urls, err := child(obj, "urls"); err == nil {
		inst.URL, _ = optField[string](urls, "WEBSITE")
	}
	return inst, nil
}
