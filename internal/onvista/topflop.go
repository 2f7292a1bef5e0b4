package onvista

import (
	"context"
	"encoding/json"
	"fmt"

	"onvista/internal/instrument"
)

// topFlopResponse is the shape of the index top/flop endpoint.
type topFlopResponse struct {
	TopList  []map[string]any `json:"topList"`
	FlopList []map[string]any `json:"flopList"`
}

// TopFlop fetches the top and flop constituents of an index, normalized
// into instruments. Useful as a seed list for crawling.
func (c *Client) TopFlop(ctx context.Context, indexUID string) ([]*instrument.Instrument, error) {
	url := fmt.Sprintf("%s/indices/%s/top_flop?perPage=50", c.baseURL, indexUID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var res topFlopResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding top_flop response: %w", err)
	}

	entries := append(res.TopList, res.FlopList...)
	instruments := make([]*instrument.Instrument, 0, len(entries))
	for _, entry := range entries {
		obj, err := child(entry, "instrument")
		if err != nil {
			return nil, fmt.Errorf("normalizing constituent: %w", err)
		}
		inst, err := instrumentFromPayload(obj)
		if err != nil {
			return nil, fmt.Errorf("normalizing constituent: %w", err)
		}
		instruments = append(instruments, inst)
	}
	return instruments, nil
}
