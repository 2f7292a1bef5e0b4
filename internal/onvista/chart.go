package onvista

import (
	"context"
	"encoding/json"
	"fmt"
	urlpkg "net/url"
	"strconv"
	"time"

	"onvista/internal/instrument"
)

// Default quote window relative to now.
const (
	DefaultLookback  = 7 * 24 * time.Hour
	DefaultLookahead = 24 * time.Hour
)

const dateLayout = "2006-01-02"

// QuoteRequest selects the series to fetch. Zero values take defaults:
// Start = now-7d, End = now+1d, Resolution = 15m, Notation = the
// instrument's first notation.
type QuoteRequest struct {
	Start      time.Time
	End        time.Time
	Resolution instrument.Resolution
	Notation   *instrument.Notation
}

// chartResponse is the columnar shape of the chart history endpoint. The
// arrays are zipped row-wise into quotes.
type chartResponse struct {
	DatetimeLast []int64   `json:"datetimeLast"`
	First        []float64 `json:"first"`
	Last         []float64 `json:"last"`
	High         []float64 `json:"high"`
	Low          []float64 `json:"low"`
	Volume       []float64 `json:"volume"`
	NumberPrices []float64 `json:"numberPrices"`
}

// FetchQuotes retrieves a historical quote series for inst. An instrument
// without notations triggers exactly one detail fetch first. An endpoint
// that yields no rows produces an empty slice, not an error. Rows come back
// in upstream order.
func (c *Client) FetchQuotes(ctx context.Context, inst *instrument.Instrument, req QuoteRequest) ([]instrument.Quote, error) {
	if req.Resolution == "" {
		req.Resolution = instrument.FifteenMinutes
	}
	now := c.now()
	if req.Start.IsZero() {
		req.Start = now.Add(-DefaultLookback)
	}
	if req.End.IsZero() {
		req.End = now.Add(DefaultLookahead)
	}

	notation := req.Notation
	if notation == nil {
		n, ok := inst.Notation()
		if !ok {
			if err := c.FetchDetail(ctx, inst); err != nil {
				return nil, err
			}
			if n, ok = inst.Notation(); !ok {
				return nil, &instrument.FieldNotFoundError{Field: "notations"}
			}
		}
		notation = &n
	}
	if inst.UID == "" {
		return nil, &instrument.FieldNotFoundError{Field: "entityValue"}
	}
	entityType := inst.Type
	if entityType == "" {
		entityType = "STOCK"
	}

	query := urlpkg.Values{
		"startDate":  {req.Start.Format(dateLayout)},
		"endDate":    {req.End.Format(dateLayout)},
		"resolution": {string(req.Resolution)},
		"idNotation": {strconv.Itoa(notation.ID)},
	}
	url := fmt.Sprintf("%s/instruments/%s/%s/chart_history?%s", c.baseURL, entityType, inst.UID, query.Encode())

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decoding chart response: %w", err)
	}

	n := len(chart.DatetimeLast)
	if len(chart.First) != n || len(chart.Last) != n || len(chart.High) != n || len(chart.Low) != n {
		return nil, fmt.Errorf("chart response: column lengths disagree")
	}

	quotes := make([]instrument.Quote, 0, n)
	for i := 0; i < n; i++ {
		q := instrument.Quote{
			InstrumentID: inst.ID(),
			Resolution:   req.Resolution,
			Timestamp:    time.Unix(chart.DatetimeLast[i], 0).UTC(),
			Open:         chart.First[i],
			High:         chart.High[i],
			Low:          chart.Low[i],
			Close:        chart.Last[i],
		}
		if i < len(chart.Volume) {
			q.Volume = chart.Volume[i]
		}
		if i < len(chart.NumberPrices) {
			q.Pieces = int64(chart.NumberPrices[i])
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
