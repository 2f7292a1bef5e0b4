package scrape

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onvista/internal/instrument"
)

// Granularity selects the legacy chart range. The endpoint wants both the
// granularity name and its matching tab code.
type Granularity string

const (
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
	GranularityAll   Granularity = "all"
)

var granularityTabs = map[Granularity]string{
	GranularityWeek:  "T5",
	GranularityMonth: "M1",
	GranularityYear:  "J1",
	GranularityAll:   "MAX",
}

// Tab returns the chart endpoint's tab code for g.
func (g Granularity) Tab() (string, error) {
	tab, ok := granularityTabs[g]
	if !ok {
		return "", fmt.Errorf("scrape: unknown granularity %q", g)
	}
	return tab, nil
}

// ChartRowError reports a chart row that cannot be decoded: wrong arity or a
// negative timestamp delta that would make the series run backwards.
type ChartRowError struct {
	Row    int
	Reason string
}

func (e *ChartRowError) Error() string {
	return fmt.Sprintf("scrape: chart row %d: %s", e.Row, e.Reason)
}

// chartRowLen is the arity of one OHLCV row:
// [timestamp delta, open, high, low, close, volume].
const chartRowLen = 6

// repairJSONP turns the chart endpoint's callback payload into strict JSON.
// The upstream wraps a JSON-ish object in a function invocation, leaves the
// data key unquoted and trails structural noise after the row array.
func repairJSONP(raw string) (string, error) {
	_, body, ok := strings.Cut(raw, "(")
	if !ok {
		return "", fmt.Errorf("scrape: chart payload: no callback wrapper")
	}
	body = strings.ReplaceAll(body, ")", "")
	if !strings.Contains(body, `"data"`) {
		body = strings.Replace(body, "data", `"data"`, 1)
	}
	end := strings.Index(body, "]]")
	if end < 0 {
		return "", &instrument.FieldNotFoundError{Field: "data"}
	}
	return body[:end+2] + "}", nil
}

// DecodeChart parses a JSONP chart payload into quotes. Row timestamps are
// delta-encoded against a running base; the first row's delta is the
// absolute epoch. Non-negative deltas guarantee a non-decreasing series, so
// a negative delta fails the row instead of being silently accumulated.
func DecodeChart(payload []byte, g Granularity) ([]instrument.Quote, error) {
	repaired, err := repairJSONP(string(payload))
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Data [][]float64 `json:"data"`
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("scrape: decoding chart payload: %w", err)
	}

	quotes := make([]instrument.Quote, 0, len(parsed.Data))
	var timestamp float64
	for i, row := range parsed.Data {
		if len(row) != chartRowLen {
			return nil, &ChartRowError{Row: i, Reason: fmt.Sprintf("want %d columns, got %d", chartRowLen, len(row))}
		}
		delta := row[0]
		if delta < 0 {
			return nil, &ChartRowError{Row: i, Reason: fmt.Sprintf("negative timestamp delta %v", delta)}
		}
		timestamp += delta
		quotes = append(quotes, instrument.Quote{
			Resolution: instrument.Resolution(g),
			Timestamp:  time.Unix(int64(timestamp), 0).UTC(),
			Open:       row[1],
			High:       row[2],
			Low:        row[3],
			Close:      row[4],
			Volume:     row[5],
		})
	}
	return quotes, nil
}
