package onvista

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"onvista/internal/instrument"
)

// snapshotResponse is the outer shape of the instrument snapshot endpoint.
type snapshotResponse struct {
	Instrument map[string]any `json:"instrument"`
	Quote      map[string]any `json:"quote"`
	QuoteList  struct {
		List []map[string]any `json:"list"`
	} `json:"quoteList"`
}

// quoteFields names the money and pieces fields per instrument category.
// The upstream's stock payloads and everything-else payloads disagree on the
// names; the category decides, not trial-and-error lookups.
type quoteFields struct {
	Money  string
	Pieces string
}

func quoteFieldsFor(entityType string) quoteFields {
	if strings.EqualFold(entityType, "STOCK") {
		return quoteFields{Money: "money", Pieces: "volume"}
	}
	return quoteFields{Money: "totalMoney", Pieces: "volumeBid"}
}

// typePath maps an entity type to its snapshot path segment, e.g.
// STOCK -> stocks. Unresolved instruments are assumed to be stocks.
func typePath(entityType string) string {
	if entityType == "" {
		return "stocks"
	}
	return strings.ToLower(entityType) + "s"
}

// FetchDetailISIN resolves a bare identifier: it constructs a new instrument
// and runs a detail fetch against it.
func (c *Client) FetchDetailISIN(ctx context.Context, isin string) (*instrument.Instrument, error) {
	inst := instrument.New(isin)
	if err := c.FetchDetail(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// FetchDetail fetches the snapshot endpoint for inst and merges the result
// in place: metadata, the notation list and, when present, the embedded
// latest quote. After a successful fetch the notation set is non-empty.
func (c *Client) FetchDetail(ctx context.Context, inst *instrument.Instrument) error {
	if inst.ISIN == "" {
		return &instrument.FieldNotFoundError{Field: "isin"}
	}
	url := fmt.Sprintf("%s/%s/ISIN:%s/snapshot", c.baseURL, typePath(inst.Type), inst.ISIN)

	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	var snap snapshotResponse
	if err := json.Unmarshal(body, &snap); err != nil {
		return fmt.Errorf("decoding snapshot response: %w", err)
	}
	if snap.Instrument == nil {
		return &instrument.FieldNotFoundError{Field: "instrument"}
	}

	parsed, err := instrumentFromPayload(snap.Instrument)
	if err != nil {
		return fmt.Errorf("normalizing snapshot: %w", err)
	}
	mergeDetail(inst, parsed)

	for _, entry := range snap.QuoteList.List {
		n, err := notationFromPayload(entry)
		if err != nil {
			return fmt.Errorf("normalizing notation: %w", err)
		}
		inst.AddNotation(n)
	}
	if len(inst.Notations) == 0 {
		return &instrument.FieldNotFoundError{Field: "quoteList"}
	}

	if len(snap.Quote) > 0 {
		q, err := quoteFromPayload(snap.Quote, inst.ID(), inst.Type)
		if err != nil {
			return fmt.Errorf("normalizing snapshot quote: %w", err)
		}
		inst.Quote = q
	}

	if v, ok := snap.Instrument["expires"]; ok {
		if ts, err := parseAPITime(v); err == nil {
			inst.ExpiresAt = ts
		}
	}
	inst.UpdatedAt = c.now().UTC()
	return nil
}

// mergeDetail copies freshly parsed metadata onto inst without disturbing
// its identity.
func mergeDetail(inst, parsed *instrument.Instrument) {
	inst.Name = parsed.Name
	if parsed.ISIN != "" {
		inst.ISIN = parsed.ISIN
	}
	if parsed.UID != "" {
		inst.UID = parsed.UID
	}
	if parsed.Type != "" {
		inst.Type = parsed.Type
	}
	if parsed.Symbol != "" {
		inst.Symbol = parsed.Symbol
	}
	if parsed.WKN != "" {
		inst.WKN = parsed.WKN
	}
	if parsed.Sector != "" {
		inst.Sector = parsed.Sector
	}
	if parsed.URL != "" {
		inst.URL = parsed.URL
	}
}

// notationFromPayload reads one quoteList entry into a notation.
func notationFromPayload(entry map[string]any) (instrument.Notation, error) {
	market, err := child(entry, "market")
	if err != nil {
		return instrument.Notation{}, err
	}
	name, err := field[string](market, "name")
	if err != nil {
		return instrument.Notation{}, err
	}
	id, err := field[float64](market, "idNotation")
	if err != nil {
		return instrument.Notation{}, err
	}
	code, _ := optField[string](market, "codeExchange")
	if code == "" {
		code = instrument.ExchangeCode(name)
	}
	return instrument.Notation{
		ID:     int(id),
		Market: instrument.Market{Name: name, Code: code},
	}, nil
}

// quoteFromPayload normalizes a snapshot quote object. Money and pieces
// field names come from the per-category table.
func quoteFromPayload(obj map[string]any, instrumentID, entityType string) (*instrument.Quote, error) {
	open, err := field[float64](obj, "first")
	if err != nil {
		return nil, err
	}
	high, err := field[float64](obj, "high")
	if err != nil {
		return nil, err
	}
	low, err := field[float64](obj, "low")
	if err != nil {
		return nil, err
	}
	last, err := field[float64](obj, "last")
	if err != nil {
		return nil, err
	}
	tsRaw, ok := obj["datetimeLast"]
	if !ok || tsRaw == nil {
		return nil, &instrument.FieldNotFoundError{Field: "datetimeLast"}
	}
	ts, err := parseAPITime(tsRaw)
	if err != nil {
		return nil, err
	}

	names := quoteFieldsFor(entityType)
	money, _ := optField[float64](obj, names.Money)
	pieces, _ := optField[float64](obj, names.Pieces)

	resolution := instrument.Minute
	if r, ok := optField[string](obj, "resolution"); ok {
		resolution = instrument.Resolution(r)
	}

	return &instrument.Quote{
		InstrumentID: instrumentID,
		Resolution:   resolution,
		Timestamp:    ts,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        last,
		Volume:       money,
		Pieces:       int64(pieces),
	}, nil
}
