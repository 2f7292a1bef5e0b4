package instrument

import (
	"time"
)

// Market is a trading venue. Markets are shared value types: every
// instrument listed on Xetra carries the same Market.
type Market struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Notation identifies one listing of an instrument on a trading venue.
// The venue id is what the chart endpoints key on.
type Notation struct {
	ID     int    `json:"id"`
	Market Market `json:"market"`
}

// Resolution is the time-bucket granularity of a quote series.
type Resolution string

const (
	Minute         Resolution = "1m"
	FifteenMinutes Resolution = "15m"
	Hour           Resolution = "1h"
	Day            Resolution = "1D"
	Week           Resolution = "1W"
	Month          Resolution = "1M"
)

// Quote is one OHLCV bucket. Quotes are immutable once constructed; a new
// fetch produces a new series. InstrumentID refers back to the owning
// instrument by identifier, not by reference.
type Quote struct {
	InstrumentID string     `json:"instrument_id"`
	Resolution   Resolution `json:"resolution"`
	Timestamp    time.Time  `json:"timestamp"`
	Open         float64    `json:"open"`
	High         float64    `json:"high"`
	Low          float64    `json:"low"`
	Close        float64    `json:"close"`
	Volume       float64    `json:"volume"`
	Pieces       int64      `json:"pieces"`
}

// State describes how far an instrument has been resolved. Transitions only
// move forward: Unresolved -> Detailed -> Quoted.
type State int

const (
	Unresolved State = iota
	Detailed
	Quoted
)

func (s State) String() string {
	switch s {
	case Detailed:
		return "detailed"
	case Quoted:
		return "quoted"
	default:
		return "unresolved"
	}
}

// Instrument is a financial instrument as known to the provider. It is
// created from a search hit or a bare identifier and mutated in place by
// detail and quote fetches.
type Instrument struct {
	ISIN      string     `json:"isin"`
	UID       string     `json:"uid"`
	Name      string     `json:"name"`
	Symbol    string     `json:"symbol"`
	Type      string     `json:"type"`
	WKN       string     `json:"wkn"`
	Sector    string     `json:"sector"`
	URL       string     `json:"url"`
	Notations []Notation `json:"notations"`
	Quote     *Quote     `json:"quote,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// New returns an unresolved instrument known only by its ISIN.
func New(isin string) *Instrument {
	return &Instrument{ISIN: isin}
}

// ID returns the stable identifier: the ISIN, or the provider uid when the
// upstream record carries no ISIN.
func (i *Instrument) ID() string {
	if i.ISIN != "" {
		return i.ISIN
	}
	return i.UID
}

// State derives the lifecycle state from the populated fields.
func (i *Instrument) State() State {
	switch {
	case i.Quote != nil:
		return Quoted
	case i.Name != "" && len(i.Notations) > 0:
		return Detailed
	default:
		return Unresolved
	}
}

// AddNotation appends n unless a notation with the same venue id is already
// present. Venue ids are unique within an instrument's notation set.
func (i *Instrument) AddNotation(n Notation) {
	for _, have := range i.Notations {
		if have.ID == n.ID {
			return
		}
	}
	i.Notations = append(i.Notations, n)
}

// Notation returns the first known notation, if any.
func (i *Instrument) Notation() (Notation, bool) {
	if len(i.Notations) == 0 {
		return Notation{}, false
	}
	return i.Notations[0], true
}
