package scrape

import (
	"context"
	"fmt"
	urlpkg "net/url"
	"strconv"
	"strings"
	"time"

	"onvista/internal/instrument"
	"onvista/internal/transport"
)

// Config controls the scrape client. Zero values take the provider's
// defaults.
type Config struct {
	PageURL         string // base URL of instrument detail pages
	ChartURL        string // base URL of the JSONP chart endpoint
	DefaultExchange string // exchange code for venues missing from the table
}

// Client is the legacy facade: detail from HTML pages, quotes from the
// JSONP chart endpoint. It fetches through a transport.Fetcher, normally a
// disk-cached one.
type Client struct {
	cfg     Config
	fetcher transport.Fetcher
}

func New(cfg Config, fetcher transport.Fetcher) *Client {
	if cfg.PageURL == "" {
		cfg.PageURL = "https://www.onvista.de/aktien"
	}
	if cfg.ChartURL == "" {
		cfg.ChartURL = "https://chartdata.onvista.de/minimal/"
	}
	if cfg.DefaultExchange == "" {
		cfg.DefaultExchange = instrument.DefaultExchange
	}
	return &Client{cfg: cfg, fetcher: fetcher}
}

// Instrument resolves an ISIN into a fresh instrument via a page fetch.
func (c *Client) Instrument(ctx context.Context, isin string) (*instrument.Instrument, error) {
	inst := instrument.New(isin)
	if err := c.Refresh(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Refresh re-scrapes the detail page for inst and merges all fields in
// place, rebuilding the notation set.
func (c *Client) Refresh(ctx context.Context, inst *instrument.Instrument) error {
	if c.fetcher == nil {
		return transport.ErrNotConfigured
	}
	if inst.ISIN == "" {
		return &instrument.FieldNotFoundError{Field: "isin"}
	}
	url := fmt.Sprintf("%s/%s", c.cfg.PageURL, inst.ISIN)
	payload, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	page, err := ParsePage(payload)
	if err != nil {
		return fmt.Errorf("scrape: %s: %w", inst.ISIN, err)
	}

	inst.Name = page.Name
	inst.Symbol = page.Symbol
	inst.WKN = page.WKN
	inst.Type = page.Type
	inst.Sector = page.Sector
	inst.URL = url
	inst.Notations = nil
	for i, id := range page.NotationIDs {
		venueID, err := strconv.Atoi(id)
		if err != nil {
			return fmt.Errorf("scrape: notation id %q: %w", id, err)
		}
		name := page.Markets[i]
		inst.AddNotation(instrument.Notation{
			ID:     venueID,
			Market: instrument.Market{Name: name, Code: instrument.ExchangeCodeOr(name, c.cfg.DefaultExchange)},
		})
	}
	inst.UpdatedAt = time.Now().UTC()
	return nil
}

// Quotes fetches and decodes a quote series for one notation. A nil
// notation selects the instrument's first; an instrument without notations
// is refreshed once beforehand.
func (c *Client) Quotes(ctx context.Context, inst *instrument.Instrument, g Granularity, notation *instrument.Notation) ([]instrument.Quote, error) {
	if c.fetcher == nil {
		return nil, transport.ErrNotConfigured
	}
	tab, err := g.Tab()
	if err != nil {
		return nil, err
	}
	if notation == nil {
		n, ok := inst.Notation()
		if !ok {
			if err := c.Refresh(ctx, inst); err != nil {
				return nil, err
			}
			if n, ok = inst.Notation(); !ok {
				return nil, &instrument.FieldNotFoundError{Field: "notations"}
			}
		}
		notation = &n
	}

	id := strconv.Itoa(notation.ID)
	query := urlpkg.Values{
		"exchange":    {notation.Market.Code},
		"id":          {id},
		"assetType":   {"Stock"},
		"quality":     {"realtime"},
		"callback":    {"getChart" + id + string(g)},
		"granularity": {string(g)},
		"tab":         {tab},
	}
	url := c.cfg.ChartURL + "?" + query.Encode()
	payload, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	// The endpoint echoes the granularity back; a payload without it is an
	// answer to some other question.
	if !strings.Contains(string(payload), string(g)) {
		return nil, fmt.Errorf("scrape: granularity %q not in chart response", g)
	}

	quotes, err := DecodeChart(payload, g)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		quotes[i].InstrumentID = inst.ID()
	}
	return quotes, nil
}
