// Command fetch is a one-shot client: search for an instrument or resolve
// an ISIN, fetch its detail and a quote series, and print the result as
// JSON. Resolved instruments are persisted to the local store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"onvista/internal/cachestore"
	"onvista/internal/config"
	"onvista/internal/httpx"
	"onvista/internal/instrument"
	"onvista/internal/onvista"
	"onvista/internal/scrape"
	"onvista/internal/store"
	"onvista/internal/transport"
)

func main() {
	var query string
	var isin string
	var resolution string
	var days int
	var noStore bool
	var legacy bool
	var configPath string

	flag.StringVar(&query, "q", "", "search text (e.g. \"VW\")")
	flag.StringVar(&isin, "isin", "", "resolve a single ISIN instead of searching")
	flag.StringVar(&resolution, "resolution", string(instrument.FifteenMinutes), "quote series resolution")
	flag.IntVar(&days, "days", 7, "how many days of history to request")
	flag.BoolVar(&noStore, "no-store", false, "skip persisting the instrument")
	flag.BoolVar(&legacy, "legacy", false, "scrape the HTML pages through the disk cache instead of the JSON API (needs -isin)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if query == "" && isin == "" {
		log.Fatal("need -q or -isin")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	httpClient := httpx.New(time.Duration(cfg.API.RequestTimeoutSec) * time.Second)
	httpClient.UserAgent = cfg.API.UserAgent

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.API.RequestTimeoutSec)*time.Second*4)
	defer cancel()

	if legacy {
		if isin == "" {
			log.Fatal("legacy mode needs -isin")
		}
		inst, quotes, err := fetchLegacy(ctx, cfg, httpClient, isin)
		if err != nil {
			log.Fatal("legacy fetch", zap.String("isin", isin), zap.Error(err))
		}
		log.Info("quotes", zap.String("id", inst.ID()), zap.Int("count", len(quotes)), zap.String("state", inst.State().String()))
		finish(log, cfg, inst, quotes, noStore)
		return
	}

	client, err := onvista.NewClient(
		onvista.WithBaseURL(cfg.API.BaseURL),
		onvista.WithHTTPClient(httpClient.HTTP),
		onvista.WithHeader(http.Header{"User-Agent": []string{cfg.API.UserAgent}}),
		onvista.WithLogger(log),
	)
	if err != nil {
		log.Fatal("client", zap.Error(err))
	}

	var inst *instrument.Instrument
	if isin != "" {
		inst, err = client.FetchDetailISIN(ctx, isin)
		if err != nil {
			log.Fatal("detail", zap.String("isin", isin), zap.Error(err))
		}
	} else {
		hits, err := client.Search(ctx, query)
		if err != nil {
			log.Fatal("search", zap.String("query", query), zap.Error(err))
		}
		if len(hits) == 0 {
			log.Fatal("no instruments found", zap.String("query", query))
		}
		inst = hits[0]
		log.Info("search", zap.String("query", query), zap.Int("hits", len(hits)), zap.String("picked", inst.Name))
		if err := client.FetchDetail(ctx, inst); err != nil {
			log.Fatal("detail", zap.String("id", inst.ID()), zap.Error(err))
		}
	}

	quotes, err := client.FetchQuotes(ctx, inst, onvista.QuoteRequest{
		Start:      time.Now().AddDate(0, 0, -days),
		Resolution: instrument.Resolution(resolution),
	})
	if err != nil {
		log.Fatal("quotes", zap.String("id", inst.ID()), zap.Error(err))
	}
	log.Info("quotes", zap.String("id", inst.ID()), zap.Int("count", len(quotes)), zap.String("state", inst.State().String()))

	finish(log, cfg, inst, quotes, noStore)
}

// fetchLegacy resolves an ISIN through the HTML scrape flavor, with page and
// chart responses served from the disk cache when fresh enough.
func fetchLegacy(ctx context.Context, cfg config.Config, httpClient *httpx.Client, isin string) (*instrument.Instrument, []instrument.Quote, error) {
	fetcher := &transport.CachedFetcher{
		Fetcher:  &transport.HTTPFetcher{Client: httpClient},
		Cache:    cachestore.New(cfg.Cache.Dir),
		Validity: time.Duration(cfg.Cache.ValidityDays) * 24 * time.Hour,
	}
	client := scrape.New(scrape.Config{
		PageURL:         cfg.Scrape.PageURL,
		ChartURL:        cfg.Scrape.ChartURL,
		DefaultExchange: cfg.Scrape.DefaultExchange,
	}, fetcher)

	inst, err := client.Instrument(ctx, isin)
	if err != nil {
		return nil, nil, err
	}
	quotes, err := client.Quotes(ctx, inst, scrape.GranularityWeek, nil)
	if err != nil {
		return nil, nil, err
	}
	return inst, quotes, nil
}

// finish persists the instrument (unless told not to) and prints it together
// with the head of the quote series.
func finish(log *zap.Logger, cfg config.Config, inst *instrument.Instrument, quotes []instrument.Quote, noStore bool) {
	if !noStore {
		db, err := store.Open(cfg.Store.Dir)
		if err != nil {
			log.Fatal("store", zap.Error(err))
		}
		defer db.Close()
		if err := db.Put(inst); err != nil {
			log.Fatal("store put", zap.Error(err))
		}
		if got, err := db.Get(inst.ID()); err != nil || got.ID() != inst.ID() {
			if err == nil {
				err = errors.New("identifier mismatch after round-trip")
			}
			log.Fatal("store verify", zap.Error(err))
		}
	}

	n := len(quotes)
	if n > 10 {
		n = 10
	}
	out := struct {
		Instrument *instrument.Instrument `json:"instrument"`
		Quotes     []instrument.Quote     `json:"quotes"`
	}{Instrument: inst, Quotes: quotes[:n]}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
