// Command crawl pulls an index's top/flop constituents and fetches detail
// plus a quote series for each of them concurrently. Handy for measuring
// how the client behaves over a shared connection pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"onvista/internal/config"
	"onvista/internal/httpx"
	"onvista/internal/onvista"
)

// DAX is index uid 20735 upstream.
const defaultIndexUID = "20735"

func main() {
	var indexUID string
	var concurrency int
	var configPath string

	flag.StringVar(&indexUID, "index", defaultIndexUID, "index uid to crawl")
	flag.IntVar(&concurrency, "concurrency", 8, "max concurrent instrument fetches")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	httpClient := httpx.New(time.Duration(cfg.API.RequestTimeoutSec) * time.Second)
	httpClient.UserAgent = cfg.API.UserAgent

	client, err := onvista.NewClient(
		onvista.WithBaseURL(cfg.API.BaseURL),
		onvista.WithHTTPClient(httpClient.HTTP),
		onvista.WithHeader(http.Header{"User-Agent": []string{cfg.API.UserAgent}}),
	)
	if err != nil {
		log.Fatal("client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	instruments, err := client.TopFlop(ctx, indexUID)
	if err != nil {
		log.Fatal("top_flop", zap.String("index", indexUID), zap.Error(err))
	}
	log.Info("constituents", zap.String("index", indexUID), zap.Int("count", len(instruments)))

	var totalQuotes atomic.Int64
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, inst := range instruments {
		inst := inst
		g.Go(func() error {
			if err := client.FetchDetail(gctx, inst); err != nil {
				return fmt.Errorf("%s: %w", inst.ID(), err)
			}
			quotes, err := client.FetchQuotes(gctx, inst, onvista.QuoteRequest{})
			if err != nil {
				return fmt.Errorf("%s: %w", inst.ID(), err)
			}
			totalQuotes.Add(int64(len(quotes)))
			log.Debug("crawled", zap.String("id", inst.ID()), zap.Int("quotes", len(quotes)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("crawl", zap.Error(err))
	}

	elapsed := time.Since(started)
	log.Info("done",
		zap.Int("instruments", len(instruments)),
		zap.Int64("quotes", totalQuotes.Load()),
		zap.Duration("elapsed", elapsed),
	)
}
