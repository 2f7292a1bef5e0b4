package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type API struct {
	BaseURL           string `json:"base_url"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	UserAgent         string `json:"user_agent"`
}

type Scrape struct {
	PageURL         string `json:"page_url"`
	ChartURL        string `json:"chart_url"`
	DefaultExchange string `json:"default_exchange"`
}

type Cache struct {
	Dir          string `json:"dir"`
	ValidityDays int    `json:"validity_days"`
}

type Store struct {
	Dir string `json:"dir"`
}

type Config struct {
	API    API    `json:"api"`
	Scrape Scrape `json:"scrape"`
	Cache  Cache  `json:"cache"`
	Store  Store  `json:"store"`
}

func Default() Config {
	return Config{
		API: API{
			BaseURL:           "https://api.onvista.de/api/v1",
			RequestTimeoutSec: 15,
			UserAgent:         "onvista-client/1.0",
		},
		Scrape: Scrape{
			PageURL:         "https://www.onvista.de/aktien",
			ChartURL:        "https://chartdata.onvista.de/minimal/",
			DefaultExchange: "GER",
		},
		Cache: Cache{
			Dir:          "cache",
			ValidityDays: 1,
		},
		Store: Store{Dir: "instruments"},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ONVISTA_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ONVISTA_USER_AGENT"); v != "" {
		cfg.API.UserAgent = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.API.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("ONVISTA_PAGE_URL"); v != "" {
		cfg.Scrape.PageURL = v
	}
	if v := os.Getenv("ONVISTA_CHART_URL"); v != "" {
		cfg.Scrape.ChartURL = v
	}
	if v := os.Getenv("DEFAULT_EXCHANGE"); v != "" {
		cfg.Scrape.DefaultExchange = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("CACHE_VALIDITY_DAYS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Cache.ValidityDays = x
		}
	}
	if v := os.Getenv("STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
}
