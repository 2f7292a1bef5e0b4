package transport

import (
	"context"
	"errors"
	"time"

	"onvista/internal/cachestore"
)

// CachedFetcher consults an on-disk response cache before fetching live.
// A hit younger than Validity is served from disk without touching the
// network; anything else triggers a live fetch whose result is stored for
// the next caller. Two concurrent misses both fetch; the loser's store
// collides and is dropped, which is fine because both fetched the same URL.
type CachedFetcher struct {
	Fetcher  Fetcher
	Cache    *cachestore.Store
	Validity time.Duration

	// Now is a clock hook for tests. Nil means time.Now.
	Now func() time.Time
}

func (c *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.Fetcher == nil {
		return nil, ErrNotConfigured
	}
	if c.Cache == nil || c.Validity <= 0 {
		return c.Fetcher.Fetch(ctx, url)
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	entry, err := c.Cache.Load(url)
	if err != nil {
		return nil, err
	}
	if entry != nil && now().Sub(entry.FetchedAt) <= c.Validity {
		return entry.Payload, nil
	}

	payload, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Store(url, payload); err != nil && !errors.Is(err, cachestore.ErrCollision) {
		return nil, err
	}
	return payload, nil
}
