// Package cachestore persists raw HTTP responses on disk, keyed by a hash of
// the request URL. Entries live at <dir>/<hash[:2]>/<hash[2:]> so a large
// cache shards across directories with filesystem-safe names.
package cachestore

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrCollision is returned by Store when an entry already exists at the
// derived location. The store is append-only: callers treat a collision as
// non-fatal, because the existing entry holds equivalent data.
var ErrCollision = errors.New("cachestore: entry already exists")

// Entry is one cached response.
type Entry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Payload   []byte    `json:"payload"`
}

// Store is an on-disk response cache. It takes no cross-process lock;
// concurrent writers may race on Store, which is benign under the
// append-only contract.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(url string) string {
	sum := md5.Sum([]byte(url))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(s.dir, hash[:2], hash[2:])
}

// Load returns the entry cached for url, or nil when none exists.
func (s *Store) Load(url string) (*Entry, error) {
	b, err := os.ReadFile(s.path(url))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cachestore: read entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("cachestore: decode entry: %w", err)
	}
	return &e, nil
}

// Store writes a new entry for url with the current time as fetch timestamp.
// An existing entry is never overwritten; Store reports ErrCollision instead.
func (s *Store) Store(url string, payload []byte) error {
	path := s.path(url)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cachestore: create shard dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrCollision, path)
	}
	if err != nil {
		return fmt.Errorf("cachestore: create entry: %w", err)
	}
	defer f.Close()

	e := Entry{FetchedAt: time.Now().UTC(), Payload: payload}
	if err := json.NewEncoder(f).Encode(e); err != nil {
		return fmt.Errorf("cachestore: write entry: %w", err)
	}
	return nil
}
