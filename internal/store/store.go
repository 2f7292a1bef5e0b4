// Package store persists normalized instruments in a local badger database.
// A stored instrument round-trips every field, so reconstructing one needs
// no network access.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"onvista/internal/instrument"
)

// ErrNotFound is returned by Get when no instrument is stored under the
// requested identifier.
var ErrNotFound = errors.New("store: instrument not found")

var keyPrefix = []byte("instrument:")

// Store is a keyed on-disk instrument store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(id string) []byte {
	return append(append([]byte{}, keyPrefix...), id...)
}

// Put stores inst under its identifier, overwriting any previous state.
func (s *Store) Put(inst *instrument.Instrument) error {
	id := inst.ID()
	if id == "" {
		return &instrument.FieldNotFoundError{Field: "isin"}
	}
	value, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), value)
	})
}

// Get returns the instrument stored under id.
func (s *Store) Get(id string) (*instrument.Instrument, error) {
	var inst instrument.Instrument
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &inst)
		})
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// All returns every stored instrument in unspecified order.
func (s *Store) All() ([]*instrument.Instrument, error) {
	var instruments []*instrument.Instrument
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			var inst instrument.Instrument
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &inst)
			})
			if err != nil {
				return err
			}
			instruments = append(instruments, &inst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instruments, nil
}
