package badger

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"
)

// Config selects where the embedded store lives.
type Config struct {
	Dir      string
	InMemory bool
}

// DB owns a badgerhold store.
type DB struct {
	store *badgerhold.Store
}

// Open opens (or creates) the store. With InMemory set nothing touches disk.
func Open(cfg Config) (*DB, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil
	if cfg.InMemory {
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
	} else {
		if cfg.Dir == "" {
			return nil, fmt.Errorf("badger dir is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		options.Dir = cfg.Dir
		options.ValueDir = cfg.Dir
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &DB{store: store}, nil
}

// Store returns the underlying badgerhold store.
func (d *DB) Store() *badgerhold.Store {
	return d.store
}

func (d *DB) Close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
