package ioscratch

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/gnames/gnsys"
)

// Badger is an ephemeral Badger v4 key-value store. Its directory is
// removed by Close.
type Badger struct {
	dir string
	db  *badger.DB
}

// NewBadger creates a clean directory and opens Badger in it.
func NewBadger(dir string) (*Badger, error) {
	err := gnsys.MakeDir(dir)
	if err != nil {
		slog.Error("Cannot create scratch directory", "error", err, "dir", dir)
		return nil, err
	}

	err = gnsys.CleanDir(dir)
	if err != nil {
		slog.Error("Cannot clean scratch directory", "error", err, "dir", dir)
		return nil, err
	}

	options := badger.DefaultOptions(dir)
	options.Logger = nil // Disable badger's internal logging

	db, err := badger.Open(options)
	if err != nil {
		slog.Error("Cannot open scratch database", "error", err, "dir", dir)
		return nil, err
	}
	return &Badger{dir: dir, db: db}, nil
}

func (b *Badger) Put(_ context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var res []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		res, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, scratch.ErrNotFound
	}
	return res, err
}

func (b *Badger) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Keys iterates over keys only, values are not fetched.
func (b *Badger) Keys(_ context.Context, prefix string) ([]string, error) {
	var res []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			res = append(res, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return res, err
}

// Close closes the database and removes its directory.
func (b *Badger) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		slog.Error("Cannot close scratch database", "error", err)
		return err
	}
	return os.RemoveAll(b.dir)
}
