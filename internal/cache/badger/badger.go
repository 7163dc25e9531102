// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package badger is a cache.Backend backed by an embedded BadgerDB. It suits
// self-hosted runners whose work directory survives between jobs.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/staranto/cikit/internal/cache"
)

var keyPrefix = []byte("plt/")

type Backend struct {
	DB   *badger.DB
	path string
}

// Open opens (creating if needed) a database at path. An empty path opens an
// in-memory database.
func Open(path string) (*Backend, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil { //nolint:mnd
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&logger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Backend{DB: db, path: path}, nil
}

func (b *Backend) Close() error { return b.DB.Close() }

func (b *Backend) String() string {
	if b.path == "" {
		return "badger:memory"
	}
	return "badger:" + b.path
}

// Lookup on a prefix returns the key committed last, using Badger's commit
// version as the clock.
func (b *Backend) Lookup(_ context.Context, key string, prefix bool) (string, bool, error) {
	var (
		match string
		found bool
	)
	err := b.DB.View(func(txn *badger.Txn) error {
		if !prefix {
			_, err := txn.Get(dbKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			match, found = key, true
			return nil
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = dbKey(key)
		it := txn.NewIterator(opts)
		defer it.Close()

		var newest uint64
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if !found || item.Version() > newest {
				match = string(bytes.TrimPrefix(item.KeyCopy(nil), keyPrefix))
				newest, found = item.Version(), true
			}
		}
		return nil
	})
	return match, found, err
}

func (b *Backend) Open(_ context.Context, key string) (io.ReadCloser, error) {
	var data []byte
	err := b.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) Put(_ context.Context, key string, r io.ReadSeeker, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return b.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), data)
	})
}

func dbKey(key string) []byte {
	return append(append([]byte{}, keyPrefix...), key...)
}

// logger routes Badger's internal logging to apex/log at debug level, except
// errors.
type logger struct{}

func (l *logger) Errorf(format string, args ...interface{}) {
	log.Errorf("badger: "+format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	log.Debugf("badger: "+format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	log.Debugf("badger: "+format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	log.Debugf("badger: "+format, args...)
}
