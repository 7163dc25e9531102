// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

// ErrNotFound is returned by Backend.Open for a missing key.
var ErrNotFound = errors.New("cache entry not found")

// Backend stores opaque archives by key.
type Backend interface {
	// Lookup returns key itself if it exists (prefix false), or the most
	// recently stored key starting with key (prefix true). ok is false on a
	// miss.
	Lookup(ctx context.Context, key string, prefix bool) (match string, ok bool, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Put stores r under key. r is seekable and size is its length.
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64) error
	String() string
}

// Store archives paths relative to Root into a Backend.
type Store struct {
	Backend Backend
	// Root is the directory paths are resolved against and restored into.
	Root string
}

// Restore looks up key, then each fallback prefix in order, and unpacks the
// first hit into Root. It returns the matched key, or "" on a total miss,
// which is not an error. paths is accepted for symmetry with Save; the archive
// carries its own file list.
func (s *Store) Restore(ctx context.Context, paths []string, key string, fallbacks []string) (string, error) {
	match, err := Search(ctx, s.Backend.Lookup, key, fallbacks)
	if err != nil {
		return "", err
	}
	if match == "" {
		return "", nil
	}

	rc, err := s.Backend.Open(ctx, match)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", match, err)
	}
	defer rc.Close()

	counter := &countingReader{r: rc}
	n, err := Extract(counter, s.Root)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", match, err)
	}
	log.WithFields(log.Fields{
		"backend": s.Backend.String(),
		"files":   n,
		"size":    humanize.Bytes(uint64(counter.n)),
	}).Debugf("restored %s", match)

	return match, nil
}

// Save archives the files matched by paths and stores them under key. It
// returns the compressed size.
func (s *Store) Save(ctx context.Context, paths []string, key string) (int64, error) {
	tmp, err := os.CreateTemp("", "cikit-cache-*.tar.zst")
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	n, err := Archive(tmp, s.Root, paths)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("no files matched %v", paths)
	}

	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	if err := s.Backend.Put(ctx, key, tmp, size); err != nil {
		return 0, fmt.Errorf("failed to store %s in %s: %w", key, s.Backend, err)
	}
	log.WithFields(log.Fields{
		"backend": s.Backend.String(),
		"files":   n,
		"size":    humanize.Bytes(uint64(size)),
	}).Debugf("saved %s", key)

	return size, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
