// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package local is a cache.Backend that keeps archives in a directory on the
// local filesystem.
package local

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/cikit/internal/cache"
)

const (
	archiveExt = ".tar.zst"
	keyExt     = ".key"
)

// Backend stores each entry as <md5(key)>.tar.zst with the clear-text key in
// a sibling .key file, so prefix lookups do not need to decode names.
type Backend struct {
	Dir string
}

// Dir resolves the base cache directory.
// Precedence:
//  1. CIKIT_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/cikit
//
// Returns ("", false) if a base cannot be resolved.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("CIKIT_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "cikit"), true
	}
	return "", false
}

// New returns a Backend rooted at dir, or at Dir() when dir is empty. The
// directory is created if needed.
func New(dir string) (*Backend, error) {
	if dir == "" {
		base, ok := Dir()
		if !ok {
			return nil, errors.New("unable to resolve a cache directory")
		}
		dir = base
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Backend{Dir: dir}, nil
}

func (b *Backend) String() string { return "local:" + b.Dir }

func (b *Backend) Lookup(_ context.Context, key string, prefix bool) (string, bool, error) {
	if !prefix {
		if _, err := os.Stat(b.path(key, archiveExt)); err == nil {
			return key, true, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false, err
		}
		return "", false, nil
	}

	keys, err := filepath.Glob(filepath.Join(b.Dir, "*"+keyExt))
	if err != nil {
		return "", false, err
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, kp := range keys {
		raw, err := os.ReadFile(kp)
		if err != nil {
			continue
		}
		name := string(bytes.TrimSpace(raw))
		if !strings.HasPrefix(name, key) {
			continue
		}
		info, err := os.Stat(strings.TrimSuffix(kp, keyExt) + archiveExt)
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = name, info.ModTime()
		}
	}

	return best, best != "", nil
}

func (b *Backend) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(b.path(key, archiveExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cache.ErrNotFound
	}
	return f, err
}

// Put writes to a temporary file and renames it into place so a concurrent
// reader never sees a partial archive.
func (b *Backend) Put(_ context.Context, key string, r io.ReadSeeker, _ int64) error {
	tmp, err := os.CreateTemp(b.Dir, ".put-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.WriteFile(b.path(key, keyExt), []byte(key+"\n"), 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return os.Rename(tmp.Name(), b.path(key, archiveExt))
}

// Purge removes entries older than the provided number of hours.
// If hours <= 0 it is a no-op.
func (b *Backend) Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache purging disabled")
		return nil
	}
	maxAge := time.Duration(hours) * time.Hour
	if err := filepath.Walk(b.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

func (b *Backend) path(key, ext string) string {
	return filepath.Join(b.Dir, encodeKey(key)+ext)
}

func encodeKey(key string) string {
	sum := md5.Sum([]byte(key)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
