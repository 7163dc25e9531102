// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/apex/log"
	"github.com/bmatcuk/doublestar/v4"
)

// HashFiles returns the hex SHA-256 of the concatenated SHA-256 digests of
// every regular file under root matched by patterns. Patterns are processed in
// order, matches within a pattern sorted, and a file matched twice is counted
// once. Patterns cannot reach outside root. With no matches the result is
// the digest of empty input.
func HashFiles(root string, patterns []string) (string, error) {
	return hashFS(os.DirFS(root), patterns)
}

func hashFS(fsys fs.FS, patterns []string) (string, error) {
	result := sha256.New()
	seen := map[string]bool{}

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return "", fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return "", fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true

			info, err := fs.Stat(fsys, m)
			if err != nil {
				return "", fmt.Errorf("stat %s: %w", m, err)
			}
			if info.IsDir() {
				continue
			}

			sum, err := hashFile(fsys, m)
			if err != nil {
				return "", err
			}
			log.Debugf("hashed %s", m)
			result.Write(sum)
		}
	}

	return hex.EncodeToString(result.Sum(nil)), nil
}

func hashFile(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return h.Sum(nil), nil
}
