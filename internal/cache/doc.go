// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache saves and restores directory snapshots under string keys.
// Snapshots are zstd compressed tarballs kept by a pluggable Backend; a
// restore tries the exact key first and then successively broader key
// prefixes.
package cache
