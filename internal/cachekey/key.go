// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cachekey

import (
	"strings"
)

// Key is the composite cache key:
//
//	[Prefix-]Arch-Tool-Versions[0]-...-Versions[n]-Hash
type Key struct {
	// Prefix is the optional key version; bumping it invalidates every entry.
	Prefix   string
	Arch     string
	Tool     string
	Versions []string
	Hash     string
}

func (k Key) base() []string {
	var parts []string
	if k.Prefix != "" {
		parts = append(parts, k.Prefix)
	}
	return append(parts, k.Arch, k.Tool)
}

// String returns the exact key.
func (k Key) String() string {
	parts := append(k.base(), k.Versions...)
	return strings.Join(append(parts, k.Hash), "-")
}

// RestoreKeys returns prefixes of the exact key from most to least specific:
// first without the hash, then dropping one trailing version at a time, down
// to "[Prefix-]Arch-Tool-". Every entry ends with "-".
func (k Key) RestoreKeys() []string {
	keys := make([]string, 0, len(k.Versions)+1)
	for n := len(k.Versions); n >= 0; n-- {
		parts := append(k.base(), k.Versions[:n]...)
		keys = append(keys, strings.Join(parts, "-")+"-")
	}
	return keys
}
