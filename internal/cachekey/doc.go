// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cachekey derives deterministic cache keys from a toolchain
// fingerprint and the content of lockfiles, plus the less specific restore
// keys used for warm starts.
package cachekey
