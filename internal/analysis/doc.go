// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package analysis wraps a static analysis tool whose expensive first step
// (building the PLT) is cached between CI runs. The cache key comes from the
// toolchain fingerprint and a hash of the lockfiles; on a miss the build step
// runs and its output is saved. The final analysis command always runs.
package analysis
