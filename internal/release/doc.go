// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package release computes the next semantic version from commit history and
// publishes it as a tagged release.
package release
