// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package commit parses conventional-commit messages and classifies them into
// semantic version bump levels.
package commit
