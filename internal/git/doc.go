// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package git wraps the few git CLI queries the release flow needs: locating
// the repository root, listing tags and reading commit history.
package git
