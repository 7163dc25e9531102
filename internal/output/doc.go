// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output emits command results as a table, JSON or YAML, with
// --filter and --sort applied to table rows.
package output
