// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package meta carries the per-invocation state shared by every command.
package meta

import (
	"context"

	"github.com/staranto/cikit/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	// StartingDir is the working directory at startup. Commands resolve a
	// relative --working-directory against it.
	StartingDir string
}
