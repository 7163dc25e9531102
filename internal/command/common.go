// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cikit/internal/config"
	"github.com/staranto/cikit/internal/meta"
	"github.com/staranto/cikit/internal/output"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr cikit <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "cikit", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// WorkingDir resolves --working-directory against the starting directory.
func WorkingDir(cmd *cli.Command) string {
	dir := cmd.String("working-directory")
	if dir == "" {
		dir = "."
	}
	if !filepath.IsAbs(dir) {
		if start := GetMeta(cmd).StartingDir; start != "" {
			dir = filepath.Join(start, dir)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// OutputOptions collects the global output flags.
func OutputOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Color:  cmd.Bool("color"),
		Titles: cmd.Bool("titles"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
	}
}

// ConfigSlice returns the string slice flag if it was set, else the
// <command>.<name> (or <name>) list from the config file, else fallback.
func ConfigSlice(cmd *cli.Command, name string, fallback []string) []string {
	if cmd.IsSet(name) {
		return cmd.StringSlice(name)
	}
	if v, err := config.GetStringSlice(name); err == nil && len(v) > 0 {
		return v
	}
	return fallback
}

// CommandBuilder constructs a cli.Command using a consistent pattern. The
// builder wires metadata, adds the tldr flag and the global output flags.
type CommandBuilder struct {
	Name        string
	Usage       string
	UsageText   string
	Description string
	Flags       []cli.Flag
	Action      func(context.Context, *cli.Command) error
	Meta        meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (b *CommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:        b.Name,
		Usage:       b.Usage,
		UsageText:   b.UsageText,
		Description: b.Description,
		Metadata: map[string]any{
			"meta": b.Meta,
		},
		Flags: append(b.Flags, append([]cli.Flag{
			newTldrFlag(),
		}, NewGlobalFlags(b.Name)...)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := GetMeta(cmd)
			if len(m.Args) > 1 {
				log.Debugf("Executing action for %v", m.Args[1:])
			}
			if ShortCircuitTLDR(ctx, cmd, b.Name) {
				return nil
			}
			return b.Action(ctx, cmd)
		},
	}
}
