// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cikit/internal/config"
	"github.com/staranto/cikit/internal/output"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// Flags hold their parsed value, so every command gets its own instance.

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

func newDryRunFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "dry-run",
		Aliases:     []string{"n"},
		Usage:       "compute everything but change nothing",
		HideDefault: true,
	}
}

// NewGlobalFlags returns the output flags shared by every command. params[0]
// is the command name, used as the config namespace.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: output.ColorDefault(),
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to table rows",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "table",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort table rows by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with table output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: true,
		},
	}

	return
}

// NewWorkingDirFlag is the directory a command operates in. Relative values
// are resolved against the starting directory.
func NewWorkingDirFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
		Name:    "working-directory",
		Aliases: []string{"C"},
		Usage:   "directory to run in",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("CIKIT_WORKING_DIRECTORY"),
		),
		Value: ".",
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	})
}

// NewStringFlag builds a string flag whose value comes from, in order, the
// command line, the env vars, <ns>.<name> and <name> in the config file, and
// finally value.
func NewStringFlag(ns, name, usage, value string, envs ...string) *cli.StringFlag {
	var chain []cli.ValueSource
	for _, e := range envs {
		chain = append(chain, cli.EnvVar(e))
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
		Name:    name,
		Usage:   usage,
		Sources: cli.NewValueSourceChain(chain...),
		Value:   value,
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	})
}

// NewBoolFlag is the bool counterpart of NewStringFlag.
func NewBoolFlag(ns, name, usage string, envs ...string) *cli.BoolFlag {
	chain := []cli.ValueSource{}
	for _, e := range envs {
		chain = append(chain, cli.EnvVar(e))
	}
	chain = append(chain,
		yaml.YAML(ns+"."+name, altsrc.StringSourcer(cfg.Source)),
		yaml.YAML(name, altsrc.StringSourcer(cfg.Source)),
	)
	return &cli.BoolFlag{
		Name:        name,
		Usage:       usage,
		Sources:     cli.NewValueSourceChain(chain...),
		HideDefault: true,
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
