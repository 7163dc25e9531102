// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cikit/internal/analysis"
	"github.com/staranto/cikit/internal/cache"
	"github.com/staranto/cikit/internal/fingerprint"
	"github.com/staranto/cikit/internal/meta"
	"github.com/staranto/cikit/internal/output"
)

var pltColumns = output.Columns{"key", "restored", "hit", "built", "saved"}

// PltCommandAction is the action handler for the "plt" subcommand. It
// restores the PLT cache, rebuilds it on a miss and runs dialyzer.
func PltCommandAction(ctx context.Context, cmd *cli.Command) error {
	defaults := analysis.DefaultOptions()

	opts := analysis.Options{
		WorkingDir:      WorkingDir(cmd),
		KeyVersion:      cmd.String("cache-key-version"),
		Tool:            defaults.Tool,
		HashPatterns:    ConfigSlice(cmd, "lockfile", defaults.HashPatterns),
		CachePaths:      ConfigSlice(cmd, "path", defaults.CachePaths),
		RestoreFallback: cmd.Bool("restore-fallback"),
		SkipRestore:     cmd.Bool("skip-restore") || (cmd.Bool("skip-restore-on-retry") && analysis.IsRetry()),
		BuildCommand:    defaults.BuildCommand,
		AnalysisCommand: append(defaults.AnalysisCommand, strings.Fields(cmd.String("cmd-line"))...),
	}
	if err := ValidateOptions(opts); err != nil {
		return err
	}

	backend, closeBackend, err := NewCacheBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.WithError(err).Warn("failed to close cache backend")
		}
	}()
	log.Debugf("cache backend: %s", backend)

	probe := fingerprint.Elixir()
	if elixir := cmd.String("elixir"); elixir != "" {
		probe.Command = elixir
	}

	runner := &analysis.Runner{
		Fingerprinter: probe,
		Cache:         &cache.Store{Backend: backend, Root: opts.WorkingDir},
		Executor:      &analysis.ProcessExecutor{Stdout: os.Stderr, Stderr: os.Stderr},
		Options:       opts,
	}

	res, runErr := runner.Run(ctx)
	if res != nil {
		row := map[string]interface{}{
			"key":      res.Key,
			"restored": res.Restored,
			"hit":      res.Hit,
			"built":    res.Built,
			"saved":    res.Saved,
		}
		if err := output.Emit(os.Stdout, OutputOptions(cmd), res, pltColumns, []map[string]interface{}{row}); err != nil {
			log.WithError(err).Warn("failed to write result")
		}
	}
	return runErr
}

// PltCommandBuilder constructs the cli.Command definition for the "plt"
// command.
func PltCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "plt",
		Usage:     "run dialyzer with a cached PLT",
		UsageText: `cikit plt [options]`,
		Description: `Keys the PLT cache on the Erlang/Elixir versions and the lockfile hash,
restores it, builds the PLT only on a miss, saves it, and always runs
"mix dialyzer <cmd-line>". dialyzer's exit code is cikit's exit code.`,
		Flags: []cli.Flag{
			NewWorkingDirFlag("plt"),
			NewStringFlag("plt", "cmd-line", "extra arguments for mix dialyzer", "", "CIKIT_CMD_LINE"),
			NewStringFlag("plt", "cache-key-version", "prefix that versions every cache key", "", "CIKIT_CACHE_KEY_VERSION"),
			NewStringFlag("plt", "elixir", "elixir executable used to fingerprint the toolchain", "elixir"),
			NewBoolFlag("plt", "restore-fallback", "restore the closest older cache when there is no exact match", "CIKIT_RESTORE_FALLBACK"),
			NewBoolFlag("plt", "skip-restore", "never restore, always rebuild"),
			NewBoolFlag("plt", "skip-restore-on-retry", "skip the restore when GITHUB_RUN_ATTEMPT > 1"),
			&cli.StringSliceFlag{
				Name:  "lockfile",
				Usage: "globs of files whose content keys the cache",
			},
			&cli.StringSliceFlag{
				Name:  "path",
				Usage: "globs of files to cache",
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "cache backend (local, s3, gcs, badger)",
				Sources: cli.NewValueSourceChain(cli.EnvVar("CIKIT_CACHE_BACKEND")),
				Value:   "local",
				Validator: func(value string) error {
					return FlagValidators(value, BackendValidator)
				},
			},
			NewStringFlag("plt", "bucket", "bucket for the s3 and gcs backends", "", "CIKIT_CACHE_BUCKET"),
			NewStringFlag("plt", "cache-prefix", "object name prefix for the s3 and gcs backends", "cikit/plt"),
			NewStringFlag("plt", "cache-dir", "directory for the local and badger backends", "", "CIKIT_CACHE_DIR"),
			NewStringFlag("plt", "profile", "AWS shared config profile", "", "AWS_PROFILE"),
			NewStringFlag("plt", "region", "AWS region", "", "AWS_REGION"),
			NewStringFlag("plt", "endpoint", "S3 compatible endpoint URL", "", "CIKIT_S3_ENDPOINT"),
			NewBoolFlag("plt", "path-style", "use path-style S3 addressing"),
			NewStringFlag("plt", "credentials-file", "GCS service account key", "", "GOOGLE_APPLICATION_CREDENTIALS"),
			&cli.IntFlag{
				Name:  "purge-hours",
				Usage: "remove local cache entries older than this many hours (0 keeps everything)",
				Value: 0,
			},
		},
		Action: PltCommandAction,
		Meta:   meta,
	}).Build()
}
