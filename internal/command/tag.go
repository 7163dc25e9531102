// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cikit/internal/commit"
	"github.com/staranto/cikit/internal/git"
	"github.com/staranto/cikit/internal/meta"
	"github.com/staranto/cikit/internal/output"
	"github.com/staranto/cikit/internal/release"
)

var tagColumns = output.Columns{"sha", "type", "scope", "level", "header"}

// defaultExcludes keep workflow tweaks and build output from cutting a
// release. Setting --exclude (or "exclude" in the config) replaces them.
var defaultExcludes = []string{"node_modules", "dist", "scripts", ".github", ".git"}

// TagCommandAction is the action handler for the "tag" subcommand. It finds
// the latest release tag, classifies the commits since then and cuts the
// next release on GitHub when one is warranted.
func TagCommandAction(ctx context.Context, cmd *cli.Command) error {
	root := git.Root(WorkingDir(cmd))
	log.Debugf("repository root: %s", root)

	repo := git.Repo{Dir: root, Runner: git.ExecRunner{}}

	head := cmd.String("sha")
	if sha, err := repo.RevParse(ctx, head); err == nil {
		head = sha
	} else {
		log.WithError(err).Debugf("could not resolve %s", head)
	}

	opts := tagOptions(cmd, head)
	if err := ValidateOptions(opts); err != nil {
		return err
	}

	var publisher release.Publisher
	if !opts.DryRun {
		if cmd.String("token") == "" {
			return errors.New("a GitHub token is required (--token or GITHUB_TOKEN)")
		}
		p, err := release.NewGitHubPublisher(cmd.String("repository"), cmd.String("token"), cmd.String("api-url"), nil)
		if err != nil {
			return err
		}
		publisher = p
	}

	tagger := &release.Tagger{
		History:   repo,
		Publisher: publisher,
		Options:   opts,
	}
	res, err := tagger.Run(ctx)
	if err != nil {
		return err
	}

	return output.Emit(os.Stdout, OutputOptions(cmd), res, tagColumns, commitRows(res.Commits))
}

func commitRows(commits []commit.Commit) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(commits))
	for _, c := range commits {
		sha := c.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		rows = append(rows, map[string]interface{}{
			"sha":    sha,
			"type":   c.Type,
			"scope":  c.Scope,
			"level":  commit.Classify(c).String(),
			"header": c.Header,
		})
	}
	return rows
}

// tagOptions collects the release options from the parsed flags.
func tagOptions(cmd *cli.Command, head string) release.Options {
	return release.Options{
		Prefix:     cmd.String("prefix"),
		Head:       head,
		Excludes:   ConfigSlice(cmd, "exclude", defaultExcludes),
		Draft:      cmd.Bool("draft"),
		Prerelease: cmd.Bool("prerelease"),
		MakeLatest: cmd.String("make-latest"),
		DryRun:     cmd.Bool("dry-run"),
	}
}

// TagCommandBuilder constructs the cli.Command definition for the "tag"
// command.
func TagCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "tag",
		Usage:     "cut a GitHub release from conventional commits",
		UsageText: `cikit tag [options]`,
		Description: `Finds the highest <prefix><semver> tag, reads the commits since then
(minus excluded paths), and creates a release for the next version when
any commit is a feat, a fix or a breaking change.`,
		Flags: []cli.Flag{
			NewWorkingDirFlag("tag"),
			newDryRunFlag(),
			NewStringFlag("tag", "prefix", "tag prefix", "v", "CIKIT_TAG_PREFIX"),
			NewStringFlag("tag", "sha", "commit the release points at", "HEAD", "GITHUB_SHA"),
			NewStringFlag("tag", "repository", "owner/repo to release in", "", "GITHUB_REPOSITORY"),
			NewStringFlag("tag", "api-url", "GitHub API root", "https://api.github.com", "GITHUB_API_URL"),
			NewStringFlag("tag", "make-latest", "mark the release latest (true, false, legacy)", "true"),
			NewBoolFlag("tag", "draft", "create a draft release"),
			NewBoolFlag("tag", "prerelease", "mark the release as a prerelease"),
			&cli.StringFlag{
				Name:    "token",
				Usage:   "GitHub token",
				Sources: cli.NewValueSourceChain(cli.EnvVar("GITHUB_TOKEN")),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"x"},
				Usage:   "paths whose changes never trigger a release (default node_modules, dist, scripts, .github, .git)",
			},
		},
		Action: TagCommandAction,
		Meta:   meta,
	}).Build()
}
