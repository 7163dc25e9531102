// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"

	"github.com/apex/log"

	"github.com/staranto/cikit/internal/commit"
)

// History reads commits between two refs, minus excluded paths.
type History interface {
	TagLister
	Log(ctx context.Context, since, head string, excludes []string) ([]commit.Commit, error)
}

// Options configures a Tagger run.
type Options struct {
	Prefix     string   `validate:"required"`
	Head       string   `validate:"required"`
	Excludes   []string
	Draft      bool
	Prerelease bool
	MakeLatest string `validate:"omitempty,oneof=true false legacy"`
	DryRun     bool
}

// Result describes what a run decided and did.
type Result struct {
	LatestTag string           `json:"latest_tag" yaml:"latest_tag"`
	Current   string           `json:"current" yaml:"current"`
	Next      string           `json:"next,omitempty" yaml:"next,omitempty"`
	Level     commit.BumpLevel `json:"level" yaml:"level"`
	Commits   []commit.Commit  `json:"commits" yaml:"commits"`
	Release   *Release         `json:"release,omitempty" yaml:"release,omitempty"`
	URL       string           `json:"url,omitempty" yaml:"url,omitempty"`
	Published bool             `json:"published" yaml:"published"`
}

// Tagger cuts a release when the history since the latest tag warrants one.
type Tagger struct {
	History   History
	Publisher Publisher
	Options   Options
}

// Run resolves the latest tag, classifies the commits since then and
// publishes at most one release. Failing to read history or to publish is
// logged and reported through Result, never returned; only tag listing
// errors are fatal.
func (t *Tagger) Run(ctx context.Context) (*Result, error) {
	tag, current, err := LatestTag(ctx, t.History, t.Options.Prefix)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = Zero
	}

	res := &Result{LatestTag: tag, Current: current.String()}
	log.Infof("Current version: %s", res.Current)

	commits, err := t.History.Log(ctx, tag, t.Options.Head, t.Options.Excludes)
	if err != nil {
		log.WithError(err).Warn("Could not fetch commits")
		commits = nil
	}
	res.Commits = commits

	if len(commits) == 0 {
		log.Info("No relevant commits found since last tag.")
		return res, nil
	}

	res.Level = commit.Aggregate(commits)
	if res.Level == commit.None {
		log.Info("Changes detected, but no semantic version triggers (feat/fix/!) found.")
		return res, nil
	}

	next := Next(current, res.Level)
	res.Next = next.String()
	log.Infof("Bumping version: %s -> %s (%s)", res.Current, res.Next, res.Level)

	tagName := t.Options.Prefix + res.Next
	res.Release = &Release{
		Tag:        tagName,
		Name:       tagName,
		Body:       Body(commits),
		Target:     t.Options.Head,
		Draft:      t.Options.Draft,
		Prerelease: t.Options.Prerelease,
		MakeLatest: t.Options.MakeLatest,
	}

	log.Infof("Creating release %s:", tagName)
	log.Info(res.Release.Body)

	if t.Options.DryRun {
		log.Info("Dry run, not publishing.")
		return res, nil
	}

	url, err := t.Publisher.Publish(ctx, *res.Release)
	if err != nil {
		log.WithError(err).Errorf("Failed to create release for %s", tagName)
		return res, nil
	}
	res.URL = url
	res.Published = true
	log.Infof("Created release %s %s", tagName, url)

	return res, nil
}
