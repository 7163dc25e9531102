// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/apex/log"
	version "github.com/hashicorp/go-version"

	"github.com/staranto/cikit/internal/commit"
)

// Zero is the version assumed when no release tag exists yet.
var Zero = version.Must(version.NewSemver("0.0.0"))

// TagLister lists tags matching a git tag -l pattern.
type TagLister interface {
	Tags(ctx context.Context, pattern string) ([]string, error)
}

// LatestTag returns the highest semver tag carrying prefix, along with its
// parsed version. Tags that do not parse after stripping prefix are skipped.
// An empty tag means none exist.
func LatestTag(ctx context.Context, lister TagLister, prefix string) (string, *version.Version, error) {
	tags, err := lister.Tags(ctx, prefix+"*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to list tags: %w", err)
	}

	type candidate struct {
		tag string
		v   *version.Version
	}
	var candidates []candidate
	for _, t := range tags {
		v, err := version.NewSemver(strings.TrimPrefix(t, prefix))
		if err != nil {
			log.Debugf("ignoring tag %s: %v", t, err)
			continue
		}
		candidates = append(candidates, candidate{t, v})
	}
	if len(candidates) == 0 {
		return "", nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].v.GreaterThan(candidates[j].v)
	})
	return candidates[0].tag, candidates[0].v, nil
}

// Next applies level to v and drops any metadata. A pre-release is promoted
// to its release when that already satisfies level, so 2.0.0-rc.1 becomes
// 2.0.0 for any level and 1.2.3-rc.1 becomes 1.2.3 for a patch. None returns
// nil.
func Next(v *version.Version, level commit.BumpLevel) *version.Version {
	if v == nil {
		v = Zero
	}

	seg := v.Segments()
	for len(seg) < 3 {
		seg = append(seg, 0)
	}
	major, minor, patch := seg[0], seg[1], seg[2]
	pre := v.Prerelease() != ""

	switch level {
	case commit.Major:
		if !pre || minor != 0 || patch != 0 {
			major++
		}
		minor, patch = 0, 0
	case commit.Minor:
		if !pre || patch != 0 {
			minor++
		}
		patch = 0
	case commit.Patch:
		if !pre {
			patch++
		}
	default:
		return nil
	}

	return version.Must(version.NewSemver(fmt.Sprintf("%d.%d.%d", major, minor, patch)))
}

// Body renders one "* header" line per commit, skipping empty headers.
func Body(commits []commit.Commit) string {
	lines := make([]string, 0, len(commits))
	for _, c := range commits {
		if c.Header == "" {
			continue
		}
		lines = append(lines, "* "+c.Header)
	}
	return strings.Join(lines, "\n")
}
