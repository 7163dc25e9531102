// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/cikit/internal/commit"
)

// Runner executes git with args in dir and returns stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct {
	// Binary defaults to "git".
	Binary string
}

// Run implements Runner. Stderr is folded into the returned error.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Root walks from start towards the filesystem root and returns the first
// directory containing a .git entry (directory or worktree file). When none is
// found, start itself is returned.
func Root(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	dir := abs
	for {
		if _, err := os.Lstat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			log.Debugf("no .git found above %s", abs)
			return abs
		}
		dir = parent
	}
}

// Repo is a git working tree queried through a Runner.
type Repo struct {
	Dir    string
	Runner Runner
}

// Tags lists tags matching pattern (git tag -l semantics).
func (r Repo) Tags(ctx context.Context, pattern string) ([]string, error) {
	out, err := r.Runner.Run(ctx, r.Dir, "tag", "-l", pattern)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(string(out), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// RevParse resolves ref to a full commit SHA.
func (r Repo) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := r.Runner.Run(ctx, r.Dir, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Pathspec builds "." followed by one :(exclude) entry per excluded path.
func Pathspec(excludes []string) []string {
	spec := []string{"."}
	for _, e := range excludes {
		if e = strings.TrimSpace(e); e != "" {
			spec = append(spec, ":(exclude)"+e)
		}
	}
	return spec
}

// Log returns the commits reachable from head but not from since (symmetric
// difference, as "since...head"), touching the pathspec. An empty since reads
// the whole history of head.
func (r Repo) Log(ctx context.Context, since, head string, excludes []string) ([]commit.Commit, error) {
	rng := head
	if since != "" {
		rng = since + "..." + head
	}

	args := []string{"log", "-z", "--no-decorate", "--format=%H%x1f%B", rng, "--"}
	args = append(args, Pathspec(excludes)...)

	out, err := r.Runner.Run(ctx, r.Dir, args...)
	if err != nil {
		return nil, err
	}
	return ParseLog(out), nil
}

// ParseLog splits NUL separated "%H%x1f%B" records into commits.
func ParseLog(out []byte) []commit.Commit {
	var commits []commit.Commit
	for _, rec := range bytes.Split(out, []byte{0}) {
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}
		sha, msg, found := strings.Cut(string(rec), "\x1f")
		if !found {
			msg, sha = sha, ""
		}
		commits = append(commits, commit.Parse(strings.TrimSpace(sha), msg))
	}
	return commits
}
