// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out  map[string]string
	err  error
	seen [][]string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.seen = append(f.seen, args)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.out[args[0]]), nil
}

func TestRoot(t *testing.T) {
	base := t.TempDir()
	repo := filepath.Join(base, "repo")
	deep := filepath.Join(repo, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(repo, ".git"), 0o755))

	assert.Equal(t, repo, Root(deep))
	assert.Equal(t, repo, Root(repo))
}

func TestRoot_WorktreeFile(t *testing.T) {
	repo := t.TempDir()
	sub := filepath.Join(repo, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".git"), []byte("gitdir: /elsewhere\n"), 0o600))

	assert.Equal(t, repo, Root(sub))
}

func TestRoot_NoRepository(t *testing.T) {
	dir := t.TempDir()
	// t.TempDir normally lives outside any repository; guard anyway.
	if got := Root(dir); got != dir {
		t.Skipf("temp dir is inside a repository at %s", got)
	}
	assert.Equal(t, dir, Root(dir))
}

func TestTags(t *testing.T) {
	r := &fakeRunner{out: map[string]string{"tag": "v1.0.0\nv1.2.0\n\nv1.10.0\n"}}
	repo := Repo{Dir: "/src", Runner: r}

	tags, err := repo.Tags(context.Background(), "v*")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.0", "v1.2.0", "v1.10.0"}, tags)
	assert.Equal(t, []string{"tag", "-l", "v*"}, r.seen[0])
}

func TestTags_Error(t *testing.T) {
	repo := Repo{Runner: &fakeRunner{err: errors.New("boom")}}
	_, err := repo.Tags(context.Background(), "v*")
	assert.Error(t, err)
}

func TestPathspec(t *testing.T) {
	assert.Equal(t, []string{"."}, Pathspec(nil))
	assert.Equal(t,
		[]string{".", ":(exclude)dist", ":(exclude).github"},
		Pathspec([]string{"dist", " ", ".github"}))
}

func TestLog_Args(t *testing.T) {
	tests := []struct {
		name  string
		since string
		want  string
	}{
		{"with tag", "v1.0.0", "v1.0.0...abc"},
		{"no tag", "", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{out: map[string]string{}}
			repo := Repo{Dir: "/src", Runner: r}

			_, err := repo.Log(context.Background(), tt.since, "abc", []string{"dist"})
			require.NoError(t, err)

			args := r.seen[0]
			assert.Equal(t, "log", args[0])
			assert.Contains(t, args, "-z")
			assert.Contains(t, args, tt.want)
			assert.Equal(t, []string{"--", ".", ":(exclude)dist"}, args[len(args)-3:])
		})
	}
}

func TestParseLog(t *testing.T) {
	out := strings.Join([]string{
		"aaa\x1ffeat: one\n\nbody\n",
		"bbb\x1ffix(x)!: two\n",
		"ccc\x1fchore: three\n\nBREAKING CHANGE: gone\n",
		"",
	}, "\x00")

	commits := ParseLog([]byte(out))
	require.Len(t, commits, 3)

	assert.Equal(t, "aaa", commits[0].SHA)
	assert.Equal(t, "feat", commits[0].Type)
	assert.Equal(t, "body", commits[0].Body)
	assert.Equal(t, "fix(x)!: two", commits[1].Header)
	assert.Len(t, commits[2].Notes, 1)
}

func TestParseLog_Empty(t *testing.T) {
	assert.Empty(t, ParseLog(nil))
	assert.Empty(t, ParseLog([]byte("\n")))
}

func TestRevParse(t *testing.T) {
	r := &fakeRunner{out: map[string]string{"rev-parse": "0123456789abcdef0123456789abcdef01234567\n"}}
	sha, err := Repo{Dir: ".", Runner: r}.RevParse(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", sha)
	assert.Equal(t, []string{"rev-parse", "--verify", "HEAD^{commit}"}, r.seen[0])
}
