// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/staranto/cikit/internal/cachekey"
	"github.com/staranto/cikit/internal/fingerprint"
)

// Fingerprinter reports the toolchain the cache key is built from.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (fingerprint.Toolchain, error)
}

// Cache is satisfied by *cache.Store.
type Cache interface {
	Restore(ctx context.Context, paths []string, key string, fallbacks []string) (string, error)
	Save(ctx context.Context, paths []string, key string) (int64, error)
}

// Options configures a Runner.
type Options struct {
	WorkingDir string `validate:"required"`
	// KeyVersion is prepended to the cache key when set. It may not contain
	// "-", which separates key components.
	KeyVersion   string   `flag:"cache-key-version" validate:"excludes=-"`
	Tool         string   `validate:"required"`
	HashPatterns []string `validate:"required,min=1"`
	CachePaths   []string `validate:"required,min=1"`

	RestoreFallback bool
	SkipRestore     bool

	BuildCommand    []string `validate:"required,min=1"`
	AnalysisCommand []string `validate:"required,min=1"`
}

// DefaultOptions are the Elixir/Dialyzer settings.
func DefaultOptions() Options {
	return Options{
		WorkingDir:      ".",
		Tool:            "dialyzer",
		HashPatterns:    []string{"mix.lock", "apps/*/mix.lock"},
		CachePaths:      []string{"_build/*/*.plt*"},
		BuildCommand:    []string{"mix", "dialyzer", "--plt"},
		AnalysisCommand: []string{"mix", "dialyzer"},
	}
}

// Result records what a run did.
type Result struct {
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	Restored string `json:"restored,omitempty" yaml:"restored,omitempty"`
	Hit      bool   `json:"hit" yaml:"hit"`
	Built    bool   `json:"built" yaml:"built"`
	Saved    bool   `json:"saved" yaml:"saved"`
}

// Runner drives one restore, build, save and analysis cycle.
type Runner struct {
	Fingerprinter Fingerprinter
	Cache         Cache
	Executor      Executor
	Options       Options
}

// Run restores the cache, builds on a miss, saves after a successful build
// and then runs the analysis command. Only the analysis command's failure is
// returned; everything before it degrades to a cache miss.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	opts := r.Options
	res := &Result{}

	key, ok := r.key(ctx)
	if ok {
		res.Key = key.String()
		log.Infof("cache key %s", res.Key)
	}

	switch {
	case !ok:
	case opts.SkipRestore:
		log.Info("skipping cache restore")
	default:
		var fallbacks []string
		if opts.RestoreFallback {
			fallbacks = key.RestoreKeys()
		}
		restored, err := r.Cache.Restore(ctx, opts.CachePaths, res.Key, fallbacks)
		if err != nil {
			log.WithError(err).Warn("cache restore failed")
		}
		res.Restored = restored
		res.Hit = restored != "" && restored == res.Key
		if restored != "" && !res.Hit {
			log.Infof("restored fallback %s", restored)
		}
	}

	if res.Hit {
		log.Info("cache hit, not building PLT")
	} else {
		if err := r.Executor.Exec(ctx, opts.WorkingDir, opts.BuildCommand[0], opts.BuildCommand[1:]...); err != nil {
			log.WithError(err).Warn("PLT build failed")
		} else {
			res.Built = true
		}
	}

	if res.Built && ok {
		size, err := r.Cache.Save(ctx, opts.CachePaths, res.Key)
		if err != nil {
			log.WithError(err).Warn("cache save failed")
		} else {
			res.Saved = true
			log.Infof("saved %s (%s)", res.Key, humanize.Bytes(uint64(size)))
		}
	}

	if err := r.Executor.Exec(ctx, opts.WorkingDir, opts.AnalysisCommand[0], opts.AnalysisCommand[1:]...); err != nil {
		return res, fmt.Errorf("%s failed: %w", opts.Tool, err)
	}
	return res, nil
}

// key computes the cache key. ok is false when the fingerprint or lockfile
// hash cannot be computed, in which case the cache is bypassed.
func (r *Runner) key(ctx context.Context) (cachekey.Key, bool) {
	tc, err := r.Fingerprinter.Fingerprint(ctx)
	if err != nil {
		log.WithError(err).Warn("toolchain fingerprint failed, bypassing cache")
		return cachekey.Key{}, false
	}

	hash, err := cachekey.HashFiles(r.Options.WorkingDir, r.Options.HashPatterns)
	if err != nil {
		log.WithError(err).Warn("lockfile hash failed, bypassing cache")
		return cachekey.Key{}, false
	}

	return cachekey.Key{
		Prefix:   r.Options.KeyVersion,
		Arch:     tc.Architecture,
		Tool:     r.Options.Tool,
		Versions: tc.Versions,
		Hash:     hash,
	}, true
}

// IsRetry reports whether GITHUB_RUN_ATTEMPT names a re-run.
func IsRetry() bool {
	n, err := strconv.Atoi(os.Getenv("GITHUB_RUN_ATTEMPT"))
	return err == nil && n > 1
}
