// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	awsx "github.com/staranto/cikit/internal/aws"
	"github.com/staranto/cikit/internal/cache"
	"github.com/staranto/cikit/internal/cache/badger"
	"github.com/staranto/cikit/internal/cache/gcs"
	"github.com/staranto/cikit/internal/cache/local"
	"github.com/staranto/cikit/internal/cache/s3"
)

var backends = []string{"local", "s3", "gcs", "badger"}

// NewCacheBackend builds the backend named by --backend. The returned close
// func is never nil.
func NewCacheBackend(ctx context.Context, cmd *cli.Command) (cache.Backend, func() error, error) {
	noop := func() error { return nil }
	name := cmd.String("backend")

	switch name {
	case "local":
		b, err := local.New(cmd.String("cache-dir"))
		if err != nil {
			return nil, noop, err
		}
		if err := b.Purge(int(cmd.Int("purge-hours"))); err != nil {
			log.WithError(err).Warn("cache purge failed")
		}
		return b, noop, nil

	case "s3":
		bucket, err := requireBucket(cmd)
		if err != nil {
			return nil, noop, err
		}
		var opts []awsx.Option
		if p := cmd.String("profile"); p != "" {
			opts = append(opts, awsx.WithProfile(p))
		}
		if r := cmd.String("region"); r != "" {
			opts = append(opts, awsx.WithRegion(r))
		}
		awsCfg, err := awsx.LoadAWSConfig(ctx, opts...)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := awsx.NewS3(awsCfg,
			awsx.WithS3Endpoint(cmd.String("endpoint")),
			awsx.WithS3PathStyle(cmd.Bool("path-style")),
		)
		return &s3.Backend{Client: client, Bucket: bucket, Prefix: cmd.String("cache-prefix")}, noop, nil

	case "gcs":
		bucket, err := requireBucket(cmd)
		if err != nil {
			return nil, noop, err
		}
		b, err := gcs.New(ctx, bucket, cmd.String("cache-prefix"), cmd.String("credentials-file"))
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil

	case "badger":
		dir := cmd.String("cache-dir")
		if dir == "" {
			base, ok := local.Dir()
			if !ok {
				return nil, noop, errors.New("unable to resolve a cache directory")
			}
			dir = filepath.Join(base, "badger")
		}
		b, err := badger.Open(dir)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", name)
	}
}

func requireBucket(cmd *cli.Command) (string, error) {
	bucket := cmd.String("bucket")
	if bucket == "" {
		return "", fmt.Errorf("--bucket is required for the %s backend", cmd.String("backend"))
	}
	return bucket, nil
}
