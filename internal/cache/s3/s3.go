// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package s3 is a cache.Backend that keeps archives as objects in an S3 (or
// S3 compatible) bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/staranto/cikit/internal/cache"
)

const archiveExt = ".tar.zst"

// API is the subset of the S3 client the backend uses.
type API interface {
	HeadObject(ctx context.Context, in *s3v2.HeadObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	s3v2.ListObjectsV2APIClient
}

type Backend struct {
	Client API
	Bucket string
	// Prefix is prepended to every object name, e.g. "cikit/plt".
	Prefix string
}

func (b *Backend) String() string { return "s3://" + path.Join(b.Bucket, b.Prefix) }

func (b *Backend) Lookup(ctx context.Context, key string, prefix bool) (string, bool, error) {
	if !prefix {
		_, err := b.Client.HeadObject(ctx, &s3v2.HeadObjectInput{
			Bucket: awsv2.String(b.Bucket),
			Key:    awsv2.String(b.object(key)),
		})
		if isNotFound(err) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to head %s: %w", key, err)
		}
		return key, true, nil
	}

	var (
		best    string
		bestMod time.Time
	)
	p := s3v2.NewListObjectsV2Paginator(b.Client, &s3v2.ListObjectsV2Input{
		Bucket: awsv2.String(b.Bucket),
		Prefix: awsv2.String(b.object("") + key),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", false, fmt.Errorf("failed to list %s: %w", key, err)
		}
		for _, obj := range page.Contents {
			name, ok := b.key(awsv2.ToString(obj.Key))
			if !ok {
				continue
			}
			mod := awsv2.ToTime(obj.LastModified)
			if best == "" || mod.After(bestMod) {
				best, bestMod = name, mod
			}
		}
	}

	return best, best != "", nil
}

func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.Client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(b.Bucket),
		Key:    awsv2.String(b.object(key)),
	})
	if isNotFound(err) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (b *Backend) Put(ctx context.Context, key string, r io.ReadSeeker, size int64) error {
	_, err := b.Client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:        awsv2.String(b.Bucket),
		Key:           awsv2.String(b.object(key)),
		Body:          r,
		ContentLength: awsv2.Int64(size),
		ContentType:   awsv2.String("application/zstd"),
		Metadata:      map[string]string{"cikit-key": key},
	})
	return err
}

// object maps a cache key to its object name. object("") is the listing
// prefix.
func (b *Backend) object(key string) string {
	base := strings.Trim(b.Prefix, "/")
	if base != "" {
		base += "/"
	}
	if key == "" {
		return base
	}
	return base + key + archiveExt
}

// key is the inverse of object.
func (b *Backend) key(object string) (string, bool) {
	rest, ok := strings.CutPrefix(object, b.object(""))
	if !ok || !strings.HasSuffix(rest, archiveExt) {
		return "", false
	}
	return strings.TrimSuffix(rest, archiveExt), true
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
