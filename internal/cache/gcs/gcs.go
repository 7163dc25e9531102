// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package gcs is a cache.Backend that keeps archives as objects in a Google
// Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/staranto/cikit/internal/cache"
)

const archiveExt = ".tar.zst"

// ObjectInfo is the part of storage.ObjectAttrs the backend reads.
type ObjectInfo struct {
	Name    string
	Updated time.Time
}

// Bucket is the subset of a storage.BucketHandle the backend uses.
type Bucket interface {
	Attrs(ctx context.Context, name string) (*ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	NewReader(ctx context.Context, name string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, name string) io.WriteCloser
}

type Backend struct {
	Bucket Bucket
	Name   string
	Prefix string
}

// New opens bucket with application default credentials, or with the service
// account key at credentialsFile when set.
func New(ctx context.Context, bucket, prefix, credentialsFile string) (*Backend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &Backend{
		Bucket: &handle{client.Bucket(bucket)},
		Name:   bucket,
		Prefix: prefix,
	}, nil
}

func (b *Backend) String() string {
	return "gs://" + strings.TrimSuffix(b.Name+"/"+strings.Trim(b.Prefix, "/"), "/")
}

func (b *Backend) Lookup(ctx context.Context, key string, prefix bool) (string, bool, error) {
	if !prefix {
		_, err := b.Bucket.Attrs(ctx, b.object(key))
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to stat %s: %w", key, err)
		}
		return key, true, nil
	}

	objs, err := b.Bucket.List(ctx, b.object("")+key)
	if err != nil {
		return "", false, fmt.Errorf("failed to list %s: %w", key, err)
	}

	var best ObjectInfo
	for _, o := range objs {
		if !strings.HasSuffix(o.Name, archiveExt) {
			continue
		}
		if best.Name == "" || o.Updated.After(best.Updated) {
			best = o
		}
	}
	if best.Name == "" {
		return "", false, nil
	}

	name := strings.TrimSuffix(strings.TrimPrefix(best.Name, b.object("")), archiveExt)
	return name, true, nil
}

func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := b.Bucket.NewReader(ctx, b.object(key))
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, cache.ErrNotFound
	}
	return r, err
}

func (b *Backend) Put(ctx context.Context, key string, r io.ReadSeeker, _ int64) error {
	w := b.Bucket.NewWriter(ctx, b.object(key))
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", key, err)
	}
	return nil
}

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

// handle adapts storage.BucketHandle to Bucket.
type handle struct {
	*storage.BucketHandle
}

func (h *handle) Attrs(ctx context.Context, name string) (*ObjectInfo, error) {
	attrs, err := h.Object(name).Attrs(ctx)
	if err != nil {
		return nil, err
	}
	return &ObjectInfo{Name: attrs.Name, Updated: attrs.Updated}, nil
}

func (h *handle) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	q := &storage.Query{Prefix: prefix}
	if err := q.SetAttrSelection([]string{"Name", "Updated"}); err != nil {
		return nil, err
	}

	var out []ObjectInfo
	it := h.Objects(ctx, q)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectInfo{Name: attrs.Name, Updated: attrs.Updated})
	}
}

func (h *handle) NewReader(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := h.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (h *handle) NewWriter(ctx context.Context, name string) io.WriteCloser {
	w := h.Object(name).NewWriter(ctx)
	w.ContentType = "application/zstd"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	return w
}
