// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
// no-cloc

package gcs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cikit/internal/cache"
)

type fakeObject struct {
	data    []byte
	updated time.Time
}

type fakeBucket struct {
	objects map[string]fakeObject
}

type fakeWriter struct {
	bytes.Buffer
	name   string
	bucket *fakeBucket
}

func (w *fakeWriter) Close() error {
	w.bucket.objects[w.name] = fakeObject{data: w.Bytes(), updated: time.Now()}
	return nil
}

func (f *fakeBucket) Attrs(_ context.Context, name string) (*ObjectInfo, error) {
	o, ok := f.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return &ObjectInfo{Name: name, Updated: o.updated}, nil
}

func (f *fakeBucket) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for name, o := range f.objects {
		if strings.HasPrefix(name, prefix) {
			out = append(out, ObjectInfo{Name: name, Updated: o.updated})
		}
	}
	return out, nil
}

func (f *fakeBucket) NewReader(_ context.Context, name string) (io.ReadCloser, error) {
	o, ok := f.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

func (f *fakeBucket) NewWriter(_ context.Context, name string) io.WriteCloser {
	return &fakeWriter{name: name, bucket: f}
}

func TestBackend_Lookup(t *testing.T) {
	now := time.Now()
	fake := &fakeBucket{objects: map[string]fakeObject{
		"plt/x86_64-dialyzer-26-old.tar.zst": {updated: now.Add(-time.Hour)},
		"plt/x86_64-dialyzer-26-new.tar.zst": {updated: now},
		"plt/x86_64-dialyzer-26-tmp.part":    {updated: now.Add(time.Hour)},
	}}
	b := &Backend{Bucket: fake, Name: "bucket", Prefix: "plt"}
	ctx := context.Background()

	got, ok, err := b.Lookup(ctx, "x86_64-dialyzer-26-old", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x86_64-dialyzer-26-old", got)

	_, ok, err = b.Lookup(ctx, "x86_64-dialyzer-26-zzz", false)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err = b.Lookup(ctx, "x86_64-dialyzer-", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x86_64-dialyzer-26-new", got)

	_, ok, err = b.Lookup(ctx, "arm64-", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackend_PutOpen(t *testing.T) {
	fake := &fakeBucket{objects: map[string]fakeObject{}}
	b := &Backend{Bucket: fake, Name: "bucket"}
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "k", strings.NewReader("payload"), 7))
	assert.Contains(t, fake.objects, "k.tar.zst")

	rc, err := b.Open(ctx, "k")
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "payload", string(got))

	_, err = b.Open(ctx, "nope")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestBackend_String(t *testing.T) {
	assert.Equal(t, "gs://bucket/plt", (&Backend{Name: "bucket", Prefix: "/plt/"}).String())
	assert.Equal(t, "gs://bucket", (&Backend{Name: "bucket"}).String())
}
