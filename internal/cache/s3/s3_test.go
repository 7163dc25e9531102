// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
// no-cloc

package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cikit/internal/cache"
)

type object struct {
	body []byte
	mod  time.Time
}

// fakeS3 serves one object per ListObjectsV2 page to exercise pagination.
type fakeS3 struct {
	objects map[string]object
	lists   int
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3v2.HeadObjectInput, _ ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3v2.HeadObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	o, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(o.body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = object{body: b, mod: time.Now()}
	return &s3v2.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3v2.ListObjectsV2Input, _ ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	f.lists++
	var names []string
	for k := range f.objects {
		if strings.HasPrefix(k, awsv2.ToString(in.Prefix)) && k > awsv2.ToString(in.ContinuationToken) {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return &s3v2.ListObjectsV2Output{}, nil
	}
	first := names[0]
	for _, n := range names {
		if n < first {
			first = n
		}
	}
	o := f.objects[first]
	out := &s3v2.ListObjectsV2Output{
		Contents: []types.Object{{Key: awsv2.String(first), LastModified: awsv2.Time(o.mod)}},
	}
	if len(names) > 1 {
		out.IsTruncated = awsv2.Bool(true)
		out.NextContinuationToken = awsv2.String(first)
	}
	return out, nil
}

func TestBackend_Lookup(t *testing.T) {
	now := time.Now()
	fake := &fakeS3{objects: map[string]object{
		"ci/plt/x86_64-dialyzer-26-15-1.17-aaa.tar.zst": {mod: now.Add(-2 * time.Hour)},
		"ci/plt/x86_64-dialyzer-26-15-1.17-bbb.tar.zst": {mod: now},
		"ci/plt/x86_64-dialyzer-25-14-1.16-ccc.tar.zst": {mod: now.Add(time.Hour)},
		"ci/plt/readme.txt":                             {mod: now.Add(time.Hour)},
	}}
	b := &Backend{Client: fake, Bucket: "bucket", Prefix: "/ci/plt/"}

	tests := []struct {
		name   string
		key    string
		prefix bool
		want   string
		ok     bool
	}{
		{"exact hit", "x86_64-dialyzer-26-15-1.17-aaa", false, "x86_64-dialyzer-26-15-1.17-aaa", true},
		{"exact miss", "x86_64-dialyzer-26-15-1.17-zzz", false, "", false},
		{"prefix newest", "x86_64-dialyzer-26-", true, "x86_64-dialyzer-26-15-1.17-bbb", true},
		{"broad prefix", "x86_64-dialyzer-", true, "x86_64-dialyzer-25-14-1.16-ccc", true},
		{"prefix miss", "arm64-", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := b.Lookup(context.Background(), tt.key, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Greater(t, fake.lists, 3, "listing should paginate")
}

func TestBackend_PutOpen(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string]object{}}
	b := &Backend{Client: fake, Bucket: "bucket"}

	require.NoError(t, b.Put(ctx, "k", strings.NewReader("data"), 4))
	_, ok := fake.objects["k.tar.zst"]
	assert.True(t, ok)

	rc, err := b.Open(ctx, "k")
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "data", string(got))

	_, err = b.Open(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestBackend_String(t *testing.T) {
	assert.Equal(t, "s3://bucket/ci", (&Backend{Bucket: "bucket", Prefix: "ci"}).String())
}
