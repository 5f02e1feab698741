// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket. The continuation token is the last key of
// the previous page.
type fakeS3 struct {
	objects   map[string][]byte
	lists     int
	deletes   int
	failGet   bool
	lastPutCT string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	if f.failGet {
		return nil, errors.New("connection reset")
	}
	body, ok := f.objects[awsv2.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[awsv2.ToString(in.Key)] = body
	f.lastPutCT = awsv2.ToString(in.ContentType)
	return &s3v2.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3v2.DeleteObjectsInput, _ ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error) {
	f.deletes++
	for _, id := range in.Delete.Objects {
		delete(f.objects, awsv2.ToString(id.Key))
	}
	return &s3v2.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3v2.ListObjectsV2Input, _ ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	f.lists++

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, awsv2.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start = sort.SearchStrings(keys, *in.ContinuationToken)
		if start < len(keys) && keys[start] == *in.ContinuationToken {
			start++
		}
	}
	end := start + int(awsv2.ToInt32(in.MaxKeys))
	if end > len(keys) {
		end = len(keys)
	}

	out := &s3v2.ListObjectsV2Output{IsTruncated: awsv2.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: awsv2.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = awsv2.String(keys[end-1])
	}
	return out, nil
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := New(fake, "bucket", "hbsctl/manifest")

	_, ok := s.Get(ctx, "abc")
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "abc", []byte(`[]`)))
	assert.Contains(t, fake.objects, "hbsctl/manifest/abc")
	assert.Equal(t, "application/json", fake.lastPutCT)

	got, ok := s.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, "[]", string(got))

	fake.failGet = true
	_, ok = s.Get(ctx, "abc")
	assert.False(t, ok)
}

func TestStoreNoPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := New(fake, "bucket", "")

	require.NoError(t, s.Set(ctx, "abc", []byte("x")))
	assert.Contains(t, fake.objects, "abc")
}

func TestStoreFlush(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.objects["other/keep"] = []byte("x")

	s := New(fake, "bucket", "hbsctl", WithPageSize(2))
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Set(ctx, k, []byte(k)))
	}

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, map[string][]byte{"other/keep": []byte("x")}, fake.objects)
	assert.Equal(t, 3, fake.lists)
	assert.Equal(t, 3, fake.deletes)
}

func TestOpenRequiresBucket(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}
