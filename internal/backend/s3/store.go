// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	awsx "github.com/staranto/hbsctl/internal/aws"
)

// API is the subset of the S3 client the store needs.
type API interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3v2.DeleteObjectsInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error)
	s3v2.ListObjectsV2APIClient
}

// Config locates the bucket holding persisted manifests.
type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
}

// Store keeps one object per manifest under Prefix in Bucket.
type Store struct {
	client   API
	bucket   string
	prefix   string
	pageSize int32
}

// Option customizes a Store.
type Option func(*Store)

// WithPageSize caps the keys listed per page during Flush.
func WithPageSize(n int32) Option {
	return func(s *Store) { s.pageSize = n }
}

// New wraps an existing client.
func New(client API, bucket, prefix string, opts ...Option) *Store {
	s := &Store{client: client, bucket: bucket, prefix: prefix, pageSize: 1000} //nolint:mnd
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the AWS config from the environment, applying the overrides in
// cfg, and returns a Store backed by a real client.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 store requires a bucket")
	}

	var opts []awsx.Option
	if cfg.Profile != "" {
		opts = append(opts, awsx.WithProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, awsx.WithRegion(cfg.Region))
	}

	awsCfg, err := awsx.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3v2.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, awsx.WithS3Endpoint(cfg.Endpoint))
	}

	return New(awsx.NewS3(awsCfg, clientOpts...), cfg.Bucket, cfg.Prefix), nil
}

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Get downloads the object for key. Missing objects and transport failures
// are both reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	out, err := s.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if !errors.As(err, &nsk) {
			log.WithError(err).Warnf("failed to get s3://%s/%s", s.bucket, s.objectKey(key))
		}
		return nil, false
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		log.WithError(err).Warnf("failed to read s3://%s/%s", s.bucket, s.objectKey(key))
		return nil, false
	}
	return body, true
}

// Set uploads value as the object for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(s.bucket),
		Key:         awsv2.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, s.objectKey(key), err)
	}
	return nil
}

// Flush deletes every object under the prefix, one listing page at a time.
func (s *Store) Flush(ctx context.Context) error {
	in := &s3v2.ListObjectsV2Input{
		Bucket:  awsv2.String(s.bucket),
		MaxKeys: awsv2.Int32(s.pageSize),
	}
	if s.prefix != "" {
		in.Prefix = awsv2.String(s.prefix + "/")
	}

	var errs []error
	pages := s3v2.NewListObjectsV2Paginator(s.client, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}

		out, err := s.client.DeleteObjects(ctx, &s3v2.DeleteObjectsInput{
			Bucket: awsv2.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: awsv2.Bool(true)},
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("delete %s: %s", awsv2.ToString(e.Key), awsv2.ToString(e.Message)))
		}
		log.Debugf("deleted %d objects from s3://%s/%s", len(ids)-len(out.Errors), s.bucket, s.prefix)
	}

	return errors.Join(errs...)
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}
