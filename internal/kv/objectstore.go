// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kv

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// ObjectStore keeps one object per key in an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string

	bucketMu    sync.Mutex
	bucketReady bool
}

// ObjectStoreOptions configures NewObjectStore.
type ObjectStoreOptions struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewObjectStore connects to the endpoint and creates the bucket if it is
// missing. An unreachable endpoint is logged and the bucket is checked again
// on the first write.
func NewObjectStore(ctx context.Context, opts ObjectStoreOptions) (*ObjectStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore backend: %w", err)
	}

	o := &ObjectStore{client: client, bucket: opts.Bucket}
	if err := o.ensureBucket(ctx); err != nil {
		log.Warnf("objectstore backend unreachable, will retry on first write: %v", err)
	}
	return o, nil
}

func (o *ObjectStore) ensureBucket(ctx context.Context) error {
	o.bucketMu.Lock()
	defer o.bucketMu.Unlock()
	if o.bucketReady {
		return nil
	}
	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return fmt.Errorf("%w: objectstore bucket check: %v", ErrUnavailable, err)
	}
	if !exists {
		if err := o.client.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: objectstore make bucket %s: %v", ErrUnavailable, o.bucket, err)
		}
	}
	o.bucketReady = true
	return nil
}

func objectKey(key string) string {
	return "kv/" + key
}

// Get implements Backend.
func (o *ObjectStore) Get(ctx context.Context, key string) (string, bool, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return "", false, fmt.Errorf("%w: objectstore get %s: %v", ErrUnavailable, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: objectstore read %s: %v", ErrUnavailable, key, err)
	}
	return string(data), true, nil
}

// Set implements Backend.
func (o *ObjectStore) Set(ctx context.Context, key, value string) error {
	if err := o.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := o.client.PutObject(ctx, o.bucket, objectKey(key), strings.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("%w: objectstore put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Close implements Backend. The minio client holds no persistent connection.
func (o *ObjectStore) Close() error { return nil }
