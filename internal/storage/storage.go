// Package storage adapts an S3-compatible object store: bytes in, durable
// retrievable URL out.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/quickshareqr/server-go/internal/config"
)

type Store struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string
}

func New(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}

	publicBaseURL := strings.TrimSuffix(cfg.S3PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = client.EndpointURL().String() + "/" + cfg.S3Bucket
	}

	return &Store{
		client:        client,
		bucket:        cfg.S3Bucket,
		region:        cfg.S3Region,
		publicBaseURL: publicBaseURL,
	}, nil
}

// EnsureBucket makes sure the bucket exists before the first upload.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload streams an object into the bucket and returns its retrieval URL.
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, reader, size, opts); err != nil {
		return "", fmt.Errorf("upload object %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}
