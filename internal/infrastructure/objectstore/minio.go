// Package objectstore archives generated exports in S3-compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aryan0dhankhar/outreach/pkg/config"
)

// Archive stores export files in a MinIO bucket
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive creates a MinIO client for the configured bucket
func NewArchive(cfg config.ObjectStoreConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Put uploads data under objectName
func (a *Archive) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}

// ExportKey is the object name an export file is archived under
func ExportKey(day time.Time, filename string) string {
	return path.Join("exports", day.UTC().Format("2006-01-02"), filename)
}
