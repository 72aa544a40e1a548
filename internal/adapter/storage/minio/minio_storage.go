package minio

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Storage keeps announce photos in a MinIO bucket and hands back public URLs.
type Storage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewStorage(cfg *config.MinIOConfig, logger *zap.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", cfg.Bucket, err)
		}
	}
	logger.Info("MinIO storage ready", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))

	return &Storage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *Storage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	objectKey := fmt.Sprintf("photos/%s%s", uuid.New().String(), filepath.Ext(fileName))

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		s.logger.Error("Failed to upload photo",
			zap.String("bucket", s.bucket), zap.String("object_key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey), nil
}

func (s *Storage) Delete(ctx context.Context, objectURL string) error {
	prefix := fmt.Sprintf("%s/%s/", s.client.EndpointURL().String(), s.bucket)
	objectKey := strings.TrimPrefix(objectURL, prefix)

	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("Failed to delete photo",
			zap.String("bucket", s.bucket), zap.String("object_key", objectKey), zap.Error(err))
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}
	return nil
}
