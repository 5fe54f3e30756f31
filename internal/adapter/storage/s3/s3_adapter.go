package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// S3Storage stores listing images in a MinIO (S3-compatible) bucket. The
// object key doubles as the image's external id so removal needs no lookup.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucketName)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", bucketName, err)
		}
	}

	log.Info("S3 storage initialized",
		zap.String("endpoint", endpoint), zap.String("bucket", bucketName))

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log.Named("S3Storage"),
	}, nil
}

// Upload stores the bytes under a fresh object key and returns the image
// descriptor to attach to a listing.
func (s *S3Storage) Upload(ctx context.Context, fileName string, data []byte) (*domain.Image, error) {
	ext := filepath.Ext(fileName)
	objectKey := fmt.Sprintf("listings/%s%s", uuid.New().String(), ext)

	info, err := s.client.PutObject(ctx, s.bucket, objectKey,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Error("PutObject failed",
			zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return nil, fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.logger.Debug("Image uploaded",
		zap.String("key", info.Key), zap.Int64("size", info.Size))

	return &domain.Image{
		URL:        fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey),
		ExternalID: objectKey,
		Format:     strings.TrimPrefix(ext, "."),
	}, nil
}

// Remove deletes the object behind an image descriptor. Missing objects are
// not an error; removal is best-effort cleanup.
func (s *S3Storage) Remove(ctx context.Context, externalID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, externalID, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("RemoveObject failed",
			zap.String("bucket", s.bucket), zap.String("key", externalID), zap.Error(err))
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", externalID, s.bucket, err)
	}
	return nil
}
