package objectstore

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore downloads serialized model artifacts from object storage.
type MinioStore struct {
	client *minio.Client
	logger *zap.Logger
}

func NewMinioStore(endpoint, accessKey, secretKey string, secure bool, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return &MinioStore{client: client, logger: logger}, nil
}

func (s *MinioStore) Download(ctx context.Context, bucket, object, dest string) error {
	if err := s.client.FGetObject(ctx, bucket, object, dest, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s/%s: %w", bucket, object, err)
	}
	s.logger.Info("downloaded artifact",
		zap.String("bucket", bucket),
		zap.String("object", object),
		zap.String("dest", dest))
	return nil
}
