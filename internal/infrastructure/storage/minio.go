// Package storage archives extracted audio slices to object storage so
// transcriptions can be replayed or re-run offline.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// MinIOClient wraps MinIO operations for audio archival
type MinIOClient struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinIOClient creates a new MinIO client and ensures the bucket exists
func NewMinIOClient(cfg *config.StorageConfig, logger *zap.Logger) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
		logger: logger,
	}

	ctx := context.Background()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ArchiveSegment stores one extracted audio slice. Errors are logged and
// swallowed: archival is off the critical path and a slice that fails to
// upload has already been handed to the transcriber.
func (m *MinIOClient) ArchiveSegment(ctx context.Context, sessionID string, seq int64, data []byte) {
	if m == nil || len(data) == 0 {
		return
	}
	objectName := fmt.Sprintf("%s/segment-%06d.wav", sessionID, seq)
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "audio/wav",
	})
	if err != nil {
		m.logger.Warn("failed to archive audio segment",
			zap.String("session_id", sessionID),
			zap.Int64("seq", seq),
			zap.Error(err),
		)
	}
}

// ListSegments lists the archived slices for one session
func (m *MinIOClient) ListSegments(ctx context.Context, sessionID string) ([]string, error) {
	var keys []string
	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    sessionID + "/",
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}
