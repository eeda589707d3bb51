package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ayush/todolist/backend/internal/models"
)

// MinioArchive uploads task snapshots of deleted accounts.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

func NewMinioArchive(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioArchive{client: client, bucket: bucket}, nil
}

// ArchiveKey is the object key for one snapshot of userID's tasks.
func ArchiveKey(userID int64) string {
	return strconv.FormatInt(userID, 10) + "/" + uuid.NewString() + ".json"
}

// ArchiveTasks stores tasks as a JSON object and returns its key.
func (s *MinioArchive) ArchiveTasks(ctx context.Context, userID int64, tasks []models.Task) (string, error) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	key := ArchiveKey(userID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return key, nil
}

// NopArchive is used when MinIO is not configured.
type NopArchive struct{}

func (NopArchive) ArchiveTasks(context.Context, int64, []models.Task) (string, error) { return "", nil }
