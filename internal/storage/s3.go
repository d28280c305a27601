package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/andyleap/finchconnect/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const connectionObject = "connections/current.json"

type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &S3Storage{
		client: client,
		bucket: bucket,
	}, nil
}

func (s *S3Storage) SetConnectionToken(ctx context.Context, token string) error {
	data, err := json.Marshal(newConnection(token))
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, connectionObject, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to save connection to S3: %w", err)
	}

	return nil
}

func (s *S3Storage) GetConnection(ctx context.Context) (*models.Connection, error) {
	object, err := s.client.GetObject(ctx, s.bucket, connectionObject, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get connection from S3: %w", err)
	}
	defer object.Close()

	// GetObject is lazy, a missing key only shows up on first read
	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read connection data: %w", err)
	}

	var conn models.Connection
	if err := json.Unmarshal(data, &conn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}

	return &conn, nil
}
