package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"heronnest/internal/config"
)

type Storage interface {
	Upload(ctx context.Context, objectPath, contentType string, file io.Reader, size int64) (string, error)
	GetURL(ctx context.Context, objectPath string) (string, error)
	Delete(ctx context.Context, objectPath string) error
	ObjectPath(rawURL string) (string, error)
}

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

func NewMinIOClient(ctx context.Context, cfg *config.Config) (*MinIOClient, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIO.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinIO.BucketName, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinIO.BucketName, minio.MakeBucketOptions{Region: cfg.MinIO.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinIO.BucketName, err)
		}
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.MinIO.BucketName,
		urlExpiry: cfg.MinIO.URLExpiry,
	}, nil
}

// Upload stores the object and returns a download URL for it.
func (m *MinIOClient) Upload(ctx context.Context, objectPath, contentType string, file io.Reader, size int64) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.PutObject(ctx, m.bucket, objectPath, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"uploaded-at": time.Now().Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	return m.GetURL(ctx, objectPath)
}

func (m *MinIOClient) GetURL(ctx context.Context, objectPath string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectPath, m.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectPath, err)
	}
	return u.String(), nil
}

func (m *MinIOClient) Delete(ctx context.Context, objectPath string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectPath,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	return nil
}

func (m *MinIOClient) ObjectPath(rawURL string) (string, error) {
	return ObjectPath(rawURL, m.bucket)
}

func PostImagePath(postID string, now time.Time) string {
	return fmt.Sprintf("posts/%s/%d.jpg", postID, now.UnixMilli())
}

func ProfileImagePath(userID string, now time.Time) string {
	return fmt.Sprintf("profiles/%s/%d.jpg", userID, now.UnixMilli())
}

// ObjectPath recovers the object path from a download URL produced by Upload,
// for documents that only stored the URL.
func ObjectPath(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	if bucket != "" {
		path = strings.TrimPrefix(path, bucket+"/")
	}
	if path == "" {
		return "", fmt.Errorf("invalid image url: %s", rawURL)
	}

	return path, nil
}
