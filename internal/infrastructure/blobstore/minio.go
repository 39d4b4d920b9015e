package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"file-share-api/config"
	"file-share-api/internal/application/ports"
)

type MinioBackend struct {
	client *minio.Client
	bucket string
}

func NewMinio(ctx context.Context, cfg config.Storage) (*MinioBackend, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure || cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioBackend{client: client, bucket: cfg.Bucket}, nil
}

// normaliseEndpoint accepts "minio:9000" or "http(s)://minio:9000".
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

func (m *MinioBackend) Name() string { return config.StorageMinio }

func (m *MinioBackend) PutObject(ctx context.Context, key string, data []byte, mimeType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	return classifyMinio(err)
}

func (m *MinioBackend) RemoveObject(ctx context.Context, key string) error {
	return classifyMinio(m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}))
}

func (m *MinioBackend) StatObject(ctx context.Context, key string) error {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	return classifyMinio(err)
}

func (m *MinioBackend) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinio(err)
	}
	// GetObject is lazy; Stat surfaces a missing key before streaming starts.
	if _, err = obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, classifyMinio(err)
	}

	return obj, nil
}

func (m *MinioBackend) ListObjects(ctx context.Context, prefix string) ([]ports.BlobInfo, error) {
	var out []ports.BlobInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, classifyMinio(obj.Err)
		}
		out = append(out, ports.BlobInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return out, nil
}

func classifyMinio(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	default:
		return err
	}
}
