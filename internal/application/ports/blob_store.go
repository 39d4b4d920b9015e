package ports

import (
	"context"
	"io"
	"time"
)

type (
	// BlobStore is the object store boundary. Delete is best-effort and reports
	// whether the blob is known to be gone.
	BlobStore interface {
		Put(ctx context.Context, key string, data []byte, mimeType string) error
		Delete(ctx context.Context, key string) bool
		Exists(ctx context.Context, key string) (bool, error)
		Open(ctx context.Context, key string) (io.ReadCloser, error)
	}

	BlobInfo struct {
		Key          string
		Size         int64
		LastModified time.Time
	}

	BlobLister interface {
		List(ctx context.Context, prefix string) ([]BlobInfo, error)
	}
)
