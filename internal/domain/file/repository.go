package file

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the FileRegistry. Finders return nil, nil when nothing matches;
// Delete and IncrementDownloadCount return ErrNotFound for a missing id.
type Repository interface {
	Create(ctx context.Context, r *Record) (*Record, error)
	FindByID(ctx context.Context, id ID) (*Record, error)
	FindByRecipient(ctx context.Context, userName string, page Page) (*RecordPage, error)
	FindLatestByUploaderSince(ctx context.Context, uploader uuid.UUID, since time.Time) (*Record, error)
	FindExpiredOrOverdue(ctx context.Context, now time.Time, retention time.Duration) (Records, error)
	UpdateFields(ctx context.Context, id ID, patch Patch) (*Record, error)
	Delete(ctx context.Context, id ID) error
	IncrementDownloadCount(ctx context.Context, id ID) error
	Stats(ctx context.Context, now time.Time, retention time.Duration) (Stats, error)
	KnownStorageKeys(ctx context.Context, keys []string) (map[string]struct{}, error)
}
