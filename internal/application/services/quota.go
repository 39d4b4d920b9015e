package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"file-share-api/internal/domain/file"
)

// QuotaGuard allows one upload per uploader per trailing window. The check
// and the later insert are not serialized, so two concurrent uploads from the
// same actor can both pass. The limit is best-effort.
type QuotaGuard struct {
	repo   file.Repository
	window time.Duration
}

func NewQuotaGuard(repo file.Repository, window time.Duration) *QuotaGuard {
	if window <= 0 {
		window = file.QuotaWindow
	}
	return &QuotaGuard{repo: repo, window: window}
}

// Allows reports whether uploader may upload at now. When it may not,
// nextAllowedAt is the latest upload's createdAt plus the window.
func (q *QuotaGuard) Allows(ctx context.Context, uploader uuid.UUID, now time.Time) (bool, time.Time, error) {
	latest, err := q.repo.FindLatestByUploaderSince(ctx, uploader, now.Add(-q.window))
	if err != nil {
		return false, time.Time{}, err
	}
	if latest == nil {
		return true, time.Time{}, nil
	}

	return false, latest.CreatedAt.Add(q.window), nil
}

func (q *QuotaGuard) Window() time.Duration { return q.window }
