package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domain "file-share-api/internal/domain/file"
	"file-share-api/internal/infrastructure/db/postgres"
)

var ErrStorageKeyExists = errors.New("storage key already registered")

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req *domain.Record) (*domain.Record, error) {
	f := new(File)

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	err := r.db.QueryRow(
		ctx,
		InsertFile,
		req.ID, req.FileName, req.OriginalName, req.StorageKey, req.MimeType, req.SizeBytes,
		req.UploadedBy, req.RecipientUserName, req.SenderName, req.Description, tags, req.IsPublic,
		req.CreatedAt, req.ExpiresAt,
	).Scan(f.scanTargets()...)
	if err != nil {
		if ok, _ := postgres.IsPgUniqueViolation(err); ok {
			return nil, ErrStorageKeyExists
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) FindByID(ctx context.Context, id domain.ID) (*domain.Record, error) {
	return r.fetchOne(ctx, SelectFileByID, id)
}

func (r *Repository) FindByRecipient(ctx context.Context, userName string, page domain.Page) (*domain.RecordPage, error) {
	var total int64
	if err := r.db.QueryRow(ctx, CountFilesByRecipient, userName).Scan(&total); err != nil {
		return nil, err
	}

	fs, err := r.fetchMany(ctx, SelectFilesByRecipient, userName, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}

	return &domain.RecordPage{
		Records: fs,
		Page:    page,
		Total:   total,
	}, nil
}

func (r *Repository) FindLatestByUploaderSince(ctx context.Context, uploader uuid.UUID, since time.Time) (*domain.Record, error) {
	return r.fetchOne(ctx, SelectLatestByUploaderSince, uploader, since)
}

func (r *Repository) FindExpiredOrOverdue(ctx context.Context, now time.Time, retention time.Duration) (domain.Records, error) {
	return r.fetchMany(ctx, SelectExpiredOrOverdue, now, now.Add(-retention))
}

func (r *Repository) UpdateFields(ctx context.Context, id domain.ID, patch domain.Patch) (*domain.Record, error) {
	var tags any
	if patch.Tags != nil {
		tags = *patch.Tags
	}

	return r.fetchOne(ctx, UpdateFileFields, id, patch.SenderName, patch.Description, tags, patch.IsPublic)
}

func (r *Repository) Delete(ctx context.Context, id domain.ID) error {
	tag, err := r.db.Exec(ctx, DeleteFileByID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *Repository) IncrementDownloadCount(ctx context.Context, id domain.ID) error {
	tag, err := r.db.Exec(ctx, IncrementDownloadCount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *Repository) Stats(ctx context.Context, now time.Time, retention time.Duration) (domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRow(ctx, SelectStats, now, now.Add(-retention)).Scan(
		&s.TotalFiles,
		&s.TotalStorageBytes,
		&s.ExpiredFiles,
		&s.ExpiredStorageBytes,
	)
	if err != nil {
		return domain.Stats{}, err
	}

	return s, nil
}

func (r *Repository) KnownStorageKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	known := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return known, nil
	}

	rows, err := r.db.Query(ctx, SelectKnownStorageKeys, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, err
		}
		known[key] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return known, nil
}

func (r *Repository) fetchOne(ctx context.Context, query string, args ...any) (*domain.Record, error) {
	f := new(File)
	if err := r.db.QueryRow(ctx, query, args...).Scan(f.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) fetchMany(ctx context.Context, query string, args ...any) (domain.Records, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fs Files
	for rows.Next() {
		f := new(File)
		if err = rows.Scan(f.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&fs), nil
}
