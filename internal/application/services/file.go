package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/domain/file"
	"file-share-api/internal/infrastructure/metrics"
)

type FileService struct {
	ingestor *UploadIngestor
	repo     file.Repository
	blobs    ports.BlobStore
	users    ports.UserDirectory
	events   ports.EventPublisher
	m        *metrics.Metrics
	log      *zap.Logger
}

func NewFileService(
	ingestor *UploadIngestor,
	repo file.Repository,
	blobs ports.BlobStore,
	users ports.UserDirectory,
	events ports.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) ports.FileService {
	return &FileService{
		ingestor: ingestor,
		repo:     repo,
		blobs:    blobs,
		users:    users,
		events:   events,
		m:        m,
		log:      logger.Named("files"),
	}
}

func (fs *FileService) Upload(ctx context.Context, actor file.Actor, mr *multipart.Reader) (file.IngestResult, error) {
	res, err := fs.ingestor.Ingest(ctx, actor, mr)
	if err == nil && res.Record != nil {
		res.Record.Uploader = &file.Uploader{ID: actor.ID, UserName: actor.Username, Email: actor.Email}
	}

	return res, err
}

// List returns the files addressed to actor, newest first.
func (fs *FileService) List(ctx context.Context, actor file.Actor, page file.Page) (*file.RecordPage, error) {
	page = file.NewPage(page.Number, page.Limit)

	rp, err := fs.repo.FindByRecipient(ctx, actor.Username, page)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	fs.resolveUploaders(ctx, rp.Records...)

	return rp, nil
}

func (fs *FileService) Get(ctx context.Context, actor file.Actor, id file.ID) (*file.Record, error) {
	rec, err := fs.authorize(ctx, actor, id, func(p file.Permissions) bool { return p.Read })
	if err != nil {
		return nil, err
	}
	fs.resolveUploaders(ctx, rec)

	return rec, nil
}

// Download opens the blob and counts the download. The returned Body must be
// closed by the caller.
func (fs *FileService) Download(ctx context.Context, actor file.Actor, id file.ID) (*file.Download, error) {
	rec, err := fs.authorize(ctx, actor, id, func(p file.Permissions) bool { return p.Read })
	if err != nil {
		return nil, err
	}

	ok, err := fs.blobs.Exists(ctx, rec.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", file.ErrStorageReadFailed, err)
	}
	if !ok {
		fs.log.Warn("record without blob", zap.String("file_id", rec.ID.String()), zap.String("storage_key", rec.StorageKey))
		return nil, file.ErrBlobMissing
	}

	body, err := fs.blobs.Open(ctx, rec.StorageKey)
	if err != nil {
		if errors.Is(err, file.ErrBlobMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", file.ErrStorageReadFailed, err)
	}

	if err = fs.repo.IncrementDownloadCount(ctx, rec.ID); err != nil {
		_ = body.Close()
		if errors.Is(err, file.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("count download: %w", err)
	}
	rec.DownloadCount++
	fs.m.Downloads.Inc()

	return &file.Download{Record: rec, Body: body}, nil
}

// Update applies the sender-only patch. An empty patch returns the record unchanged.
func (fs *FileService) Update(ctx context.Context, actor file.Actor, id file.ID, patch file.Patch) (*file.Record, error) {
	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	rec, err := fs.authorize(ctx, actor, id, func(p file.Permissions) bool { return p.Update })
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		fs.resolveUploaders(ctx, rec)
		return rec, nil
	}

	updated, err := fs.repo.UpdateFields(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update file: %w", err)
	}
	if updated == nil {
		return nil, file.ErrNotFound
	}

	fs.events.Publish(file.NewEvent(file.EventUpdated, actor.ID.String(), updated))
	fs.resolveUploaders(ctx, updated)

	return updated, nil
}

// Delete removes the blob on a best-effort basis, then the record.
func (fs *FileService) Delete(ctx context.Context, actor file.Actor, id file.ID) error {
	rec, err := fs.authorize(ctx, actor, id, func(p file.Permissions) bool { return p.Delete })
	if err != nil {
		return err
	}

	if !fs.blobs.Delete(ctx, rec.StorageKey) {
		fs.log.Warn("blob delete failed, leaving it to the sweeper",
			zap.String("file_id", rec.ID.String()),
			zap.String("storage_key", rec.StorageKey),
		)
	}

	if err = fs.repo.Delete(ctx, rec.ID); err != nil {
		if errors.Is(err, file.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete file: %w", err)
	}

	fs.events.Publish(file.NewEvent(file.EventDeleted, actor.ID.String(), rec))

	return nil
}

func (fs *FileService) authorize(
	ctx context.Context,
	actor file.Actor,
	id file.ID,
	allowed func(file.Permissions) bool,
) (*file.Record, error) {
	rec, err := fs.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find file: %w", err)
	}
	if rec == nil {
		return nil, file.ErrNotFound
	}
	if !allowed(file.Evaluate(actor, rec)) {
		return nil, file.ErrAccessDenied
	}

	return rec, nil
}

// resolveUploaders fills Record.Uploader. A failed lookup leaves it nil and
// the record is still returned.
func (fs *FileService) resolveUploaders(ctx context.Context, recs ...*file.Record) {
	seen := make(map[file.ID]*file.Uploader, len(recs))
	for _, rec := range recs {
		up, ok := seen[rec.UploadedBy]
		if !ok {
			u, err := fs.users.FindByID(ctx, rec.UploadedBy)
			if err != nil {
				fs.log.Warn("uploader lookup failed", zap.String("user_id", rec.UploadedBy.String()), zap.Error(err))
			}
			if u != nil {
				up = &file.Uploader{ID: u.UUID, UserName: u.UserName, Email: u.Email}
			}
			seen[rec.UploadedBy] = up
		}
		rec.Uploader = up
	}
}

func normalizePatch(p file.Patch) (file.Patch, error) {
	if p.SenderName != nil {
		v := strings.TrimSpace(*p.SenderName)
		if v == "" {
			return p, file.Invalid("sender name must not be empty")
		}
		p.SenderName = &v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		p.Description = &v
	}
	if p.Tags != nil {
		v := file.CleanTags(*p.Tags)
		p.Tags = &v
	}

	return p, nil
}
