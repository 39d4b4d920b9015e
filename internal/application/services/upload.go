package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"file-share-api/config"
	"file-share-api/internal/application/ports"
	"file-share-api/internal/domain/file"
	"file-share-api/internal/infrastructure/metrics"
)

const (
	formFieldFile = "file"
	maxFieldBytes = 64 << 10
	unwindTimeout = 10 * time.Second
)

// UploadIngestor turns one multipart upload into one blob plus one record, or
// into nothing. See Ingest.
type UploadIngestor struct {
	repo      file.Repository
	blobs     ports.BlobStore
	users     ports.UserDirectory
	quota     *QuotaGuard
	events    ports.EventPublisher
	m         *metrics.Metrics
	log       *zap.Logger
	maxBytes  int64
	retention time.Duration
	prefix    string
	now       func() time.Time
}

func NewUploadIngestor(
	repo file.Repository,
	blobs ports.BlobStore,
	users ports.UserDirectory,
	events ports.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg config.Upload,
	keyPrefix string,
) *UploadIngestor {
	retention := cfg.Retention
	if retention <= 0 {
		retention = file.RetentionWindow
	}

	return &UploadIngestor{
		repo:      repo,
		blobs:     blobs,
		users:     users,
		quota:     NewQuotaGuard(repo, cfg.QuotaWindow),
		events:    events,
		m:         m,
		log:       logger.Named("ingest"),
		maxBytes:  cfg.MaxFileBytes,
		retention: retention,
		prefix:    keyPrefix,
		now:       time.Now,
	}
}

type (
	uploadPart struct {
		originalName string
		mimeType     string
		data         []byte
	}
	uploadForm struct {
		file   *uploadPart
		fields map[string]string
	}
)

// Ingest runs quota check, stream parse, blob write, field validation,
// recipient lookup and record commit in that order. Any failure after the
// blob write deletes the blob before returning; the original error wins over
// a failed delete, which is reported as OutcomeOrphaned.
func (u *UploadIngestor) Ingest(ctx context.Context, actor file.Actor, mr *multipart.Reader) (res file.IngestResult, err error) {
	res.Outcome = file.OutcomeNotStarted
	defer func() { u.record(actor, res, err) }()

	now := u.now().UTC()

	ok, next, err := u.quota.Allows(ctx, actor.ID, now)
	if err != nil {
		return res, fmt.Errorf("quota check: %w", err)
	}
	if !ok {
		return res, &file.RateLimitedError{NextAllowedAt: next, Window: u.quota.Window()}
	}

	form, err := u.readForm(mr)
	if err != nil {
		return res, err
	}
	if form.file == nil {
		return res, file.Invalid("no file uploaded")
	}

	fileName, key, err := newStorageKey(u.prefix, form.file.originalName, form.file.mimeType, now)
	if err != nil {
		return res, err
	}
	if err = u.blobs.Put(ctx, key, form.file.data, form.file.mimeType); err != nil {
		u.log.Error("blob write failed", zap.String("storage_key", key), zap.Error(err))
		return res, fmt.Errorf("%w: %v", file.ErrStorageWriteFailed, err)
	}

	rec, err := u.commit(ctx, actor, form, fileName, key, now)
	if err != nil {
		res.Outcome = u.unwind(ctx, key)
		return res, err
	}

	res.Record, res.Outcome = rec, file.OutcomeCommitted
	u.events.Publish(file.NewEvent(file.EventUploaded, actor.ID.String(), rec))

	return res, nil
}

func (u *UploadIngestor) commit(
	ctx context.Context,
	actor file.Actor,
	form *uploadForm,
	fileName, key string,
	now time.Time,
) (*file.Record, error) {
	senderName := strings.TrimSpace(form.fields["senderName"])
	if senderName == "" {
		return nil, file.Invalid("sender name is required")
	}
	recipientName := strings.TrimSpace(form.fields["recipientUserName"])
	if recipientName == "" {
		return nil, file.Invalid("recipient username is required")
	}

	recipient, err := u.users.FindByUsername(ctx, recipientName)
	if err != nil {
		return nil, fmt.Errorf("recipient lookup: %w", err)
	}
	if recipient == nil {
		return nil, fmt.Errorf("%w: no user found with username %s", file.ErrRecipientNotFound, recipientName)
	}

	rec, err := u.repo.Create(ctx, &file.Record{
		ID:                uuid.New(),
		FileName:          fileName,
		OriginalName:      form.file.originalName,
		StorageKey:        key,
		MimeType:          form.file.mimeType,
		SizeBytes:         int64(len(form.file.data)),
		UploadedBy:        actor.ID,
		RecipientUserName: recipient.UserName,
		SenderName:        senderName,
		Description:       strings.TrimSpace(form.fields["description"]),
		Tags:              file.ParseTags(form.fields["tags"]),
		CreatedAt:         now,
		ExpiresAt:         now.Add(u.retention),
	})
	if err != nil {
		return nil, fmt.Errorf("create file record: %w", err)
	}

	return rec, nil
}

// unwind runs on a context detached from the request so a client disconnect
// still removes the blob.
func (u *UploadIngestor) unwind(ctx context.Context, key string) file.Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unwindTimeout)
	defer cancel()

	if u.blobs.Delete(ctx, key) {
		return file.OutcomeRolledBack
	}
	u.log.Error("unwind failed, blob orphaned", zap.String("storage_key", key))

	return file.OutcomeOrphaned
}

func (u *UploadIngestor) readForm(mr *multipart.Reader) (*uploadForm, error) {
	form := &uploadForm{fields: make(map[string]string)}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return nil, u.readErr(err)
		}

		if part.FileName() == "" && part.FormName() != formFieldFile {
			v, err := readLimited(part, maxFieldBytes)
			if errors.Is(err, errPartTooLarge) {
				return nil, file.Invalid(fmt.Sprintf("field %s is too long", part.FormName()))
			}
			if err != nil {
				return nil, u.readErr(err)
			}
			form.fields[part.FormName()] = string(v)
			continue
		}

		if form.file != nil {
			return nil, file.Invalid("only one file may be uploaded")
		}

		f, err := u.readFilePart(part)
		if err != nil {
			return nil, err
		}
		form.file = f
	}
}

// readFilePart rejects the content type before reading the body.
func (u *UploadIngestor) readFilePart(part *multipart.Part) (*uploadPart, error) {
	mimeType := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Type")))
	if !file.IsAllowedMimeType(mimeType) {
		return nil, fmt.Errorf("%w: %q is not accepted", file.ErrUnsupportedMediaType, mimeType)
	}

	data, err := readLimited(part, u.maxBytes)
	if err != nil {
		return nil, u.readErr(err)
	}
	if len(data) == 0 {
		return nil, file.Invalid("file is empty")
	}

	return &uploadPart{
		originalName: displayName(part.FileName()),
		mimeType:     mimeType,
		data:         data,
	}, nil
}

func (u *UploadIngestor) readErr(err error) error {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, errPartTooLarge), errors.As(err, &mbe):
		return fmt.Errorf("%w: limit is %d bytes", file.ErrFileTooLarge, u.maxBytes)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return file.Invalid(fmt.Sprintf("malformed multipart body: %v", err))
	}
}

var errPartTooLarge = errors.New("part too large")

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errPartTooLarge
	}

	return data, nil
}

func (u *UploadIngestor) record(actor file.Actor, res file.IngestResult, err error) {
	u.m.Ingest.WithLabelValues(string(res.Outcome)).Inc()

	fields := []zap.Field{
		zap.String("actor_id", actor.ID.String()),
		zap.String("outcome", string(res.Outcome)),
	}
	switch {
	case err == nil:
		u.log.Info("upload committed", append(fields,
			zap.String("file_id", res.Record.ID.String()),
			zap.Int64("size_bytes", res.Record.SizeBytes),
		)...)
	case res.Outcome == file.OutcomeOrphaned:
		u.log.Error("upload failed", append(fields, zap.Error(err))...)
	default:
		u.log.Warn("upload rejected", append(fields, zap.Error(err))...)
	}
}
