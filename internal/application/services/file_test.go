package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"file-share-api/config"
	"file-share-api/internal/domain/file"
	"file-share-api/internal/domain/user"
	"file-share-api/internal/infrastructure/metrics"
)

type fileFixture struct {
	repo      *memRepo
	blobs     *memBlobs
	users     *FakeUserDirectory
	events    *recordingPublisher
	svc       *FileService
	rec       *file.Record
	sender    file.Actor
	recipient file.Actor
	stranger  file.Actor
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()

	f := &fileFixture{
		blobs:     newMemBlobs(),
		events:    &recordingPublisher{},
		sender:    file.Actor{ID: uuid.New(), Username: "sender"},
		recipient: file.Actor{ID: uuid.New(), Username: "recipient"},
		stranger:  file.Actor{ID: uuid.New(), Username: "stranger"},
	}
	f.rec = &file.Record{
		ID:                uuid.New(),
		FileName:          "1700000000000-abcdef0123456789.pdf",
		OriginalName:      "report.pdf",
		StorageKey:        "uploads/1700000000000-abcdef0123456789.pdf",
		MimeType:          "application/pdf",
		SizeBytes:         7,
		UploadedBy:        f.sender.ID,
		RecipientUserName: "recipient",
		SenderName:        "Sender",
		Tags:              []string{"a", "b"},
		CreatedAt:         testNow,
		ExpiresAt:         testNow.Add(file.RetentionWindow),
	}
	f.repo = newMemRepo(f.rec)
	f.users = newUserDirectory("recipient")
	f.users.Add(&user.User{UUID: f.sender.ID, UserName: "sender", Email: "sender@example.com"})
	f.blobs.seed(f.rec.StorageKey, []byte("payload"), testNow)

	m := metrics.NewNop()
	ing := NewUploadIngestor(f.repo, f.blobs, f.users, f.events, m, zap.NewNop(), config.Upload{MaxFileBytes: 1 << 10}, "uploads/")
	f.svc = NewFileService(ing, f.repo, f.blobs, f.users, f.events, m, zap.NewNop()).(*FileService)

	return f
}

func TestFileService_Get(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	for _, a := range []file.Actor{f.sender, f.recipient} {
		got, err := f.svc.Get(ctx, a, f.rec.ID)
		require.NoError(t, err)
		assert.Equal(t, f.rec.OriginalName, got.OriginalName)
	}

	_, err := f.svc.Get(ctx, f.stranger, f.rec.ID)
	require.ErrorIs(t, err, file.ErrAccessDenied)

	_, err = f.svc.Get(ctx, f.sender, uuid.New())
	require.ErrorIs(t, err, file.ErrNotFound)
}

func TestFileService_ResolvesUploader(t *testing.T) {
	ctx := context.Background()
	want := &file.Uploader{UserName: "sender", Email: "sender@example.com"}

	t.Run("get", func(t *testing.T) {
		f := newFileFixture(t)
		want.ID = f.sender.ID

		got, err := f.svc.Get(ctx, f.recipient, f.rec.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Uploader)
	})

	t.Run("list looks each uploader up once", func(t *testing.T) {
		f := newFileFixture(t)
		want.ID = f.sender.ID
		_, err := f.repo.Create(ctx, &file.Record{
			ID:                uuid.New(),
			UploadedBy:        f.sender.ID,
			RecipientUserName: "recipient",
			CreatedAt:         testNow.Add(time.Minute),
		})
		require.NoError(t, err)

		rp, err := f.svc.List(ctx, f.recipient, file.NewPage(1, 10))
		require.NoError(t, err)
		require.Len(t, rp.Records, 2)
		for _, r := range rp.Records {
			assert.Equal(t, want, r.Uploader)
		}
		assert.Equal(t, 1, f.users.ByIDCalls)
	})

	t.Run("update", func(t *testing.T) {
		f := newFileFixture(t)
		want.ID = f.sender.ID
		desc := "changed"

		got, err := f.svc.Update(ctx, f.sender, f.rec.ID, file.Patch{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, want, got.Uploader)
	})

	t.Run("unknown uploader leaves it empty", func(t *testing.T) {
		f := newFileFixture(t)
		f.rec.UploadedBy = uuid.New()
		f.repo = newMemRepo(f.rec)
		f.svc.repo = f.repo

		got, err := f.svc.Get(ctx, f.recipient, f.rec.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Uploader)
	})

	t.Run("lookup error does not fail the read", func(t *testing.T) {
		f := newFileFixture(t)
		f.users.Err = errors.New("db down")

		got, err := f.svc.Get(ctx, f.recipient, f.rec.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Uploader)
	})
}

func TestFileService_GetPublic(t *testing.T) {
	f := newFileFixture(t)
	public := true
	_, err := f.svc.Update(context.Background(), f.sender, f.rec.ID, file.Patch{IsPublic: &public})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), f.stranger, f.rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
}

func TestFileService_Download(t *testing.T) {
	f := newFileFixture(t)

	dl, err := f.svc.Download(context.Background(), f.recipient, f.rec.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	require.NoError(t, dl.Body.Close())

	assert.Equal(t, "payload", string(body))
	assert.Equal(t, int64(1), dl.Record.DownloadCount)
	assert.Equal(t, int64(1), f.repo.Get(f.rec.ID).DownloadCount)
}

func TestFileService_DownloadFailures(t *testing.T) {
	t.Run("stranger is denied before touching the store", func(t *testing.T) {
		f := newFileFixture(t)
		_, err := f.svc.Download(context.Background(), f.stranger, f.rec.ID)
		require.ErrorIs(t, err, file.ErrAccessDenied)
		assert.Zero(t, f.repo.Get(f.rec.ID).DownloadCount)
	})

	t.Run("missing blob is distinct from not found", func(t *testing.T) {
		f := newFileFixture(t)
		f.blobs.Delete(context.Background(), f.rec.StorageKey)

		_, err := f.svc.Download(context.Background(), f.recipient, f.rec.ID)
		require.ErrorIs(t, err, file.ErrBlobMissing)
		assert.NotErrorIs(t, err, file.ErrNotFound)
		assert.Zero(t, f.repo.Get(f.rec.ID).DownloadCount)
	})

	t.Run("record swept between lookup and count closes the stream", func(t *testing.T) {
		f := newFileFixture(t)
		var opened *trackingBody
		f.svc.blobs = &openSpy{memBlobs: f.blobs, onOpen: func(b *trackingBody) {
			opened = b
			_ = f.repo.Delete(context.Background(), f.rec.ID)
		}}

		_, err := f.svc.Download(context.Background(), f.recipient, f.rec.ID)
		require.ErrorIs(t, err, file.ErrNotFound)
		require.NotNil(t, opened)
		assert.True(t, opened.closed)
	})
}

type openSpy struct {
	*memBlobs
	onOpen func(*trackingBody)
}

func (o *openSpy) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := o.memBlobs.Open(ctx, key)
	if err == nil {
		o.onOpen(rc.(*trackingBody))
	}
	return rc, err
}

func TestFileService_Update(t *testing.T) {
	desc := "  new description "
	tags := []string{" x", "y ", "", "x"}
	blank := "   "

	t.Run("sender patches mutable fields", func(t *testing.T) {
		f := newFileFixture(t)

		got, err := f.svc.Update(context.Background(), f.sender, f.rec.ID, file.Patch{Description: &desc, Tags: &tags})
		require.NoError(t, err)
		assert.Equal(t, "new description", got.Description)
		assert.Equal(t, []string{"x", "y"}, got.Tags)
		assert.Equal(t, f.rec.OriginalName, got.OriginalName)
		assert.Equal(t, f.rec.ExpiresAt, got.ExpiresAt)
		assert.Equal(t, []file.EventType{file.EventUpdated}, f.events.Types())
	})

	t.Run("array tags are never split on commas", func(t *testing.T) {
		f := newFileFixture(t)
		tags := []string{" a,b ", "c", ""}

		got, err := f.svc.Update(context.Background(), f.sender, f.rec.ID, file.Patch{Tags: &tags})
		require.NoError(t, err)
		assert.Equal(t, []string{"a,b", "c"}, got.Tags)
	})

	t.Run("recipient and stranger may not update", func(t *testing.T) {
		f := newFileFixture(t)
		for _, a := range []file.Actor{f.recipient, f.stranger} {
			_, err := f.svc.Update(context.Background(), a, f.rec.ID, file.Patch{Description: &desc})
			require.ErrorIs(t, err, file.ErrAccessDenied)
		}
		assert.Empty(t, f.events.Types())
	})

	t.Run("blank sender name is rejected", func(t *testing.T) {
		f := newFileFixture(t)
		_, err := f.svc.Update(context.Background(), f.sender, f.rec.ID, file.Patch{SenderName: &blank})
		require.ErrorIs(t, err, file.ErrValidationFailed)
	})

	t.Run("empty patch returns the record unchanged", func(t *testing.T) {
		f := newFileFixture(t)
		got, err := f.svc.Update(context.Background(), f.sender, f.rec.ID, file.Patch{})
		require.NoError(t, err)
		assert.Equal(t, f.rec.Description, got.Description)
		assert.Empty(t, f.events.Types())
	})
}

func TestFileService_Delete(t *testing.T) {
	t.Run("recipient deletes blob and record", func(t *testing.T) {
		f := newFileFixture(t)

		require.NoError(t, f.svc.Delete(context.Background(), f.recipient, f.rec.ID))
		assert.Zero(t, f.repo.Len())
		assert.False(t, f.blobs.Has(f.rec.StorageKey))
		assert.Equal(t, []file.EventType{file.EventDeleted}, f.events.Types())

		err := f.svc.Delete(context.Background(), f.recipient, f.rec.ID)
		require.ErrorIs(t, err, file.ErrNotFound)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		f := newFileFixture(t)
		require.ErrorIs(t, f.svc.Delete(context.Background(), f.stranger, f.rec.ID), file.ErrAccessDenied)
		assert.Equal(t, 1, f.repo.Len())
		assert.True(t, f.blobs.Has(f.rec.StorageKey))
	})

	t.Run("blob failure does not block record delete", func(t *testing.T) {
		f := newFileFixture(t)
		f.blobs.FailDelete = true

		require.NoError(t, f.svc.Delete(context.Background(), f.sender, f.rec.ID))
		assert.Zero(t, f.repo.Len())
	})
}

func TestFileService_List(t *testing.T) {
	f := newFileFixture(t)
	for i := 1; i <= 12; i++ {
		_, err := f.repo.Create(context.Background(), &file.Record{
			ID:                uuid.New(),
			RecipientUserName: "recipient",
			CreatedAt:         testNow.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	rp, err := f.svc.List(context.Background(), f.recipient, file.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(13), rp.Total)
	assert.Len(t, rp.Records, 10)
	assert.Equal(t, 2, rp.TotalPages())
	assert.True(t, rp.HasNext())
	assert.False(t, rp.HasPrev())
	assert.True(t, rp.Records[0].CreatedAt.After(rp.Records[1].CreatedAt))

	rp, err = f.svc.List(context.Background(), f.recipient, file.NewPage(2, 10))
	require.NoError(t, err)
	assert.Len(t, rp.Records, 3)
	assert.False(t, rp.HasNext())
	assert.True(t, rp.HasPrev())

	rp, err = f.svc.List(context.Background(), f.stranger, file.NewPage(1, 10))
	require.NoError(t, err)
	assert.Zero(t, rp.Total)
}
