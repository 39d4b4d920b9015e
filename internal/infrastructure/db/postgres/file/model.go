package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		ID           uuid.UUID
		FileName     string
		OriginalName string
		StorageKey   string
		MimeType     string
		SizeBytes    int64

		UploadedBy        uuid.UUID
		RecipientUserName string
		SenderName        string
		Description       string
		Tags              []string
		IsPublic          bool
		DownloadCount     int64

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Files []*File
)

func (f *File) scanTargets() []any {
	return []any{
		&f.ID,
		&f.FileName,
		&f.OriginalName,
		&f.StorageKey,
		&f.MimeType,
		&f.SizeBytes,

		&f.UploadedBy,
		&f.RecipientUserName,
		&f.SenderName,
		&f.Description,
		&f.Tags,
		&f.IsPublic,
		&f.DownloadCount,

		&f.CreatedAt,
		&f.ExpiresAt,
	}
}
