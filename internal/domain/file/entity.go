package file

import (
	"time"

	"github.com/google/uuid"
)

const (
	RetentionWindow = 7 * 24 * time.Hour
	QuotaWindow     = 24 * time.Hour

	DefaultPage  = 1
	DefaultLimit = 10
)

type (
	ID     = uuid.UUID
	Record struct {
		ID           ID
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

		// Uploader is resolved on read and never stored.
		Uploader *Uploader
	}
	Records []*Record

	Uploader struct {
		ID       uuid.UUID
		UserName string
		Email    string
	}

	// Patch holds the sender-mutable fields. Nil means unchanged.
	Patch struct {
		SenderName  *string
		Description *string
		Tags        *[]string
		IsPublic    *bool
	}

	Page struct {
		Number int
		Limit  int
	}
	RecordPage struct {
		Records Records
		Page    Page
		Total   int64
	}

	// Actor is the authenticated caller.
	Actor struct {
		ID       uuid.UUID
		Username string
		Email    string
	}

	Stats struct {
		TotalFiles          int64
		ExpiredFiles        int64
		TotalStorageBytes   int64
		ExpiredStorageBytes int64
	}
)

// NewPage applies defaults to non-positive values.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

func (rp *RecordPage) TotalPages() int {
	if rp.Page.Limit <= 0 {
		return 0
	}
	return int((rp.Total + int64(rp.Page.Limit) - 1) / int64(rp.Page.Limit))
}

func (rp *RecordPage) HasNext() bool {
	return int64(rp.Page.Offset()+len(rp.Records)) < rp.Total
}

func (rp *RecordPage) HasPrev() bool { return rp.Page.Number > 1 }

// IsOverdue reports whether the sweeper may reclaim the record. Both predicates
// are evaluated so a tampered expiresAt or skewed clock cannot keep a record alive.
func (r *Record) IsOverdue(now time.Time, retention time.Duration) bool {
	return !r.ExpiresAt.After(now) || !r.CreatedAt.After(now.Add(-retention))
}

func (p Patch) IsEmpty() bool {
	return p.SenderName == nil && p.Description == nil && p.Tags == nil && p.IsPublic == nil
}
