package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		ID                uuid.UUID `json:"id"`
		FileName          string    `json:"fileName"`
		OriginalName      string    `json:"originalName"`
		MimeType          string    `json:"mimeType"`
		FileSize          int64     `json:"fileSize"`
		UploadedBy        Uploader  `json:"uploadedBy"`
		SenderName        string    `json:"senderName"`
		RecipientUserName string    `json:"recipientUserName"`
		Description       string    `json:"description"`
		Tags              []string  `json:"tags"`
		IsPublic          bool      `json:"isPublic"`
		DownloadCount     int64     `json:"downloadCount"`
		CreatedAt         time.Time `json:"createdAt"`
		ExpiresAt         time.Time `json:"expiresAt"`
	}
	// Uploader carries the id always; name and email when the user resolved.
	Uploader struct {
		ID       uuid.UUID `json:"id"`
		UserName string    `json:"userName,omitempty"`
		Email    string    `json:"email,omitempty"`
	}
	Pagination struct {
		CurrentPage int   `json:"currentPage"`
		Limit       int   `json:"limit"`
		TotalPages  int   `json:"totalPages"`
		TotalFiles  int64 `json:"totalFiles"`
		HasNext     bool  `json:"hasNext"`
		HasPrev     bool  `json:"hasPrev"`
	}
	ListResponse struct {
		Files      []File     `json:"files"`
		Pagination Pagination `json:"pagination"`
	}
	Envelope struct {
		Message string `json:"message,omitempty"`
		File    File   `json:"file"`
	}
	DeleteResponse struct {
		Message string    `json:"message"`
		FileID  uuid.UUID `json:"fileId"`
	}

	SweepReport struct {
		StartedAt          time.Time `json:"startedAt"`
		DurationMs         int64     `json:"duration"`
		Candidates         int       `json:"candidates"`
		Succeeded          int       `json:"succeeded"`
		Failed             int       `json:"failed"`
		BlobDeleteFailures int       `json:"blobDeleteFailures"`
		Vanished           int       `json:"vanished"`
		OrphansDeleted     int       `json:"orphansDeleted"`
	}
	Stats struct {
		TotalFiles           int64        `json:"totalFiles"`
		ExpiredFiles         int64        `json:"expiredFiles"`
		ActiveFiles          int64        `json:"activeFiles"`
		TotalStorageBytes    int64        `json:"totalStorageBytes"`
		ExpiredStorageBytes  int64        `json:"expiredStorageBytes"`
		TotalStorageMB       float64      `json:"totalStorageMB"`
		ExpiredStorageMB     float64      `json:"expiredStorageMB"`
		NextCleanup          *time.Time   `json:"nextCleanup"`
		CleanupIntervalHours float64      `json:"cleanupIntervalHours"`
		State                string       `json:"state"`
		LastRun              *SweepReport `json:"lastRun"`
	}
	CleanupResponse struct {
		Message string      `json:"message"`
		Report  SweepReport `json:"report"`
	}
)
