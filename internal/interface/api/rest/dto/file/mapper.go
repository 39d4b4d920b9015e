package file

import (
	"math"

	domain "file-share-api/internal/domain/file"
)

const bytesPerMB = 1024 * 1024

func ToResponseFile(r domain.Record) File {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	uploader := Uploader{ID: r.UploadedBy}
	if r.Uploader != nil {
		uploader.UserName = r.Uploader.UserName
		uploader.Email = r.Uploader.Email
	}

	return File{
		ID:                r.ID,
		FileName:          r.FileName,
		OriginalName:      r.OriginalName,
		MimeType:          r.MimeType,
		FileSize:          r.SizeBytes,
		UploadedBy:        uploader,
		SenderName:        r.SenderName,
		RecipientUserName: r.RecipientUserName,
		Description:       r.Description,
		Tags:              tags,
		IsPublic:          r.IsPublic,
		DownloadCount:     r.DownloadCount,
		CreatedAt:         r.CreatedAt,
		ExpiresAt:         r.ExpiresAt,
	}
}

func ToListResponse(rp *domain.RecordPage) ListResponse {
	files := make([]File, len(rp.Records))
	for idx, r := range rp.Records {
		files[idx] = ToResponseFile(*r)
	}

	return ListResponse{
		Files: files,
		Pagination: Pagination{
			CurrentPage: rp.Page.Number,
			Limit:       rp.Page.Limit,
			TotalPages:  rp.TotalPages(),
			TotalFiles:  rp.Total,
			HasNext:     rp.HasNext(),
			HasPrev:     rp.HasPrev(),
		},
	}
}

func ToDomainPatch(req UpdateRequest) domain.Patch {
	p := domain.Patch{
		SenderName:  req.SenderName,
		Description: req.Description,
	}
	if req.Tags != nil {
		tags := []string(*req.Tags)
		p.Tags = &tags
	}
	if req.IsPublic != nil {
		v := bool(*req.IsPublic)
		p.IsPublic = &v
	}

	return p
}

func ToSweepReport(r domain.SweepReport) SweepReport {
	return SweepReport{
		StartedAt:          r.StartedAt,
		DurationMs:         r.Duration.Milliseconds(),
		Candidates:         r.Candidates,
		Succeeded:          r.Succeeded,
		Failed:             r.Failed,
		BlobDeleteFailures: r.BlobDeleteFailures,
		Vanished:           r.Vanished,
		OrphansDeleted:     r.OrphansDeleted,
	}
}

func ToStats(s domain.SweepStats) Stats {
	out := Stats{
		TotalFiles:           s.TotalFiles,
		ExpiredFiles:         s.ExpiredFiles,
		ActiveFiles:          s.ActiveFiles,
		TotalStorageBytes:    s.TotalStorageBytes,
		ExpiredStorageBytes:  s.ExpiredStorageBytes,
		TotalStorageMB:       toMB(s.TotalStorageBytes),
		ExpiredStorageMB:     toMB(s.ExpiredStorageBytes),
		CleanupIntervalHours: s.Interval.Hours(),
		State:                string(s.State),
	}
	if !s.NextCleanup.IsZero() {
		next := s.NextCleanup.UTC()
		out.NextCleanup = &next
	}
	if s.LastRun != nil {
		last := ToSweepReport(*s.LastRun)
		out.LastRun = &last
	}

	return out
}

// toMB rounds to two decimals.
func toMB(b int64) float64 {
	return math.Round(float64(b)/bytesPerMB*100) / 100
}
