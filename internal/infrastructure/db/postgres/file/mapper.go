package file

import (
	domain "file-share-api/internal/domain/file"
)

func fromDBModel(model *File) *domain.Record {
	tags := model.Tags
	if tags == nil {
		tags = []string{}
	}

	var r = &domain.Record{
		ID:           model.ID,
		FileName:     model.FileName,
		OriginalName: model.OriginalName,
		StorageKey:   model.StorageKey,
		MimeType:     model.MimeType,
		SizeBytes:    model.SizeBytes,

		UploadedBy:        model.UploadedBy,
		RecipientUserName: model.RecipientUserName,
		SenderName:        model.SenderName,
		Description:       model.Description,
		Tags:              tags,
		IsPublic:          model.IsPublic,
		DownloadCount:     model.DownloadCount,

		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}

	return r
}

func fromDBModels(models *Files) domain.Records {
	rs := make(domain.Records, len(*models))
	for idx, f := range *models {
		rs[idx] = fromDBModel(f)
	}

	return rs
}
