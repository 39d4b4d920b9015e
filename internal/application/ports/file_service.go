package ports

import (
	"context"
	"mime/multipart"

	"file-share-api/internal/domain/file"
)

type FileService interface {
	Upload(ctx context.Context, actor file.Actor, mr *multipart.Reader) (file.IngestResult, error)
	List(ctx context.Context, actor file.Actor, page file.Page) (*file.RecordPage, error)
	Get(ctx context.Context, actor file.Actor, id file.ID) (*file.Record, error)
	Download(ctx context.Context, actor file.Actor, id file.ID) (*file.Download, error)
	Update(ctx context.Context, actor file.Actor, id file.ID, patch file.Patch) (*file.Record, error)
	Delete(ctx context.Context, actor file.Actor, id file.ID) error
}

type Sweeper interface {
	Run(ctx context.Context) error
	Sweep(ctx context.Context) (file.SweepReport, error)
	Stats(ctx context.Context) (file.SweepStats, error)
}
