package blobstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"file-share-api/config"
)

// NewFromConfig builds the Store for the configured backend.
func NewFromConfig(ctx context.Context, cfg config.Storage, logger *zap.Logger) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Backend {
	case config.StorageMinio:
		backend, err = NewMinio(ctx, cfg)
	case config.StorageS3:
		backend, err = NewS3(ctx, cfg)
	case config.StorageLocal:
		backend, err = NewLocal(cfg.LocalRoot)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Backend, err)
	}

	logger.Info("blob store ready", zap.String("backend", backend.Name()), zap.String("bucket", cfg.Bucket))

	return New(backend, logger, cfg.RetryAttempts, cfg.RetryInterval), nil
}
