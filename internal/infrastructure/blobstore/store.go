package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/domain/file"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrAccessDenied   = errors.New("object store access denied")
)

// Backend is one object store implementation. Missing objects and refused
// credentials are reported by wrapping ErrObjectNotFound and ErrAccessDenied.
type Backend interface {
	Name() string
	PutObject(ctx context.Context, key string, data []byte, mimeType string) error
	RemoveObject(ctx context.Context, key string) error
	StatObject(ctx context.Context, key string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	ListObjects(ctx context.Context, prefix string) ([]ports.BlobInfo, error)
}

// Store retries transient backend failures with a constant backoff.
// Not-found, access-denied and cancellation are returned at once.
type Store struct {
	backend  Backend
	logger   *zap.Logger
	attempts int
	interval time.Duration
}

func New(backend Backend, logger *zap.Logger, attempts int, interval time.Duration) *Store {
	if attempts < 1 {
		attempts = 1
	}
	return &Store{
		backend:  backend,
		logger:   logger.Named("blobstore").With(zap.String("backend", backend.Name())),
		attempts: attempts,
		interval: interval,
	}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, mimeType string) error {
	err := s.retry(ctx, "put", key, func() error {
		return s.backend.PutObject(ctx, key, data, mimeType)
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) bool {
	err := s.retry(ctx, "delete", key, func() error {
		return s.backend.RemoveObject(ctx, key)
	})
	if err != nil && !errors.Is(err, ErrObjectNotFound) {
		s.logger.Error("blob delete failed", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	err := s.retry(ctx, "stat", key, func() error {
		return s.backend.StatObject(ctx, key)
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrObjectNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := s.retry(ctx, "get", key, func() error {
		var err error
		rc, err = s.backend.GetObject(ctx, key)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, file.ErrBlobMissing
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	return rc, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]ports.BlobInfo, error) {
	var out []ports.BlobInfo
	err := s.retry(ctx, "list", prefix, func() error {
		var err error
		out, err = s.backend.ListObjects(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	return out, nil
}

func (s *Store) retry(ctx context.Context, op, key string, fn func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), uint64(s.attempts-1)),
		ctx,
	)

	return backoff.RetryNotify(
		func() error {
			err := fn()
			if err != nil && isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		policy,
		func(err error, wait time.Duration) {
			s.logger.Warn("blob store call failed, retrying",
				zap.String("op", op),
				zap.String("key", key),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	)
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
