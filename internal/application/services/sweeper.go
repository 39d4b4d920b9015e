package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"file-share-api/config"
	"file-share-api/internal/application/ports"
	"file-share-api/internal/domain/file"
	"file-share-api/internal/infrastructure/metrics"
)

const knownKeysChunk = 500

var ErrSweepInProgress = errors.New("cleanup already in progress")

// ExpirationSweeper deletes expired blob+record pairs on a fixed interval and,
// when the blob store can list keys, reclaims blobs no record points at.
type ExpirationSweeper struct {
	repo      file.Repository
	blobs     ports.BlobStore
	lister    ports.BlobLister
	events    ports.EventPublisher
	m         *metrics.Metrics
	log       *zap.Logger
	cfg       config.Sweeper
	retention time.Duration
	prefix    string
	now       func() time.Time

	mu        sync.Mutex
	inProcess bool
	nextRun   time.Time
	lastRun   *file.SweepReport
}

// NewExpirationSweeper enables the orphan pass only when blobs also
// implements ports.BlobLister.
func NewExpirationSweeper(
	repo file.Repository,
	blobs ports.BlobStore,
	events ports.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg config.Sweeper,
	retention time.Duration,
	keyPrefix string,
) *ExpirationSweeper {
	if retention <= 0 {
		retention = file.RetentionWindow
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}

	s := &ExpirationSweeper{
		repo:      repo,
		blobs:     blobs,
		events:    events,
		m:         m,
		log:       logger.Named("sweeper"),
		cfg:       cfg,
		retention: retention,
		prefix:    keyPrefix,
		now:       time.Now,
	}
	if l, ok := blobs.(ports.BlobLister); ok && cfg.ReconcileOrphans {
		s.lister = l
	}

	return s
}

// Run sweeps once immediately, then every interval until ctx is done.
func (s *ExpirationSweeper) Run(ctx context.Context) error {
	s.log.Info("starting sweeper",
		zap.Duration("interval", s.cfg.Interval),
		zap.Bool("reconcile_orphans", s.lister != nil),
	)
	defer s.log.Info("sweeper gracefully stopped")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ExpirationSweeper) tick(ctx context.Context) {
	s.mu.Lock()
	s.nextRun = s.now().Add(s.cfg.Interval)
	s.mu.Unlock()

	if _, err := s.Sweep(ctx); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			s.log.Info("scheduled sweep skipped, another run is in progress")
			return
		}
		if ctx.Err() == nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
	}
}

// Sweep performs one pass. Per-record failures are counted, never returned;
// only a failed candidate query or cancellation fails the pass.
func (s *ExpirationSweeper) Sweep(ctx context.Context) (file.SweepReport, error) {
	s.mu.Lock()
	if s.inProcess {
		s.mu.Unlock()
		return file.SweepReport{}, ErrSweepInProgress
	}
	s.inProcess = true
	s.mu.Unlock()

	report := file.SweepReport{StartedAt: s.now().UTC()}
	err := s.sweep(ctx, &report)
	report.Duration = s.now().Sub(report.StartedAt)

	result := "ok"
	if err != nil {
		result = "error"
	}
	s.m.SweepRuns.WithLabelValues(result).Inc()
	s.m.SweepSeconds.Observe(report.Duration.Seconds())

	s.mu.Lock()
	s.inProcess = false
	if err == nil {
		last := report
		s.lastRun = &last
	}
	s.mu.Unlock()

	s.log.Info("sweep finished",
		zap.Int("candidates", report.Candidates),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("blob_delete_failures", report.BlobDeleteFailures),
		zap.Int("vanished", report.Vanished),
		zap.Int("orphans_deleted", report.OrphansDeleted),
		zap.Duration("duration", report.Duration),
		zap.Error(err),
	)

	return report, err
}

func (s *ExpirationSweeper) sweep(ctx context.Context, report *file.SweepReport) error {
	now := report.StartedAt

	records, err := s.repo.FindExpiredOrOverdue(ctx, now, s.retention)
	if err != nil {
		return fmt.Errorf("find expired files: %w", err)
	}
	report.Candidates = len(records)

	for _, rec := range records {
		if err = ctx.Err(); err != nil {
			return err
		}
		if !rec.IsOverdue(now, s.retention) {
			s.log.Warn("registry returned a live record, skipping", zap.String("file_id", rec.ID.String()))
			continue
		}
		s.expire(ctx, rec, report)
	}

	if s.lister != nil {
		n, err := s.reconcileOrphans(ctx, now)
		report.OrphansDeleted = n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("orphan reconciliation failed", zap.Error(err))
		}
	}

	return nil
}

// expire deletes the blob then the record. A failed blob delete is counted
// but the record still goes; the orphan pass reclaims the blob later. The pair
// runs on a detached context so cancellation never leaves a record without
// its blob.
func (s *ExpirationSweeper) expire(ctx context.Context, rec *file.Record, report *file.SweepReport) {
	log := s.log.With(zap.String("file_id", rec.ID.String()), zap.String("storage_key", rec.StorageKey))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unwindTimeout)
	defer cancel()

	if !s.blobs.Delete(ctx, rec.StorageKey) {
		report.BlobDeleteFailures++
		log.Warn("expired blob not deleted")
	}

	err := s.repo.Delete(ctx, rec.ID)
	switch {
	case err == nil:
		report.Succeeded++
		s.m.SweepDeleted.Inc()
		s.events.Publish(file.NewEvent(file.EventExpired, "", rec))
	case errors.Is(err, file.ErrNotFound):
		report.Vanished++
	default:
		report.Failed++
		log.Error("expired record not deleted", zap.Error(err))
	}
}

// reconcileOrphans deletes blobs under the upload prefix that no record
// references and that are older than the grace period, so blobs of
// ingestions still in flight are left alone.
func (s *ExpirationSweeper) reconcileOrphans(ctx context.Context, now time.Time) (int, error) {
	blobs, err := s.lister.List(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}

	cutoff := now.Add(-s.cfg.OrphanGrace)
	keys := make([]string, 0, len(blobs))
	for _, b := range blobs {
		if b.LastModified.Before(cutoff) {
			keys = append(keys, b.Key)
		}
	}

	deleted := 0
	for start := 0; start < len(keys); start += knownKeysChunk {
		end := min(start+knownKeysChunk, len(keys))
		chunk := keys[start:end]

		known, err := s.repo.KnownStorageKeys(ctx, chunk)
		if err != nil {
			return deleted, fmt.Errorf("known storage keys: %w", err)
		}
		for _, key := range chunk {
			if _, ok := known[key]; ok {
				continue
			}
			if s.blobs.Delete(ctx, key) {
				deleted++
				s.log.Info("orphan blob deleted", zap.String("storage_key", key))
			}
		}
	}

	return deleted, nil
}

// Stats is read-only and safe to call during a sweep.
func (s *ExpirationSweeper) Stats(ctx context.Context) (file.SweepStats, error) {
	st, err := s.repo.Stats(ctx, s.now().UTC(), s.retention)
	if err != nil {
		return file.SweepStats{}, fmt.Errorf("file stats: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := file.SweepStats{
		Stats:       st,
		ActiveFiles: st.TotalFiles - st.ExpiredFiles,
		NextCleanup: s.nextRun,
		Interval:    s.cfg.Interval,
		State:       file.SweepIdle,
	}
	if s.inProcess {
		out.State = file.SweepSweeping
	}
	if s.lastRun != nil {
		last := *s.lastRun
		out.LastRun = &last
	}

	return out, nil
}
