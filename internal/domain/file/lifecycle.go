package file

import (
	"io"
	"time"
)

// Outcome of one ingestion with respect to the blob it wrote.
type Outcome string

const (
	OutcomeNotStarted Outcome = "not_started"
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeOrphaned   Outcome = "orphaned"
)

type IngestResult struct {
	Record  *Record
	Outcome Outcome
}

// Download is an open blob stream plus the record it belongs to.
// The caller owns Body and must close it.
type Download struct {
	Record *Record
	Body   io.ReadCloser
}

type SweepState string

const (
	SweepIdle     SweepState = "idle"
	SweepSweeping SweepState = "sweeping"
)

type SweepReport struct {
	StartedAt          time.Time
	Duration           time.Duration
	Candidates         int
	Succeeded          int
	Failed             int
	BlobDeleteFailures int
	Vanished           int
	OrphansDeleted     int
}

type SweepStats struct {
	Stats
	ActiveFiles int64
	NextCleanup time.Time
	Interval    time.Duration
	State       SweepState
	LastRun     *SweepReport
}
