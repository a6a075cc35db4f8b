// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/cqscope/cqscope/schema"
)

// RunManager defines the interface for managing run stores.
// This allows the storage layer to be mocked for testing.
type RunManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking classification and metrics
// runs and storing their per-segment rows.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(siteID, command string, startedAt time.Time) (int64, error)

	// EndRun updates the run with completion data.
	EndRun(runID int64, endedAt time.Time, rows int, runErr error) error

	// RecordRows stores the flattened classification rows for a run.
	RecordRows(runID int64, rows []schema.SegmentRowRecord) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetRows returns the stored rows for a run, in time order.
	GetRows(runID int64) ([]schema.SegmentRowRecord, error)

	// GetStatus returns status information about the run store.
	GetStatus() (schema.RunStoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
