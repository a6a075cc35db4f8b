package schema

import "time"

// RunStatus tracks a stored analysis run through its lifecycle.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is one persisted analysis run.
type RunRecord struct {
	ID        int64
	SiteID    string
	Command   string // "classify" or "metrics"
	Status    RunStatus
	StartedAt time.Time
	EndedAt   time.Time
	Rows      int
	Error     string
}

// RunStoreStatus summarizes a run store for status inspection.
type RunStoreStatus struct {
	Backend   DatabaseBackend
	Location  string
	Runs      int64
	Rows      int64
	LastRunAt time.Time
}

// SegmentRowRecord is one persisted classification row, flattened for SQL
// storage. LoopClass is stored as its string form.
type SegmentRowRecord struct {
	RunID      int64
	SiteID     string
	Time       time.Time
	Phase      string
	Confidence float64
	Rule       string
	Slope      float64
	CVRatio    float64
	Q          float64
	C          float64
	Behavior   string
	FlowPhase  string
	HIndex     float64
	LoopClass  string
}
