// Package parquet provides data structures and functions for exporting
// classification run data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/cqscope/cqscope/schema"
)

// Run represents a single stored analysis run with metadata.
// This struct maps to the cqscope_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// SiteID is the monitoring site the run covered
	SiteID string `parquet:"site_id,snappy"`

	// Command is the CLI command that produced the run
	Command string `parquet:"command,snappy"`

	// Status is the lifecycle state: pending, completed or failed
	Status string `parquet:"status,snappy"`

	// StartedAt is when the run began
	StartedAt time.Time `parquet:"started_at,snappy"`

	// EndedAt is when the run completed (nullable)
	EndedAt *time.Time `parquet:"ended_at,optional,snappy"`

	// RowCount is the number of classification rows the run produced
	RowCount int32 `parquet:"row_count,snappy"`

	// ErrorText carries the failure message for failed runs (nullable)
	ErrorText *string `parquet:"error_text,optional,snappy"`
}

// SegmentRow represents one classified segment in a run.
// This struct maps to the cqscope_segment_rows database table.
type SegmentRow struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// SiteID is the monitoring site
	SiteID string `parquet:"site_id,snappy"`

	// Time is the segment end timestamp the phase applies to
	Time time.Time `parquet:"time,snappy"`

	// Phase is the single-character geochemical phase label
	Phase string `parquet:"phase,snappy"`

	// Confidence is the classifier confidence in [0, 1]
	Confidence float64 `parquet:"confidence,snappy"`

	// Rules is the semicolon-joined list of triggered rule identifiers
	Rules string `parquet:"rules,snappy"`

	// Slope is the windowed log-log C-Q slope (nullable, missing input)
	Slope *float64 `parquet:"slope,optional,snappy"`

	// CVRatio is the windowed CVc/CVq ratio (nullable, missing input)
	CVRatio *float64 `parquet:"cv_ratio,optional,snappy"`

	// Q is the discharge at the segment end (nullable)
	Q *float64 `parquet:"q,optional,snappy"`

	// C is the concentration at the segment end (nullable)
	C *float64 `parquet:"c,optional,snappy"`

	// Behavior is the simple point-to-point behavior label
	Behavior string `parquet:"behavior,snappy"`

	// FlowPhase locates the segment within the discharge cycle
	FlowPhase string `parquet:"flow_phase,snappy"`

	// HIndex is the windowed hysteresis index (nullable)
	HIndex *float64 `parquet:"h_index,optional,snappy"`

	// LoopClass is the loop direction call for the window
	LoopClass string `parquet:"loop_class,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// WriteSegmentRowsParquet writes a slice of SegmentRow structs to a Parquet file.
func WriteSegmentRowsParquet(data []SegmentRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the SegmentRow struct tags
	writer := parquet.NewGenericWriter[SegmentRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		run := Run{
			RunID:     record.ID,
			SiteID:    record.SiteID,
			Command:   record.Command,
			Status:    string(record.Status),
			StartedAt: record.StartedAt,
			RowCount:  int32(record.Rows),
		}
		if !record.EndedAt.IsZero() {
			endedAt := record.EndedAt
			run.EndedAt = &endedAt
		}
		if record.Error != "" {
			errText := record.Error
			run.ErrorText = &errText
		}
		result[i] = run
	}
	return result
}

// ConvertSegmentRowRecords converts schema.SegmentRowRecord to SegmentRow
// for Parquet export. NaN metrics become nulls rather than sentinel values.
func ConvertSegmentRowRecords(records []schema.SegmentRowRecord) []SegmentRow {
	result := make([]SegmentRow, len(records))
	for i, record := range records {
		result[i] = SegmentRow{
			RunID:      record.RunID,
			SiteID:     record.SiteID,
			Time:       record.Time,
			Phase:      record.Phase,
			Confidence: record.Confidence,
			Rules:      record.Rule,
			Slope:      optionalFloat(record.Slope),
			CVRatio:    optionalFloat(record.CVRatio),
			Q:          optionalFloat(record.Q),
			C:          optionalFloat(record.C),
			Behavior:   record.Behavior,
			FlowPhase:  record.FlowPhase,
			HIndex:     optionalFloat(record.HIndex),
			LoopClass:  record.LoopClass,
		}
	}
	return result
}

// ConvertClassificationRows flattens live classification output into
// SegmentRow records for direct parquet output (no run store involved).
func ConvertClassificationRows(out *schema.ClassificationOutput) []SegmentRow {
	result := make([]SegmentRow, len(out.Rows))
	for i, row := range out.Rows {
		result[i] = SegmentRow{
			SiteID:     row.SiteID,
			Time:       row.Time,
			Phase:      string(row.Phase),
			Confidence: row.Confidence,
			Rules:      strings.Join(row.Rules, ";"),
			Slope:      optionalFloat(row.Slope),
			CVRatio:    optionalFloat(row.CVRatio),
			Q:          optionalFloat(row.Q),
			C:          optionalFloat(row.C),
			Behavior:   string(row.Behavior),
			FlowPhase:  string(row.FlowPhase),
			HIndex:     optionalFloat(row.HIndex),
			LoopClass:  string(row.LoopClass),
		}
	}
	return result
}

func optionalFloat(v float64) *float64 {
	if v != v { // NaN
		return nil
	}
	return &v
}
