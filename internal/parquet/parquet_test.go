package parquet

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/schema"
)

func TestRunStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	sch := parquet.SchemaOf(new(Run))
	require.NotNil(t, sch)

	expectedColumns := []string{
		"run_id",
		"site_id",
		"command",
		"status",
		"started_at",
		"ended_at",
		"row_count",
		"error_text",
	}

	for _, colName := range expectedColumns {
		col, ok := sch.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestSegmentRowStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	sch := parquet.SchemaOf(new(SegmentRow))
	require.NotNil(t, sch)

	expectedColumns := []string{
		"run_id",
		"site_id",
		"time",
		"phase",
		"confidence",
		"rules",
		"slope",
		"cv_ratio",
		"q",
		"c",
		"behavior",
		"flow_phase",
		"h_index",
		"loop_class",
	}

	for _, colName := range expectedColumns {
		col, ok := sch.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func sampleRunRecords() []schema.RunRecord {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []schema.RunRecord{
		{
			ID:        1,
			SiteID:    "site-a",
			Command:   "classify",
			Status:    schema.RunStatusCompleted,
			StartedAt: started,
			EndedAt:   started.Add(2 * time.Second),
			Rows:      48,
		},
		{
			ID:        2,
			SiteID:    "site-b",
			Command:   "metrics",
			Status:    schema.RunStatusFailed,
			StartedAt: started.Add(time.Hour),
			EndedAt:   started.Add(time.Hour + time.Second),
			Error:     "series too short",
		},
		// Still pending, no end time or error yet
		{
			ID:        3,
			SiteID:    "site-a",
			Command:   "classify",
			Status:    schema.RunStatusPending,
			StartedAt: started.Add(2 * time.Hour),
		},
	}
}

func sampleSegmentRowRecords() []schema.SegmentRowRecord {
	rowTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []schema.SegmentRowRecord{
		{
			RunID:      1,
			SiteID:     "site-a",
			Time:       rowTime,
			Phase:      "F",
			Confidence: 0.85,
			Rule:       "positive_cq_slope;chemodynamic_ratio",
			Slope:      0.42,
			CVRatio:    1.3,
			Q:          12.5,
			C:          3.1,
			Behavior:   "connectivity",
			FlowPhase:  "rising",
			HIndex:     0.25,
			LoopClass:  "clockwise",
		},
		// Degraded row with no usable metrics
		{
			RunID:      1,
			SiteID:     "site-a",
			Time:       rowTime.Add(24 * time.Hour),
			Phase:      "V",
			Confidence: 0.3,
			Rule:       "reduced_data_quality",
			Slope:      math.NaN(),
			CVRatio:    math.NaN(),
			Q:          14.0,
			C:          math.NaN(),
			HIndex:     math.NaN(),
		},
	}
}

func TestConvertRunRecords(t *testing.T) {
	runs := ConvertRunRecords(sampleRunRecords())
	require.Len(t, runs, 3)

	assert.Equal(t, int64(1), runs[0].RunID)
	assert.Equal(t, "completed", runs[0].Status)
	require.NotNil(t, runs[0].EndedAt)
	assert.Nil(t, runs[0].ErrorText, "Completed run should have no error text")

	require.NotNil(t, runs[1].ErrorText)
	assert.Equal(t, "series too short", *runs[1].ErrorText)

	// Pending run has zero end time and no error
	assert.Nil(t, runs[2].EndedAt, "Pending run should have nil EndedAt")
	assert.Nil(t, runs[2].ErrorText, "Pending run should have nil ErrorText")
}

func TestConvertSegmentRowRecords(t *testing.T) {
	rows := ConvertSegmentRowRecords(sampleSegmentRowRecords())
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Slope)
	assert.InDelta(t, 0.42, *rows[0].Slope, 1e-9)
	require.NotNil(t, rows[0].HIndex)
	assert.InDelta(t, 0.25, *rows[0].HIndex, 1e-9)

	// NaN metrics become nulls
	assert.Nil(t, rows[1].Slope, "NaN slope should convert to nil")
	assert.Nil(t, rows[1].CVRatio, "NaN ratio should convert to nil")
	assert.Nil(t, rows[1].C, "NaN concentration should convert to nil")
	require.NotNil(t, rows[1].Q)
	assert.InDelta(t, 14.0, *rows[1].Q, 1e-9)
}

func TestConvertClassificationRows(t *testing.T) {
	out := &schema.ClassificationOutput{
		SiteID: "site-a",
		Rows: []schema.ClassificationRow{
			{
				SiteID:     "site-a",
				Time:       time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
				Phase:      schema.PhaseFlushing,
				Confidence: 0.9,
				Rules:      []string{"positive_cq_slope", "chemodynamic_ratio"},
				Slope:      0.5,
				CVRatio:    1.2,
				Q:          9.0,
				C:          2.0,
				Behavior:   schema.BehaviorConnectivity,
				FlowPhase:  schema.FlowRising,
				HIndex:     math.NaN(),
				LoopClass:  schema.Undefined,
			},
		},
	}

	rows := ConvertClassificationRows(out)
	require.Len(t, rows, 1)
	assert.Equal(t, "F", rows[0].Phase)
	assert.Equal(t, "positive_cq_slope;chemodynamic_ratio", rows[0].Rules)
	assert.Nil(t, rows[0].HIndex, "NaN hysteresis index should convert to nil")
	require.NotNil(t, rows[0].Slope)
	assert.InDelta(t, 0.5, *rows[0].Slope, 1e-9)
}

func TestWriteRunsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "runs.parquet")

	data := ConvertRunRecords(sampleRunRecords())
	require.NotEmpty(t, data)

	err := WriteRunsParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	// Read back and verify data
	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[Run](file)
	defer reader.Close()

	readData := make([]Run, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	assert.Equal(t, len(data), n, "Should read all records")

	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].RunID, readData[i].RunID)
		assert.Equal(t, data[i].SiteID, readData[i].SiteID)
		assert.Equal(t, data[i].Status, readData[i].Status)
		assert.WithinDuration(t, data[i].StartedAt, readData[i].StartedAt, time.Nanosecond)

		if data[i].EndedAt == nil {
			assert.Nil(t, readData[i].EndedAt, "EndedAt should be nil")
		} else {
			require.NotNil(t, readData[i].EndedAt, "EndedAt should not be nil")
			assert.WithinDuration(t, *data[i].EndedAt, *readData[i].EndedAt, time.Nanosecond)
		}

		if data[i].ErrorText == nil {
			assert.Nil(t, readData[i].ErrorText, "ErrorText should be nil")
		} else {
			require.NotNil(t, readData[i].ErrorText, "ErrorText should not be nil")
			assert.Equal(t, *data[i].ErrorText, *readData[i].ErrorText)
		}
	}
}

func TestWriteSegmentRowsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "segment_rows.parquet")

	data := ConvertSegmentRowRecords(sampleSegmentRowRecords())
	require.NotEmpty(t, data)

	err := WriteSegmentRowsParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	// Read back and verify data
	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[SegmentRow](file)
	defer reader.Close()

	readData := make([]SegmentRow, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	assert.Equal(t, len(data), n, "Should read all records")

	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].RunID, readData[i].RunID)
		assert.Equal(t, data[i].Phase, readData[i].Phase)
		assert.Equal(t, data[i].Rules, readData[i].Rules)
		assert.InDelta(t, data[i].Confidence, readData[i].Confidence, 1e-9)
		assert.WithinDuration(t, data[i].Time, readData[i].Time, time.Nanosecond)

		if data[i].Slope == nil {
			assert.Nil(t, readData[i].Slope, "Slope should be nil")
		} else {
			require.NotNil(t, readData[i].Slope, "Slope should not be nil")
			assert.InDelta(t, *data[i].Slope, *readData[i].Slope, 1e-9)
		}

		if data[i].HIndex == nil {
			assert.Nil(t, readData[i].HIndex, "HIndex should be nil")
		} else {
			require.NotNil(t, readData[i].HIndex, "HIndex should not be nil")
			assert.InDelta(t, *data[i].HIndex, *readData[i].HIndex, 1e-9)
		}
	}
}

func TestWriteRunsParquet_EmptyData(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "empty_runs.parquet")

	err := WriteRunsParquet([]Run{}, outputPath)
	require.NoError(t, err, "Writing empty data should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteRunsParquet_InvalidPath(t *testing.T) {
	data := ConvertRunRecords(sampleRunRecords())
	err := WriteRunsParquet(data, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}

func TestWriteSegmentRowsParquet_InvalidPath(t *testing.T) {
	data := ConvertSegmentRowRecords(sampleSegmentRowRecords())
	err := WriteSegmentRowsParquet(data, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}
