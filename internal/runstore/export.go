package runstore

import (
	"errors"
	"fmt"

	"github.com/cqscope/cqscope/internal/parquet"
)

// ExecuteRunsExport performs the actual export of stored run data to Parquet files.
func ExecuteRunsExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Get the run store
	store := Manager.GetRunStore()

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run store status: %w", err)
	}

	if status.Runs == 0 {
		return errors.New("no stored runs found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.Runs)
	fmt.Printf("Total segment rows: %d\n", status.Rows)

	// Retrieve all runs
	runs, err := store.ListRuns(int(status.Runs))
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	// Retrieve the segment rows of every run
	parquetRuns := parquet.ConvertRunRecords(runs)
	var parquetRows []parquet.SegmentRow
	for _, run := range runs {
		rows, err := store.GetRows(run.ID)
		if err != nil {
			return fmt.Errorf("failed to retrieve rows for run %d: %w", run.ID, err)
		}
		parquetRows = append(parquetRows, parquet.ConvertSegmentRowRecords(rows)...)
	}

	// Write runs to Parquet
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	// Write segment rows to Parquet
	rowsFile := outputFile + ".segment_rows.parquet"
	if err := parquet.WriteSegmentRowsParquet(parquetRows, rowsFile); err != nil {
		return fmt.Errorf("failed to write segment rows: %w", err)
	}
	fmt.Printf("Exported %d segment rows to: %s\n", len(parquetRows), rowsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
