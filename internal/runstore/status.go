package runstore

import (
	"fmt"

	"github.com/cqscope/cqscope/schema"
)

// PrintRunStatus prints run store status information.
func PrintRunStatus(status schema.RunStoreStatus) {
	fmt.Printf("Runs Backend: %s\n", status.Backend)
	if status.Location != "" {
		fmt.Printf("Location: %s\n", status.Location)
	}
	fmt.Printf("Total Runs: %d\n", status.Runs)
	fmt.Printf("Total Segment Rows: %d\n", status.Rows)
	if status.Runs > 0 {
		fmt.Printf("Last Run: %s\n", status.LastRunAt.Format("2006-01-02 15:04:05"))
	}
}

// PrintRunList prints stored run records, newest first.
func PrintRunList(runs []schema.RunRecord) {
	if len(runs) == 0 {
		fmt.Println("No stored runs found.")
		return
	}
	fmt.Printf("%-6s %-12s %-10s %-10s %-20s %-20s %6s  %s\n",
		"ID", "Site", "Command", "Status", "Started", "Ended", "Rows", "Error")
	for _, run := range runs {
		ended := "-"
		if !run.EndedAt.IsZero() {
			ended = run.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-6d %-12s %-10s %-10s %-20s %-20s %6d  %s\n",
			run.ID, run.SiteID, run.Command, run.Status,
			run.StartedAt.Format("2006-01-02 15:04:05"), ended, run.Rows, run.Error)
	}
}
