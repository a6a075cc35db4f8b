package cmd

import (
	"github.com/cqscope/cqscope/core"
	"github.com/cqscope/cqscope/internal/contract"
	"github.com/spf13/cobra"
)

// classifyCmd performs per-sample phase classification.
var classifyCmd = &cobra.Command{
	Use:   "classify [input-path]",
	Short: "Assign a geochemical phase to every sample in the record.",
	Long: `Run the hierarchical phase classifier over paired discharge and
concentration series.

Each sample gets one of six phases, evaluated in strict priority order:

  Flushing    - strong chemodynamic mobilization on the rising limb
  Loading     - accumulation, concentration climbing toward a maximum
  Chemostatic - concentration buffered against discharge swings
  Dilution    - post-flush recovery, flow and concentration both declining
  Recession   - late-cycle decline of both flow and concentration
  Variable    - everything the stronger rules could not claim

Alongside the phase, every row carries a confidence score, the fired
rule names and the supporting evidence (log-log slope, CV ratio,
hysteresis index, flow phase).

Examples:
  # Classify all sites in a CSV file
  cqscope classify observations.csv

  # Classify one site in a directory of CSVs
  cqscope classify ./data --site W3

  # Use a wider rolling window and export everything
  cqscope classify observations.csv --window 9 --output csv --output-file phases.csv

  # Track this run in a local SQLite store
  cqscope classify observations.csv --runs-backend sqlite`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClassify(cfg, runManager); err != nil {
			contract.LogFatal("Cannot run classification", err)
		}
	},
}
