package cmd

import (
	"github.com/cqscope/cqscope/core"
	"github.com/cqscope/cqscope/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd computes event-scale hysteresis metrics.
var metricsCmd = &cobra.Command{
	Use:   "metrics [input-path]",
	Short: "Compute event-scale hysteresis metrics per site.",
	Long: `Compute loop-geometry metrics over each site's observation record.

Three method families run side by side:

  HARP   - normalized loop area with rising/falling residuals
  Zuecco - difference-of-integrals h index with class assignment
  Lloyd  - HInew and HImid loop indices with rotation classes

Methods are best-effort and independent; when one cannot produce a
result its fields stay empty while the others still report. Sites
with too few samples are reported with the reason instead of being
dropped.

Examples:
  # Metrics for every site in a file
  cqscope metrics observations.csv

  # One site as JSON for downstream tooling
  cqscope metrics ./data --site W3 --output json

  # CSV export with higher numeric precision
  cqscope metrics observations.csv --precision 5 --output csv --output-file metrics.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEventMetrics(cfg, runManager); err != nil {
			contract.LogFatal("Cannot run metrics analysis", err)
		}
	},
}
