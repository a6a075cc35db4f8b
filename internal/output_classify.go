package internal

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/internal/parquet"
	"github.com/cqscope/cqscope/schema"
)

// WriteClassificationResults outputs per-site classification results,
// dispatching based on the output format configured.
func WriteClassificationResults(outputs []*schema.ClassificationOutput, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteClassificationJSON(w, outputs)
		}, "JSON classification results")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVResultsForClassification(csvWriter, outputs, fmtFloat)
		}, "CSV classification results")
	case schema.ParquetOut:
		return writeParquetResultsForClassification(outputs, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassificationTable(w, outputs, cfg, fmtFloat, duration)
		}, "classification table")
	}
}

// writeParquetResultsForClassification flattens every site's rows into a
// single parquet file at cfg.OutputFile.
func writeParquetResultsForClassification(outputs []*schema.ClassificationOutput, cfg *contract.Config) error {
	var rows []parquet.SegmentRow
	for _, out := range outputs {
		rows = append(rows, parquet.ConvertClassificationRows(out)...)
	}
	if err := parquet.WriteSegmentRowsParquet(rows, cfg.OutputFile); err != nil {
		return fmt.Errorf("error writing parquet output: %w", err)
	}
	contract.LogInfo("Wrote %d classification rows to %s", len(rows), cfg.OutputFile)
	return nil
}

// writeClassificationTable renders one table per site followed by the
// phase distribution summary.
func writeClassificationTable(w io.Writer, outputs []*schema.ClassificationOutput, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	rulesWidth := getMaxTableRulesWidth(cfg)

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	for _, out := range outputs {
		if _, err := fmt.Fprintf(w, "Site %s\n", out.SiteID); err != nil {
			return err
		}

		table := tablewriter.NewWriter(w)
		table.Header([]string{"Time", "Phase", "Conf", "Label", "Slope", "CVRatio", "Behavior", "Flow", "Rules"})
		table.Configure(func(tc *tablewriter.Config) {
			tc.Row.Alignment.Global = tw.AlignRight
		})

		// Only the most recent rows fit a terminal; older rows remain
		// available through CSV/JSON output and the run store.
		rows := out.Rows
		if cfg.ResultLimit > 0 && len(rows) > cfg.ResultLimit {
			rows = rows[len(rows)-cfg.ResultLimit:]
		}

		var data [][]string
		for _, r := range rows {
			data = append(data, []string{
				r.Time.Format("2006-01-02 15:04"),
				string(r.Phase),
				fmtFloat(r.Confidence),
				label(r.Confidence),
				tableCell(fmtFloat, r.Slope),
				tableCell(fmtFloat, r.CVRatio),
				string(r.Behavior),
				string(r.FlowPhase),
				truncateText(strings.Join(r.Rules, ";"), rulesWidth),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}

		if err := writePhaseDistribution(w, out, fmtFloat); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Classified %d sites in %v\n", len(outputs), duration)
	return err
}

// writePhaseDistribution prints the share of segments per phase, largest
// share first.
func writePhaseDistribution(w io.Writer, out *schema.ClassificationOutput, fmtFloat func(float64) string) error {
	phases := make([]schema.Phase, 0, len(out.Distribution))
	for p := range out.Distribution {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool {
		if out.Distribution[phases[i]] != out.Distribution[phases[j]] {
			return out.Distribution[phases[i]] > out.Distribution[phases[j]]
		}
		return phases[i] < phases[j]
	})

	parts := make([]string, 0, len(phases))
	for _, p := range phases {
		parts = append(parts, fmt.Sprintf("%s=%s%%", schema.PhaseNames[p], fmtFloat(out.Distribution[p]*100)))
	}
	if len(parts) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Phase distribution (%d segments): %s\n", len(out.Rows), strings.Join(parts, " "))
	return err
}
