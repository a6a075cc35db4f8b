package internal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/schema"
)

// WriteEventMetricsResults outputs per-site hysteresis metrics, dispatching
// based on the output format configured.
func WriteEventMetricsResults(results []schema.SiteEventMetrics, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteEventMetricsJSON(w, results)
		}, "JSON metrics results")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVResultsForMetrics(csvWriter, results, fmtFloat)
		}, "CSV metrics results")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for metrics; use csv or json, or export stored runs")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsTable(w, results, fmtFloat, duration)
		}, "metrics table")
	}
}

// writeMetricsTable renders one row per site with the three method summaries.
func writeMetricsTable(w io.Writer, results []schema.SiteEventMetrics, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Site", "Samples", "HARP Area", "HARP Class", "Zuecco h", "Zuecco Class", "HInew", "HIL", "Lloyd Class", "Error"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, res := range results {
		row := []string{res.SiteID, strconv.Itoa(res.Samples)}

		m := res.Metrics
		if m == nil {
			row = append(row, "-", "-", "-", "-", "-", "-", "-", "no metrics")
			data = append(data, row)
			continue
		}

		if m.Harp != nil {
			row = append(row, tableCell(fmtFloat, m.Harp.Area), string(m.Harp.Classification))
		} else {
			row = append(row, "-", "-")
		}

		if m.Zuecco != nil {
			row = append(row, tableCell(fmtFloat, m.Zuecco.HIndex), strconv.Itoa(m.Zuecco.Class))
		} else {
			row = append(row, "-", "-")
		}

		if m.Lloyd != nil {
			row = append(row,
				tableCell(fmtFloat, m.Lloyd.MeanHInew),
				tableCell(fmtFloat, m.Lloyd.MeanHIL),
				string(m.Classifications.Lloyd),
			)
		} else {
			row = append(row, "-", "-", "-")
		}

		row = append(row, m.Error)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Computed hysteresis metrics for %d sites in %v\n", len(results), duration)
	return err
}
