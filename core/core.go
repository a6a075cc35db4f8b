// Package core has the hysteresis calculators, the metrics orchestrator
// and the hierarchical phase classifier.
package core

import (
	"strings"
	"time"

	"github.com/cqscope/cqscope/internal"
	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/internal/tabfile"
	"github.com/cqscope/cqscope/schema"
)

// classifyOptionsFromConfig maps the validated CLI config onto run options.
func classifyOptionsFromConfig(cfg *contract.Config) ClassifyOptions {
	return ClassifyOptions{
		Window:        cfg.Window,
		MinPopulation: cfg.MinPopulation,
		Weights: ConfidenceWeights{
			Base:    cfg.ConfidenceBase,
			Strong:  cfg.ConfidenceStrong,
			Support: cfg.ConfidenceSupport,
			Penalty: cfg.ConfidencePenalty,
		},
	}
}

// ComputeClassifyResults loads the configured tables and classifies every
// site. Thresholds come from the pooled change population of all loaded
// sites; a site that fails outright is skipped with a warning so the rest
// of the batch still reports.
func ComputeClassifyResults(cfg *contract.Config) ([]*schema.ClassificationOutput, error) {
	tables, err := tabfile.LoadTables(cfg)
	if err != nil {
		return nil, err
	}

	opts := classifyOptionsFromConfig(cfg)

	// Pooled thresholds keep per-site phase calls comparable. When the
	// pool is too small every site degrades individually inside
	// ClassifySeries.
	th, err := ComputeThresholds(tables, opts.MinPopulation)
	if err != nil {
		contract.LogWarn("Falling back to per-site thresholds", err)
		th = nil
	}

	outputs := make([]*schema.ClassificationOutput, 0, len(tables))
	for _, table := range tables {
		out, err := ClassifySeries(table, th, opts)
		if err != nil {
			contract.LogWarn("Skipping site "+table.SiteID, err)
			continue
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// ComputeMetricsResults loads the configured tables and computes the three
// hysteresis methods over each site's full observation record, treating it
// as one event.
func ComputeMetricsResults(cfg *contract.Config) ([]schema.SiteEventMetrics, error) {
	tables, err := tabfile.LoadTables(cfg)
	if err != nil {
		return nil, err
	}

	results := make([]schema.SiteEventMetrics, 0, len(tables))
	for _, table := range tables {
		res := schema.SiteEventMetrics{SiteID: table.SiteID}

		clean := dropMissing(table)
		res.Samples = clean.Len()

		ev, err := schema.NewEvent(clean.Times(), clean.Discharge(), clean.Concentration())
		if err != nil {
			res.Metrics = &schema.EventMetrics{
				Classifications: schema.EventClassifications{Zuecco: -1},
				Error:           err.Error(),
			}
			results = append(results, res)
			continue
		}

		res.Metrics = ComputeEventMetrics(ev)
		results = append(results, res)
	}
	return results, nil
}

// ExecuteClassify runs the classify pipeline, records the run when a store
// backend is configured, and renders results in the configured format.
func ExecuteClassify(cfg *contract.Config, mgr contract.RunManager) error {
	start := time.Now()

	outputs, err := ComputeClassifyResults(cfg)
	recordRun(cfg, mgr, "classify", outputs, err)
	if err != nil {
		return err
	}

	return internal.WriteClassificationResults(outputs, cfg, time.Since(start))
}

// ExecuteEventMetrics runs the hysteresis metrics pipeline and renders the
// per-site summary in the configured format.
func ExecuteEventMetrics(cfg *contract.Config, mgr contract.RunManager) error {
	start := time.Now()

	results, err := ComputeMetricsResults(cfg)
	recordRun(cfg, mgr, "metrics", nil, err)
	if err != nil {
		return err
	}

	return internal.WriteEventMetricsResults(results, cfg, time.Since(start))
}

// recordRun persists run metadata and, for classify runs, the flattened
// per-segment rows. Store failures are warnings: run tracking never breaks
// an analysis that already succeeded.
func recordRun(cfg *contract.Config, mgr contract.RunManager, command string, outputs []*schema.ClassificationOutput, runErr error) {
	if mgr == nil || cfg.RunsBackend == schema.NoneBackend {
		return
	}
	store := mgr.GetRunStore()
	if store == nil {
		return
	}

	siteID := cfg.SiteFilter
	if siteID == "" {
		siteID = "all"
	}

	started := time.Now()
	runID, err := store.BeginRun(siteID, command, started)
	if err != nil {
		contract.LogWarn("Failed to begin run record", err)
		return
	}

	rows := SegmentRowRecords(runID, outputs)
	if len(rows) > 0 {
		if err := store.RecordRows(runID, rows); err != nil {
			contract.LogWarn("Failed to record run rows", err)
		}
	}

	if err := store.EndRun(runID, time.Now(), len(rows), runErr); err != nil {
		contract.LogWarn("Failed to finish run record", err)
	}
}

// SegmentRowRecords flattens classification output into store records.
func SegmentRowRecords(runID int64, outputs []*schema.ClassificationOutput) []schema.SegmentRowRecord {
	var rows []schema.SegmentRowRecord
	for _, out := range outputs {
		for _, r := range out.Rows {
			rows = append(rows, schema.SegmentRowRecord{
				RunID:      runID,
				SiteID:     r.SiteID,
				Time:       r.Time,
				Phase:      string(r.Phase),
				Confidence: r.Confidence,
				Rule:       strings.Join(r.Rules, ";"),
				Slope:      r.Slope,
				CVRatio:    r.CVRatio,
				Q:          r.Q,
				C:          r.C,
				Behavior:   string(r.Behavior),
				FlowPhase:  string(r.FlowPhase),
				HIndex:     r.HIndex,
				LoopClass:  string(r.LoopClass),
			})
		}
	}
	return rows
}
