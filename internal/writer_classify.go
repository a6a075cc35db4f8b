package internal

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/schema"
)

// writeCSVResultsForClassification writes classification rows in CSV format,
// all sites in one flat table.
func writeCSVResultsForClassification(w *csv.Writer, outputs []*schema.ClassificationOutput, fmtFloat func(float64) string) error {
	header := []string{
		"site_id",
		"time",
		"phase",
		"confidence",
		"label",
		"slope",
		"r2",
		"cv_ratio",
		"q",
		"c",
		"q_level",
		"behavior",
		"flow_phase",
		"h_index",
		"loop_class",
		"rules",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, out := range outputs {
		for _, r := range out.Rows {
			rec := []string{
				r.SiteID,
				r.Time.Format(contract.DateTimeFormat),
				string(r.Phase),
				fmtFloat(r.Confidence),
				contract.GetPlainLabel(r.Confidence),
				fmtFloat(r.Slope),
				fmtFloat(r.R2),
				fmtFloat(r.CVRatio),
				fmtFloat(r.Q),
				fmtFloat(r.C),
				string(r.QLevel),
				string(r.Behavior),
				string(r.FlowPhase),
				fmtFloat(r.HIndex),
				string(r.LoopClass),
				strings.Join(r.Rules, ";"),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// JSONClassificationRow mirrors schema.ClassificationRow with JSON tags.
// Possibly-NaN metrics become pointers so missing values encode as null.
type JSONClassificationRow struct {
	SiteID     string    `json:"site_id"`
	Time       time.Time `json:"time"`
	Phase      string    `json:"phase"`
	Confidence float64   `json:"confidence"`
	Label      string    `json:"label"`
	Rules      []string  `json:"rules"`
	Evidence   []string  `json:"evidence,omitempty"`
	Slope      *float64  `json:"slope"`
	R2         *float64  `json:"r2"`
	CVRatio    *float64  `json:"cv_ratio"`
	Q          *float64  `json:"q"`
	C          *float64  `json:"c"`
	QLevel     string    `json:"q_level"`
	Behavior   string    `json:"behavior"`
	FlowPhase  string    `json:"flow_phase"`
	HIndex     *float64  `json:"h_index"`
	LoopClass  string    `json:"loop_class"`
}

// JSONClassificationOutput is one site's classification result as encoded
// to JSON.
type JSONClassificationOutput struct {
	SiteID       string                  `json:"site_id"`
	Rows         []JSONClassificationRow `json:"rows"`
	Distribution map[string]float64      `json:"phase_distribution"`
}

// WriteClassificationJSON writes classification results in JSON format.
// Exported for the MCP handlers, which need the same NaN-safe encoding.
func WriteClassificationJSON(w io.Writer, outputs []*schema.ClassificationOutput) error {
	result := make([]JSONClassificationOutput, len(outputs))
	for i, out := range outputs {
		rows := make([]JSONClassificationRow, len(out.Rows))
		for j, r := range out.Rows {
			rows[j] = JSONClassificationRow{
				SiteID:     r.SiteID,
				Time:       r.Time,
				Phase:      string(r.Phase),
				Confidence: r.Confidence,
				Label:      contract.GetPlainLabel(r.Confidence),
				Rules:      r.Rules,
				Evidence:   r.Evidence,
				Slope:      jsonFloat(r.Slope),
				R2:         jsonFloat(r.R2),
				CVRatio:    jsonFloat(r.CVRatio),
				Q:          jsonFloat(r.Q),
				C:          jsonFloat(r.C),
				QLevel:     string(r.QLevel),
				Behavior:   string(r.Behavior),
				FlowPhase:  string(r.FlowPhase),
				HIndex:     jsonFloat(r.HIndex),
				LoopClass:  string(r.LoopClass),
			}
		}

		dist := make(map[string]float64, len(out.Distribution))
		for p, share := range out.Distribution {
			dist[string(p)] = share
		}

		result[i] = JSONClassificationOutput{
			SiteID:       out.SiteID,
			Rows:         rows,
			Distribution: dist,
		}
	}
	return writeJSON(w, result)
}
