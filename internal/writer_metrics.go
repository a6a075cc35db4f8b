package internal

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cqscope/cqscope/schema"
)

// writeCSVResultsForMetrics writes per-site hysteresis metrics in CSV format.
func writeCSVResultsForMetrics(w *csv.Writer, results []schema.SiteEventMetrics, fmtFloat func(float64) string) error {
	header := []string{
		"site_id",
		"samples",
		"harp_area",
		"harp_residual",
		"harp_peak_q",
		"harp_peak_c",
		"harp_class",
		"zuecco_h",
		"zuecco_class",
		"hinew_mean",
		"hinew_median",
		"hinew_range",
		"hil_mean",
		"hil_median",
		"lloyd_class",
		"lawler_class",
		"error",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		rec := []string{res.SiteID, strconv.Itoa(res.Samples)}

		m := res.Metrics
		if m == nil {
			rec = append(rec, "", "", "", "", "", "", "", "", "", "", "", "", "", "", "no metrics")
			if err := w.Write(rec); err != nil {
				return err
			}
			continue
		}

		if m.Harp != nil {
			rec = append(rec,
				fmtFloat(m.Harp.Area),
				fmtFloat(m.Harp.Residual),
				fmtFloat(m.Harp.PeakQ),
				fmtFloat(m.Harp.PeakC),
				string(m.Harp.Classification),
			)
		} else {
			rec = append(rec, "", "", "", "", "")
		}

		if m.Zuecco != nil {
			rec = append(rec, fmtFloat(m.Zuecco.HIndex), strconv.Itoa(m.Zuecco.Class))
		} else {
			rec = append(rec, "", "")
		}

		if m.Lloyd != nil {
			rec = append(rec,
				fmtFloat(m.Lloyd.MeanHInew),
				fmtFloat(m.Lloyd.MedianHInew),
				fmtFloat(m.Lloyd.RangeHInew),
				fmtFloat(m.Lloyd.MeanHIL),
				fmtFloat(m.Lloyd.MedianHIL),
			)
		} else {
			rec = append(rec, "", "", "", "", "")
		}

		rec = append(rec,
			string(m.Classifications.Lloyd),
			string(m.Classifications.Lawler),
			m.Error,
		)
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// JSONHarpMetrics is the JSON view of the HARP result.
type JSONHarpMetrics struct {
	Area           *float64 `json:"area"`
	AreaLower      *float64 `json:"area_lower"`
	AreaUpper      *float64 `json:"area_upper"`
	Residual       *float64 `json:"residual"`
	PeakQ          *float64 `json:"peak_q"`
	PeakC          *float64 `json:"peak_c"`
	DQPeak         *float64 `json:"dq_peak"`
	DCPeak         *float64 `json:"dc_peak"`
	RadiusEquiv    *float64 `json:"radius_equiv"`
	Classification string   `json:"classification"`
}

// JSONZueccoMetrics is the JSON view of the Zuecco result.
type JSONZueccoMetrics struct {
	HIndex      *float64 `json:"h_index"`
	Class       int      `json:"class"`
	MinDiffArea *float64 `json:"min_diff_area"`
	MaxDiffArea *float64 `json:"max_diff_area"`
}

// JSONLloydMetrics is the JSON view of the Lloyd/Lawler result.
type JSONLloydMetrics struct {
	MeanHInew    *float64 `json:"hinew_mean"`
	MedianHInew  *float64 `json:"hinew_median"`
	RangeHInew   *float64 `json:"hinew_range"`
	MeanAbsHInew *float64 `json:"hinew_mean_abs"`
	MeanHIL      *float64 `json:"hil_mean"`
	MedianHIL    *float64 `json:"hil_median"`
	RangeHIL     *float64 `json:"hil_range"`
}

// JSONSiteMetrics is one site's hysteresis metrics as encoded to JSON.
type JSONSiteMetrics struct {
	SiteID  string             `json:"site_id"`
	Samples int                `json:"samples"`
	Harp    *JSONHarpMetrics   `json:"harp"`
	Zuecco  *JSONZueccoMetrics `json:"zuecco"`
	Lloyd   *JSONLloydMetrics  `json:"lloyd"`
	Classes map[string]string  `json:"classifications"`
	Error   string             `json:"error,omitempty"`
}

// WriteEventMetricsJSON writes per-site hysteresis metrics in JSON format.
// Exported for the MCP handlers, which need the same NaN-safe encoding.
func WriteEventMetricsJSON(w io.Writer, results []schema.SiteEventMetrics) error {
	output := make([]JSONSiteMetrics, len(results))
	for i, res := range results {
		item := JSONSiteMetrics{
			SiteID:  res.SiteID,
			Samples: res.Samples,
		}

		m := res.Metrics
		if m == nil {
			item.Error = "no metrics"
			output[i] = item
			continue
		}

		if m.Harp != nil {
			item.Harp = &JSONHarpMetrics{
				Area:           jsonFloat(m.Harp.Area),
				AreaLower:      jsonFloat(m.Harp.AreaLower),
				AreaUpper:      jsonFloat(m.Harp.AreaUpper),
				Residual:       jsonFloat(m.Harp.Residual),
				PeakQ:          jsonFloat(m.Harp.PeakQ),
				PeakC:          jsonFloat(m.Harp.PeakC),
				DQPeak:         jsonFloat(m.Harp.DQPeak),
				DCPeak:         jsonFloat(m.Harp.DCPeak),
				RadiusEquiv:    jsonFloat(m.Harp.RadiusEquiv),
				Classification: string(m.Harp.Classification),
			}
		}
		if m.Zuecco != nil {
			item.Zuecco = &JSONZueccoMetrics{
				HIndex:      jsonFloat(m.Zuecco.HIndex),
				Class:       m.Zuecco.Class,
				MinDiffArea: jsonFloat(m.Zuecco.MinDiffArea),
				MaxDiffArea: jsonFloat(m.Zuecco.MaxDiffArea),
			}
		}
		if m.Lloyd != nil {
			item.Lloyd = &JSONLloydMetrics{
				MeanHInew:    jsonFloat(m.Lloyd.MeanHInew),
				MedianHInew:  jsonFloat(m.Lloyd.MedianHInew),
				RangeHInew:   jsonFloat(m.Lloyd.RangeHInew),
				MeanAbsHInew: jsonFloat(m.Lloyd.MeanAbsHInew),
				MeanHIL:      jsonFloat(m.Lloyd.MeanHIL),
				MedianHIL:    jsonFloat(m.Lloyd.MedianHIL),
				RangeHIL:     jsonFloat(m.Lloyd.RangeHIL),
			}
		}

		item.Classes = map[string]string{
			"harp":   string(m.Classifications.Harp),
			"zuecco": strconv.Itoa(m.Classifications.Zuecco),
			"lloyd":  string(m.Classifications.Lloyd),
			"lawler": string(m.Classifications.Lawler),
		}
		item.Error = m.Error
		output[i] = item
	}
	return writeJSON(w, output)
}
