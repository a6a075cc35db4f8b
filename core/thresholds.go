package core

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cqscope/cqscope/schema"
)

// DefaultMinPopulation is the smallest change population percentile
// thresholds may be derived from.
const DefaultMinPopulation = 5

// quantile evaluates a percentile with deterministic linear interpolation.
func quantile(p float64, values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// ComputeThresholds derives the percentile cut points for a classification
// run from the full population of the given site series. Thresholds adapt
// to each compound's own distribution, so the same rules work across
// compounds with very different concentration ranges. The population of
// first differences must reach minPopulation (DefaultMinPopulation when
// <= 0) or the call fails with an InsufficientDataError.
func ComputeThresholds(tables []*schema.SeriesTable, minPopulation int) (*schema.ThresholdSet, error) {
	const op = "core.ComputeThresholds"
	if minPopulation <= 0 {
		minPopulation = DefaultMinPopulation
	}

	var qAll, cAll []float64
	var dq, dc []float64
	for _, t := range tables {
		qAll = append(qAll, finiteValues(t.Discharge())...)
		cAll = append(cAll, finiteValues(t.Concentration())...)
		for i := 1; i < t.Len(); i++ {
			fd := t.Rows[i].Q - t.Rows[i-1].Q
			cd := t.Rows[i].C - t.Rows[i-1].C
			if math.IsNaN(fd) || math.IsNaN(cd) {
				continue
			}
			dq = append(dq, fd)
			dc = append(dc, cd)
		}
	}
	if len(dc) < minPopulation {
		return nil, &schema.InsufficientDataError{Op: op, Got: len(dc), Need: minPopulation}
	}

	absDC := make([]float64, len(dc))
	for i, v := range dc {
		absDC[i] = math.Abs(v)
	}
	absDQ := make([]float64, len(dq))
	for i, v := range dq {
		absDQ[i] = math.Abs(v)
	}

	return &schema.ThresholdSet{
		QP25: quantile(0.25, qAll),
		QP50: quantile(0.50, qAll),
		QP75: quantile(0.75, qAll),

		CP25: quantile(0.25, cAll),
		CP50: quantile(0.50, cAll),
		CP75: quantile(0.75, cAll),

		DCP01: quantile(0.01, dc),
		DCP05: quantile(0.05, dc),
		DCP08: quantile(0.08, dc),
		DCP10: quantile(0.10, dc),
		DCP25: quantile(0.25, dc),
		DCP50: quantile(0.50, dc),
		DCP75: quantile(0.75, dc),
		DCP90: quantile(0.90, dc),
		DCP95: quantile(0.95, dc),

		DQP05: quantile(0.05, dq),
		DQP10: quantile(0.10, dq),
		DQP25: quantile(0.25, dq),
		DQP50: quantile(0.50, dq),
		DQP75: quantile(0.75, dq),
		DQP90: quantile(0.90, dq),

		AbsDCP50: quantile(0.50, absDC),
		AbsDCP75: quantile(0.75, absDC),
		AbsDQP50: quantile(0.50, absDQ),
		AbsDQP75: quantile(0.75, absDQ),

		N: len(dc),
	}, nil
}
