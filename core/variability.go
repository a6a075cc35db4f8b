package core

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cqscope/cqscope/schema"
)

// DefaultVariabilityWindow is the rolling window length for CVc/CVq.
const DefaultVariabilityWindow = 5

// coefficientOfVariation computes sigma/mu over the finite entries of a
// window. Fewer than 2 valid points or a zero mean yields NaN.
func coefficientOfVariation(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return math.NaN()
	}
	mean, std := stat.MeanStdDev(clean, nil)
	if mean == 0 {
		return math.NaN()
	}
	return std / mean
}

// RollingRatios computes the CVc/CVq ratio and the windowed log-log C-Q
// slope for every full rolling window of the series, aligned to the
// window's end sample. A ratio above 1 reads as chemodynamic and below 1
// as chemostatic; the interpretation is left to the caller.
func RollingRatios(table *schema.SeriesTable, window int) []schema.RatioPoint {
	if window < 2 {
		window = DefaultVariabilityWindow
	}
	n := table.Len()
	if n < window {
		return nil
	}

	q := table.Discharge()
	c := table.Concentration()

	points := make([]schema.RatioPoint, 0, n-window+1)
	for end := window - 1; end < n; end++ {
		lo := end - window + 1
		blockQ := q[lo : end+1]
		blockC := c[lo : end+1]

		cvq := coefficientOfVariation(blockQ)
		cvc := coefficientOfVariation(blockC)

		ratio := math.NaN()
		if !math.IsNaN(cvq) && !math.IsNaN(cvc) && cvq != 0 {
			ratio = cvc / cvq
		}

		fit := FitLogLog(blockQ, blockC)
		points = append(points, schema.RatioPoint{
			EndIndex: end,
			CVC:      cvc,
			CVQ:      cvq,
			Ratio:    ratio,
			Slope:    fit.Slope,
		})
	}
	return points
}
