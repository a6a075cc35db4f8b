package core

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cqscope/cqscope/schema"
)

// minFitPairs is the smallest number of valid (positive, non-missing) pairs
// for which a log-log regression is attempted.
const minFitPairs = 3

// FitLogLog estimates the power-law exponent b in C = a*Q^b by ordinary
// least squares of log(C) on log(Q). Pairs with a non-positive or missing
// value are excluded before the transform. Fewer than minFitPairs valid
// pairs yields a NaN result rather than an error; the classifier treats a
// NaN slope as unknown, never as zero.
func FitLogLog(q, c []float64) schema.FitResult {
	n := len(q)
	if len(c) < n {
		n = len(c)
	}
	logQ := make([]float64, 0, n)
	logC := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if q[i] <= 0 || c[i] <= 0 || math.IsNaN(q[i]) || math.IsNaN(c[i]) {
			continue
		}
		logQ = append(logQ, math.Log(q[i]))
		logC = append(logC, math.Log(c[i]))
	}
	if len(logQ) < minFitPairs {
		return schema.FitResult{
			Slope:     math.NaN(),
			Intercept: math.NaN(),
			R2:        math.NaN(),
			N:         len(logQ),
		}
	}

	alpha, beta := stat.LinearRegression(logQ, logC, nil, false)
	r2 := stat.RSquared(logQ, logC, nil, alpha, beta)
	return schema.FitResult{Slope: beta, Intercept: alpha, R2: r2, N: len(logQ)}
}

// PointSlope computes the local log-log C-Q slope between two consecutive
// samples, the segment-scale counterpart of FitLogLog. NaN when any value
// is non-positive or the discharge change is negligible.
func PointSlope(q1, q2, c1, c2 float64) float64 {
	if q1 <= 0 || q2 <= 0 || c1 <= 0 || c2 <= 0 {
		return math.NaN()
	}
	dlogq := math.Log10(q2) - math.Log10(q1)
	if math.Abs(dlogq) < 1e-12 {
		return math.NaN()
	}
	return (math.Log10(c2) - math.Log10(c1)) / dlogq
}
