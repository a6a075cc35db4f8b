package schema

import "math"

func isNaN(v float64) bool { return math.IsNaN(v) }

// Clamp01 bounds a confidence score to [ConfidenceFloor, ConfidenceCeil].
func Clamp01(v float64) float64 {
	return math.Max(ConfidenceFloor, math.Min(ConfidenceCeil, v))
}
