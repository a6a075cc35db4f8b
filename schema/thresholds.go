package schema

// ThresholdSet holds the per-site distributional thresholds the classifier
// consults. Percentile fields follow a PNN naming scheme where NN is the
// percentile rank; DC and DQ refer to first differences of concentration
// and discharge between consecutive samples.
type ThresholdSet struct {
	// Discharge magnitude levels.
	QP25 float64
	QP50 float64
	QP75 float64

	// Concentration magnitude levels.
	CP25 float64
	CP50 float64
	CP75 float64

	// Concentration change (signed).
	DCP01 float64
	DCP05 float64
	DCP08 float64
	DCP10 float64
	DCP25 float64
	DCP50 float64
	DCP75 float64
	DCP90 float64
	DCP95 float64

	// Discharge change (signed).
	DQP05 float64
	DQP10 float64
	DQP25 float64
	DQP50 float64
	DQP75 float64
	DQP90 float64

	// Absolute-change medians and upper quartiles, used for the
	// quasi-chemostatic and static behavior calls.
	AbsDCP50 float64
	AbsDCP75 float64
	AbsDQP50 float64
	AbsDQP75 float64

	N int // samples the thresholds were computed from
}

// QLevel buckets a discharge value against the site's quartiles.
func (t *ThresholdSet) QLevel(q float64) Level {
	switch {
	case isNaN(q):
		return LevelNone
	case q >= t.QP75:
		return LevelHigh
	case q >= t.QP25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// CLevel buckets a concentration value against the site's quartiles.
func (t *ThresholdSet) CLevel(c float64) Level {
	switch {
	case isNaN(c):
		return LevelNone
	case c >= t.CP75:
		return LevelHigh
	case c >= t.CP25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Classifier slope cutoffs and the CVc/CVq balance point. The slope cutoffs
// bracket the near-zero band conventionally treated as chemostatic.
const (
	SlopeFlushing    = 0.15
	SlopeLoading     = -0.15
	SlopeChemostatic = 0.10
	CVRatioBalance   = 1.0

	// Gradation cutoffs used by the confidence corroboration checks.
	SlopeStrong   = 0.20
	CVRatioStrong = 1.2
)

// Confidence scoring weights. Scores start at ConfidenceBase, collect the
// applicable adjustments, and clamp to [0, 1].
const (
	ConfidenceBase    = 0.50
	ConfidenceStrong  = 0.15
	ConfidenceSupport = 0.10
	ConfidencePenalty = -0.20
	ConfidenceFloor   = 0.0
	ConfidenceCeil    = 1.0
)
