package schema

import "time"

// ClassificationRow is one classified segment as emitted to the output
// layer and the run store. Rule is the identifier of the decision branch
// that fired; Evidence lists the supporting observations consulted by the
// confidence scorer.
type ClassificationRow struct {
	SiteID string
	Time   time.Time

	Phase      Phase
	Confidence float64
	Rules      []string
	Evidence   []string

	Slope   float64
	R2      float64
	CVRatio float64
	Q       float64
	C       float64
	QLevel  Level

	Behavior  Behavior
	FlowPhase FlowPhase

	// Hysteresis context from the surrounding event, when one was
	// resolvable. NaN/empty otherwise.
	HIndex    float64
	LoopClass LoopDirection
}

// ClassificationOutput is the classify pipeline result for one site.
type ClassificationOutput struct {
	SiteID     string
	Rows       []ClassificationRow
	Thresholds *ThresholdSet

	// Distribution maps each phase to its share of classified segments.
	Distribution map[Phase]float64
}

// PhaseCounts tallies rows by phase.
func (o *ClassificationOutput) PhaseCounts() map[Phase]int {
	counts := make(map[Phase]int)
	for _, r := range o.Rows {
		counts[r.Phase]++
	}
	return counts
}
