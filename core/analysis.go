package core

import (
	"errors"
	"math"

	"github.com/cqscope/cqscope/schema"
)

// Concentration trajectory labels threaded between consecutive segments.
const (
	trajectorySteepDeclineFromHigh = "steep_decline_from_high"
	trajectorySteepDecline         = "steep_decline"
	trajectoryGradualDecline       = "gradual_decline"
	trajectoryRisingToMax          = "rising_to_max"
	trajectoryLargeIncrease        = "large_increase"
	trajectoryModerateIncrease     = "moderate_increase"
	trajectoryAtMaximum            = "at_maximum"
	trajectoryStable               = "stable"
)

// Window h-index transition labels between consecutive segments.
const (
	transitionFirst    = "first"
	transitionStable   = "stable"
	transitionPosToNeg = "pos_to_neg"
	transitionNegToPos = "neg_to_pos"
)

// ClassifyOptions parameterize a classification run.
type ClassifyOptions struct {
	Window        int // rolling/hysteresis window size in samples
	MinPopulation int // minimum change population for thresholds
	Weights       ConfidenceWeights
}

// DefaultClassifyOptions returns the standard run parameters.
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{
		Window:        DefaultVariabilityWindow,
		MinPopulation: DefaultMinPopulation,
		Weights:       DefaultConfidenceWeights(),
	}
}

// ClassifySeries runs the full classification pipeline for one site:
// thresholds, segmentation, window-scale hysteresis, then the hierarchical
// phase rules with temporal context threaded segment to segment in time
// order. Re-running on the same series with the same ThresholdSet yields
// identical rows.
func ClassifySeries(table *schema.SeriesTable, th *schema.ThresholdSet, opts ClassifyOptions) (*schema.ClassificationOutput, error) {
	if opts.Window < 2 {
		opts.Window = DefaultVariabilityWindow
	}
	if opts.Weights == (ConfidenceWeights{}) {
		opts.Weights = DefaultConfidenceWeights()
	}

	clean := dropMissing(table)

	if th == nil {
		var err error
		th, err = ComputeThresholds([]*schema.SeriesTable{clean}, opts.MinPopulation)
		var insufficient *schema.InsufficientDataError
		if errors.As(err, &insufficient) {
			return degradedOutput(clean, opts.Weights), nil
		}
		if err != nil {
			return nil, err
		}
	}

	// --- 1. Segmentation Phase ---
	segments := BuildSegments(clean, th, opts.Window)
	out := &schema.ClassificationOutput{
		SiteID:     clean.SiteID,
		Thresholds: th,
		Rows:       make([]schema.ClassificationRow, 0, len(segments)),
	}
	if len(segments) == 0 {
		out.Distribution = map[schema.Phase]float64{}
		return out, nil
	}

	// --- 2. Window Hysteresis Phase ---
	metrics := make([]*schema.EventMetrics, len(segments))
	for i := range segments {
		lo, hi := windowBounds(segments[i].Index, clean.Len(), opts.Window)
		ev, err := newWindowEvent(clean, lo, hi)
		if err != nil {
			continue // window too short, hysteresis stays undefined
		}
		metrics[i] = ComputeEventMetrics(ev)
	}

	// --- 3. Rule Evaluation Phase (temporal order) ---
	var prior schema.Phase
	for i := range segments {
		sc := &SegmentContext{
			Segment:      &segments[i],
			Metrics:      metrics[i],
			Prior:        prior,
			PrevCLevel:   schema.LevelNone,
			HITransition: transitionFirst,
		}
		if i > 0 {
			sc.PrevConcDiff = segments[i-1].ConcDiff
			sc.PrevCLevel = th.CLevel(segments[i-1].EndC)
			sc.HITransition = hiTransition(metrics[i-1], metrics[i])
		}
		if i > 1 {
			sc.Prev2ConcDiff = segments[i-2].ConcDiff
		}
		sc.CTrajectory = cTrajectory(segments[i].ConcDiff, th.CLevel(segments[i].EndC), sc.PrevCLevel, th)

		row := ClassifySegment(sc, th, opts.Weights)
		out.Rows = append(out.Rows, row)
		prior = row.Phase
	}

	out.Distribution = phaseDistribution(out.Rows)
	return out, nil
}

// degradedOutput covers series too short for percentile thresholding:
// every pairable segment falls back to the variable phase with reduced
// confidence and an explicit data-quality flag.
func degradedOutput(clean *schema.SeriesTable, w ConfidenceWeights) *schema.ClassificationOutput {
	out := &schema.ClassificationOutput{SiteID: clean.SiteID}
	for i := 0; i+1 < clean.Len(); i++ {
		p2 := clean.Rows[i+1]
		out.Rows = append(out.Rows, schema.ClassificationRow{
			SiteID:     clean.SiteID,
			Time:       p2.Time,
			Phase:      schema.PhaseVariable,
			Confidence: schema.Clamp01(w.Base + w.Penalty),
			Rules:      []string{schema.RuleReducedQuality, schema.RuleFallback},
			Slope:      math.NaN(),
			R2:         math.NaN(),
			CVRatio:    math.NaN(),
			Q:          p2.Q,
			C:          p2.C,
			QLevel:     schema.LevelNone,
			FlowPhase:  schema.FlowUnknown,
			HIndex:     math.NaN(),
			LoopClass:  schema.Undefined,
		})
	}
	out.Distribution = phaseDistribution(out.Rows)
	return out
}

// cTrajectory labels where the concentration is heading, using the same
// percentile thresholds as the phase rules.
func cTrajectory(concDiff float64, cLevel, prevCLevel schema.Level, th *schema.ThresholdSet) string {
	switch {
	case !math.IsNaN(th.DCP08) && concDiff < th.DCP08:
		if prevCLevel == schema.LevelHigh {
			return trajectorySteepDeclineFromHigh
		}
		return trajectorySteepDecline
	case !math.IsNaN(th.DCP25) && concDiff < th.DCP25:
		return trajectoryGradualDecline
	case !math.IsNaN(th.DCP90) && concDiff > th.DCP90:
		if cLevel == schema.LevelHigh {
			return trajectoryRisingToMax
		}
		return trajectoryLargeIncrease
	case !math.IsNaN(th.DCP75) && concDiff > th.DCP75:
		return trajectoryModerateIncrease
	case cLevel == schema.LevelHigh && !math.IsNaN(th.AbsDCP50) && math.Abs(concDiff) < th.AbsDCP50:
		return trajectoryAtMaximum
	default:
		return trajectoryStable
	}
}

// hiTransition tracks sign flips of the window h-index between consecutive
// segments.
func hiTransition(prev, cur *schema.EventMetrics) string {
	prevHI, _ := windowHysteresis(prev)
	curHI, _ := windowHysteresis(cur)
	if math.IsNaN(prevHI) || math.IsNaN(curHI) {
		return transitionStable
	}
	switch {
	case prevHI > 0.01 && curHI < -0.01:
		return transitionPosToNeg
	case prevHI < -0.01 && curHI > 0.01:
		return transitionNegToPos
	default:
		return transitionStable
	}
}

func phaseDistribution(rows []schema.ClassificationRow) map[schema.Phase]float64 {
	dist := make(map[schema.Phase]float64)
	if len(rows) == 0 {
		return dist
	}
	for _, r := range rows {
		dist[r.Phase]++
	}
	for p := range dist {
		dist[p] /= float64(len(rows))
	}
	return dist
}
