package core

import (
	"fmt"
	"math"

	"github.com/cqscope/cqscope/schema"
)

// Classifier constants beyond the slope and ratio cutoffs in schema.
const (
	// lowHysteresisMagnitude is the |window h-index| below which a segment
	// counts as having no hysteresis signal.
	lowHysteresisMagnitude = 0.12

	// stronglyChemostaticRatio marks clearly buffered variability.
	stronglyChemostaticRatio = 0.8

	// recessionMinDaysSincePeak is the days-since-peak floor for recession.
	recessionMinDaysSincePeak = 5.0
)

// ConfidenceWeights parameterize the confidence score aggregation. The
// defaults follow the published heuristic; they are configurable because
// the literature fixes effect directions, not exact calibration.
type ConfidenceWeights struct {
	Base    float64 // starting score for any fired rule
	Strong  float64 // per corroborating condition beyond the rule minimum
	Support float64 // when >=2 hysteresis methods agree in sign
	Penalty float64 // when a required input is missing (negative)
}

// DefaultConfidenceWeights returns the published calibration.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Base:    schema.ConfidenceBase,
		Strong:  schema.ConfidenceStrong,
		Support: schema.ConfidenceSupport,
		Penalty: schema.ConfidencePenalty,
	}
}

// SegmentContext bundles one segment with its window-scale hysteresis and
// the temporal context threaded from the preceding segments. Prior state
// is passed explicitly by the caller so the classifier itself stays a pure
// function over its inputs plus the immutable ThresholdSet.
type SegmentContext struct {
	Segment *schema.Segment
	Metrics *schema.EventMetrics // window-scale, may be nil

	Prior         schema.Phase // zero value means no prior segment
	PrevConcDiff  float64
	Prev2ConcDiff float64
	PrevCLevel    schema.Level
	HITransition  string
	CTrajectory   string
}

// ClassifySegment assigns one of the six geochemical phases to a segment.
// Rules are evaluated in fixed priority order and the first match wins;
// every condition tests for missing data explicitly before comparing, so a
// NaN input reads as unknown rather than zero.
func ClassifySegment(sc *SegmentContext, th *schema.ThresholdSet, w ConfidenceWeights) schema.ClassificationRow {
	seg := sc.Segment
	slope := seg.WindowSlope.Slope
	ratio := seg.CVRatio
	hi, loopClass := windowHysteresis(sc.Metrics)

	slopeOK := !math.IsNaN(slope)
	ratioOK := !math.IsNaN(ratio)
	hiOK := !math.IsNaN(hi)
	missing := !slopeOK || !ratioOK || !hiOK

	cLevel := th.CLevel(seg.EndC)
	dyn := seg.Dynamics

	var rules []string
	var extras int
	phase := schema.PhaseVariable

	switch {
	case flushingRule(sc, th, slopeOK, ratioOK, &rules, &extras):
		phase = schema.PhaseFlushing

	case loadingRule(sc, th, cLevel, slopeOK, &rules, &extras):
		phase = schema.PhaseLoading

	case chemostaticRule(sc, th, hi, slopeOK, ratioOK, hiOK, &rules, &extras):
		phase = schema.PhaseChemostatic

	case dilutionRule(sc, th, cLevel, slopeOK, ratioOK, &rules, &extras):
		phase = schema.PhaseDilution

	case recessionRule(sc, th, ratioOK, &rules, &extras):
		phase = schema.PhaseRecession

	default:
		rules = append(rules, schema.RuleFallback)
		if slopeOK && ratioOK {
			// Conflicting indicators: slope claims a direction the
			// variability ratio does not support.
			loadingVsStatic := slope < schema.SlopeLoading && ratio < schema.CVRatioBalance
			flushingVsStatic := slope > schema.SlopeFlushing && ratio < schema.CVRatioBalance
			if loadingVsStatic || flushingVsStatic {
				rules = append(rules, schema.RuleConflict)
			}
		}
	}

	conf := w.Base + float64(extras)*w.Strong
	if agreement := methodAgreement(sc.Metrics); agreement >= 2 {
		rules = append(rules, schema.RuleMethodsAgree)
		conf += w.Support
	}
	if missing {
		rules = append(rules, schema.RuleReducedQuality)
		conf += w.Penalty
	}

	return schema.ClassificationRow{
		SiteID:     seg.SiteID,
		Time:       seg.EndTime,
		Phase:      phase,
		Confidence: schema.Clamp01(conf),
		Rules:      rules,
		Evidence:   evidenceFor(seg, hi),
		Slope:      slope,
		R2:         seg.WindowSlope.R2,
		CVRatio:    ratio,
		Q:          seg.EndQ,
		C:          seg.EndC,
		QLevel:     dyn.QLevel,
		Behavior:   seg.Behavior,
		FlowPhase:  dyn.FlowPhase,
		HIndex:     hi,
		LoopClass:  loopClass,
	}
}

// flushingRule: positive C-Q slope, chemodynamic variability and a
// concentration decline while discharge is high or still rising.
func flushingRule(sc *SegmentContext, th *schema.ThresholdSet, slopeOK, ratioOK bool, rules *[]string, extras *int) bool {
	seg := sc.Segment
	slope := seg.WindowSlope.Slope
	ratio := seg.CVRatio

	if !slopeOK || slope <= schema.SlopeFlushing {
		return false
	}
	if !ratioOK || ratio <= schema.CVRatioBalance {
		return false
	}
	if seg.ConcDiff >= 0 {
		return false
	}
	if !qHighOrRising(seg) {
		return false
	}
	*rules = append(*rules, schema.RulePositiveSlope, schema.RuleChemodynamic, schema.RuleConcDeclining, schema.RuleQHighOrRising)

	if slope >= schema.SlopeStrong {
		*rules = append(*rules, schema.RuleStrongPositiveSlope)
		*extras++
	}
	if ratio >= schema.CVRatioStrong {
		*rules = append(*rules, schema.RuleStrongChemodynamic)
		*extras++
	}
	if !math.IsNaN(th.DCP08) && seg.ConcDiff < th.DCP08 {
		*rules = append(*rules, schema.RuleSteepConcDecline)
		*extras++
	}
	if sc.PrevCLevel == schema.LevelHigh || sc.CTrajectory == trajectorySteepDeclineFromHigh {
		*rules = append(*rules, schema.RuleCWasHigh)
		*extras++
	}
	return true
}

// loadingRule: negative C-Q slope with concentration rising toward its
// maximum, independent of the variability ratio.
func loadingRule(sc *SegmentContext, th *schema.ThresholdSet, cLevel schema.Level, slopeOK bool, rules *[]string, extras *int) bool {
	seg := sc.Segment
	slope := seg.WindowSlope.Slope

	if !slopeOK || slope >= schema.SlopeLoading {
		return false
	}
	if seg.ConcDiff <= 0 {
		return false
	}
	largeIncrease := !math.IsNaN(th.DCP90) && seg.ConcDiff > th.DCP90
	risingToMax := cLevel == schema.LevelHigh || largeIncrease
	if !risingToMax {
		return false
	}
	*rules = append(*rules, schema.RuleNegativeSlope, schema.RuleConcRising)
	if cLevel == schema.LevelHigh {
		*rules = append(*rules, schema.RuleConcRisingToMax)
	}

	if slope <= -schema.SlopeStrong {
		*rules = append(*rules, schema.RuleStrongNegativeSlope)
		*extras++
	}
	if largeIncrease {
		*rules = append(*rules, schema.RuleLargeConcIncrease)
		*extras++
	}
	if fp := seg.Dynamics.FlowPhase; fp != schema.FlowAtPeak && fp != schema.FlowEarlyDecline {
		*rules = append(*rules, schema.RuleQNotPeaked)
		*extras++
	}
	return true
}

// chemostaticRule: flat slope, buffered variability and no hysteresis
// signal in the window.
func chemostaticRule(sc *SegmentContext, th *schema.ThresholdSet, hi float64, slopeOK, ratioOK, hiOK bool, rules *[]string, extras *int) bool {
	seg := sc.Segment
	slope := seg.WindowSlope.Slope
	ratio := seg.CVRatio

	if !slopeOK || math.Abs(slope) >= schema.SlopeChemostatic {
		return false
	}
	if !ratioOK || ratio >= schema.CVRatioBalance {
		return false
	}
	if !hiOK || math.Abs(hi) >= lowHysteresisMagnitude {
		return false
	}
	*rules = append(*rules, schema.RuleFlatSlope, schema.RuleChemostaticRatio, schema.RuleLowHysteresis)

	if ratio < stronglyChemostaticRatio {
		*rules = append(*rules, schema.RuleStrongChemostatic)
		*extras++
	}
	if !math.IsNaN(th.AbsDCP50) && math.Abs(seg.ConcDiff) < th.AbsDCP50 {
		*rules = append(*rules, schema.RuleStableConc)
		*extras++
	}
	return true
}

// dilutionRule: flow and concentration both declining after a flush. The
// prior phase being flushing is the primary trigger; lacking that, a
// recent steep decline combined with no strong slope or variability
// signature also qualifies.
func dilutionRule(sc *SegmentContext, th *schema.ThresholdSet, cLevel schema.Level, slopeOK, ratioOK bool, rules *[]string, extras *int) bool {
	seg := sc.Segment
	if seg.FlowDiff >= 0 || seg.ConcDiff >= 0 {
		return false
	}

	priorFlush := sc.Prior == schema.PhaseFlushing
	recentFlush := (!math.IsNaN(th.DCP25) && sc.PrevConcDiff < th.DCP25) ||
		(!math.IsNaN(th.DCP08) && sc.Prev2ConcDiff < th.DCP08)
	slope := seg.WindowSlope.Slope
	ratio := seg.CVRatio
	noStrongSignature := !(slopeOK && (slope > schema.SlopeFlushing || slope < schema.SlopeLoading)) &&
		!(ratioOK && ratio > schema.CVRatioStrong)

	if !priorFlush && !(noStrongSignature && recentFlush) {
		return false
	}

	*rules = append(*rules, schema.RuleQDeclining, schema.RuleConcDeclining)
	if priorFlush {
		*rules = append(*rules, schema.RulePriorFlushing)
	} else {
		*rules = append(*rules, schema.RuleNoStrongSignature)
	}

	if cLevel == schema.LevelLow || cLevel == schema.LevelMedium {
		*extras++
	}
	if fp := seg.Dynamics.FlowPhase; fp == schema.FlowPostPeak || fp == schema.FlowLateDecline {
		*rules = append(*rules, schema.RulePostPeak)
		*extras++
	}
	if !math.IsNaN(th.AbsDCP75) && math.Abs(seg.ConcDiff) < th.AbsDCP75 {
		*rules = append(*rules, schema.RuleStableConc)
		*extras++
	}
	return true
}

// recessionRule: late-cycle decline of both flow and concentration under
// buffered variability, well past the discharge peak.
func recessionRule(sc *SegmentContext, th *schema.ThresholdSet, ratioOK bool, rules *[]string, extras *int) bool {
	seg := sc.Segment
	if seg.FlowDiff >= 0 || seg.ConcDiff >= 0 {
		return false
	}
	ratio := seg.CVRatio
	if !ratioOK || ratio >= schema.CVRatioBalance {
		return false
	}
	dyn := seg.Dynamics
	lateCycle := dyn.FlowPhase == schema.FlowLow || dyn.FlowPhase == schema.FlowLateDecline ||
		dyn.QLevel == schema.LevelLow ||
		(!math.IsNaN(dyn.DaysSincePeak) && dyn.DaysSincePeak > recessionMinDaysSincePeak)
	if !lateCycle {
		return false
	}
	*rules = append(*rules, schema.RuleQDeclining, schema.RuleConcDeclining, schema.RuleChemostaticRatio, schema.RuleLateCycle)

	if ratio < stronglyChemostaticRatio {
		*rules = append(*rules, schema.RuleStrongChemostatic)
		*extras++
	}
	if !math.IsNaN(th.DQP25) && seg.FlowDiff < th.DQP25 {
		*rules = append(*rules, schema.RuleSteepFlowDecline)
		*extras++
	}
	return true
}

func qHighOrRising(seg *schema.Segment) bool {
	dyn := seg.Dynamics
	switch dyn.FlowPhase {
	case schema.FlowRising, schema.FlowAtPeak, schema.FlowEarlyDecline:
		return true
	}
	return dyn.QLevel == schema.LevelHigh || seg.FlowDiff > 0
}

// windowHysteresis picks the primary window h-index with the method
// preference Zuecco, then Lloyd, then HARP, plus the Lloyd direction call.
func windowHysteresis(m *schema.EventMetrics) (float64, schema.LoopDirection) {
	if m == nil {
		return math.NaN(), schema.Undefined
	}
	direction := m.Classifications.Lloyd
	if m.Zuecco != nil && !math.IsNaN(m.Zuecco.HIndex) {
		return m.Zuecco.HIndex, direction
	}
	if m.Lloyd != nil && !math.IsNaN(m.Lloyd.MeanHInew) {
		return m.Lloyd.MeanHInew, direction
	}
	if m.Harp != nil && !math.IsNaN(m.Harp.Area) {
		return m.Harp.Area, direction
	}
	return math.NaN(), direction
}

// methodAgreement returns how many of the three window methods share the
// majority loop sign.
func methodAgreement(m *schema.EventMetrics) int {
	if m == nil {
		return 0
	}
	harp, zuecco, lloyd := math.NaN(), math.NaN(), math.NaN()
	if m.Harp != nil {
		harp = m.Harp.Area
	}
	if m.Zuecco != nil {
		zuecco = m.Zuecco.HIndex
	}
	if m.Lloyd != nil {
		lloyd = m.Lloyd.MeanHInew
	}
	return hysteresisSignAgreement(harp, zuecco, lloyd)
}

func evidenceFor(seg *schema.Segment, hi float64) []string {
	return []string{
		fmt.Sprintf("slope=%.3f", seg.WindowSlope.Slope),
		fmt.Sprintf("cv_ratio=%.3f", seg.CVRatio),
		fmt.Sprintf("hi=%.4f", hi),
		fmt.Sprintf("flow_diff=%.3f", seg.FlowDiff),
		fmt.Sprintf("conc_diff=%.3f", seg.ConcDiff),
		fmt.Sprintf("flow_phase=%s", seg.Dynamics.FlowPhase),
	}
}
