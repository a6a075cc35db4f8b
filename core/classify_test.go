package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/schema"
)

func testThresholds() *schema.ThresholdSet {
	return &schema.ThresholdSet{
		QP25: 2, QP50: 5, QP75: 8,
		CP25: 2, CP50: 5, CP75: 8,
		DCP01: -4, DCP05: -3, DCP08: -2.5, DCP10: -2, DCP25: -1,
		DCP50: 0, DCP75: 1, DCP90: 2, DCP95: 3,
		DQP05: -3, DQP10: -2, DQP25: -1, DQP50: 0, DQP75: 1, DQP90: 2,
		AbsDCP50: 0.5, AbsDCP75: 1.5,
		AbsDQP50: 0.5, AbsDQP75: 1.5,
		N: 50,
	}
}

func testSegment() *schema.Segment {
	return &schema.Segment{
		SiteID:    "site-1",
		Index:     5,
		StartTime: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
		StartQ:    8, EndQ: 9,
		StartC: 6, EndC: 4,
		FlowDiff: 1, ConcDiff: -2,
		WindowSlope: schema.FitResult{Slope: 0.20, Intercept: 0.1, R2: 0.9, N: 5},
		CVC:         0.4, CVQ: 0.3, CVRatio: 1.4,
		Behavior: schema.BehaviorDispersion,
		Dynamics: schema.SegmentDynamics{
			FlowPhase:     schema.FlowAtPeak,
			QLevel:        schema.LevelHigh,
			DaysSincePeak: 0.5,
			QTrend:        2.0,
			QAcceleration: 0.1,
		},
	}
}

func agreeingMetrics() *schema.EventMetrics {
	return &schema.EventMetrics{
		Harp:   &schema.HarpMetrics{Area: 0.2, Classification: schema.Clockwise},
		Zuecco: &schema.ZueccoMetrics{HIndex: 0.15, Class: 2},
		Lloyd:  &schema.LloydMetrics{MeanHInew: 0.3, MeanHIL: 0.4},
		Classifications: schema.EventClassifications{
			Harp:   schema.Clockwise,
			Zuecco: 2,
			Lloyd:  schema.Clockwise,
			Lawler: schema.Clockwise,
		},
	}
}

// TestClassifyFlushing runs the reference flushing scenario: positive
// slope 0.20, CVc/CVq 1.4, declining concentration while Q is high.
func TestClassifyFlushing(t *testing.T) {
	sc := &SegmentContext{
		Segment:      testSegment(),
		Metrics:      agreeingMetrics(),
		PrevCLevel:   schema.LevelHigh,
		HITransition: transitionStable,
		CTrajectory:  trajectorySteepDecline,
	}

	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseFlushing, row.Phase)
	assert.GreaterOrEqual(t, row.Confidence, 0.65)
	assert.Contains(t, row.Rules, schema.RulePositiveSlope)
	assert.Contains(t, row.Rules, schema.RuleChemodynamic)
	assert.Contains(t, row.Rules, schema.RuleStrongPositiveSlope)
	assert.Contains(t, row.Rules, schema.RuleStrongChemodynamic)
	assert.Contains(t, row.Rules, schema.RuleMethodsAgree)
	assert.NotContains(t, row.Rules, schema.RuleReducedQuality)
}

// TestClassifyLoading verifies the loading rule and its corroborations.
func TestClassifyLoading(t *testing.T) {
	seg := testSegment()
	seg.WindowSlope.Slope = -0.25
	seg.ConcDiff = 3 // above DCP90
	seg.EndC = 9     // high concentration
	seg.Dynamics.FlowPhase = schema.FlowRising

	sc := &SegmentContext{Segment: seg, Metrics: agreeingMetrics()}
	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseLoading, row.Phase)
	assert.Contains(t, row.Rules, schema.RuleNegativeSlope)
	assert.Contains(t, row.Rules, schema.RuleConcRisingToMax)
	assert.Contains(t, row.Rules, schema.RuleLargeConcIncrease)
	assert.Contains(t, row.Rules, schema.RuleQNotPeaked)
	assert.Greater(t, row.Confidence, 0.8)
}

// TestClassifyChemostatic verifies flat slope, buffered ratio and low
// hysteresis land on C.
func TestClassifyChemostatic(t *testing.T) {
	seg := testSegment()
	seg.WindowSlope.Slope = 0.02
	seg.CVRatio = 0.6
	seg.FlowDiff = 0.1
	seg.ConcDiff = 0.2
	seg.Dynamics.FlowPhase = schema.FlowStable
	seg.Dynamics.QLevel = schema.LevelMedium

	m := agreeingMetrics()
	m.Zuecco.HIndex = 0.01

	sc := &SegmentContext{Segment: seg, Metrics: m}
	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseChemostatic, row.Phase)
	assert.Contains(t, row.Rules, schema.RuleFlatSlope)
	assert.Contains(t, row.Rules, schema.RuleStrongChemostatic)
	assert.Contains(t, row.Rules, schema.RuleStableConc)
}

// TestClassifyDilutionAfterFlushing verifies the prior phase drives D.
func TestClassifyDilutionAfterFlushing(t *testing.T) {
	seg := testSegment()
	seg.WindowSlope.Slope = 0.05
	seg.CVRatio = 1.1
	seg.FlowDiff = -2
	seg.ConcDiff = -1
	seg.EndC = 3 // depleted
	seg.Dynamics.FlowPhase = schema.FlowPostPeak
	seg.Dynamics.QLevel = schema.LevelMedium

	sc := &SegmentContext{
		Segment: seg,
		Metrics: agreeingMetrics(),
		Prior:   schema.PhaseFlushing,
	}
	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseDilution, row.Phase)
	assert.Contains(t, row.Rules, schema.RulePriorFlushing)
	assert.Contains(t, row.Rules, schema.RulePostPeak)
}

// TestClassifyRecession verifies late-cycle declines under buffered
// variability land on R.
func TestClassifyRecession(t *testing.T) {
	seg := testSegment()
	seg.WindowSlope.Slope = 0.12 // ambiguous band, no directional rule
	seg.CVRatio = 0.5
	seg.FlowDiff = -2
	seg.ConcDiff = -0.5
	seg.Dynamics.FlowPhase = schema.FlowLateDecline
	seg.Dynamics.QLevel = schema.LevelLow
	seg.Dynamics.DaysSincePeak = 20

	sc := &SegmentContext{Segment: seg, Metrics: agreeingMetrics()}
	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseRecession, row.Phase)
	assert.Contains(t, row.Rules, schema.RuleLateCycle)
	assert.Contains(t, row.Rules, schema.RuleStrongChemostatic)
	assert.Contains(t, row.Rules, schema.RuleSteepFlowDecline)
}

// TestClassifyVariableConflict verifies conflicting indicators fall back
// to V with the conflict flag.
func TestClassifyVariableConflict(t *testing.T) {
	seg := testSegment()
	seg.WindowSlope.Slope = -0.3 // loading signature
	seg.CVRatio = 0.5            // but chemostatic variability
	seg.ConcDiff = 0.2           // and no rise toward a maximum
	seg.EndC = 4
	seg.FlowDiff = 1

	sc := &SegmentContext{Segment: seg, Metrics: agreeingMetrics()}
	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseVariable, row.Phase)
	assert.Contains(t, row.Rules, schema.RuleFallback)
	assert.Contains(t, row.Rules, schema.RuleConflict)
}

// TestClassifyMissingInputsPenalty verifies NaN inputs degrade confidence
// and are flagged, never treated as zero.
func TestClassifyMissingInputsPenalty(t *testing.T) {
	seg := testSegment()
	seg.WindowSlope = schema.FitResult{Slope: math.NaN(), Intercept: math.NaN(), R2: math.NaN()}
	seg.CVRatio = math.NaN()

	sc := &SegmentContext{Segment: seg} // no window metrics either
	row := ClassifySegment(sc, testThresholds(), DefaultConfidenceWeights())

	assert.Equal(t, schema.PhaseVariable, row.Phase)
	assert.LessOrEqual(t, row.Confidence, 0.5)
	assert.Contains(t, row.Rules, schema.RuleReducedQuality)
}

// TestClassifySegmentDeterminism ensures the classifier is a pure function
// of its inputs.
func TestClassifySegmentDeterminism(t *testing.T) {
	sc := &SegmentContext{
		Segment:     testSegment(),
		Metrics:     agreeingMetrics(),
		PrevCLevel:  schema.LevelHigh,
		CTrajectory: trajectorySteepDecline,
	}
	th := testThresholds()
	w := DefaultConfidenceWeights()

	first := ClassifySegment(sc, th, w)
	second := ClassifySegment(sc, th, w)

	assert.Equal(t, first, second)
}

// TestClassifySeriesDegraded covers the boundary case: too few points for
// percentile thresholding must yield V with reduced confidence and an
// explicit data-quality flag.
func TestClassifySeriesDegraded(t *testing.T) {
	table := seriesTable("site-1", []float64{1, 2, 3}, []float64{4, 5, 6})

	out, err := ClassifySeries(table, nil, DefaultClassifyOptions())
	require.NoError(t, err)

	require.Len(t, out.Rows, 2)
	for _, row := range out.Rows {
		assert.Equal(t, schema.PhaseVariable, row.Phase)
		assert.LessOrEqual(t, row.Confidence, 0.5)
		assert.Contains(t, row.Rules, schema.RuleReducedQuality)
	}
}

// TestClassifySeriesIdempotence re-runs classification on an unchanged
// population with the same thresholds and expects identical rows.
func TestClassifySeriesIdempotence(t *testing.T) {
	table := seriesTable("site-1",
		[]float64{1, 2, 5, 9, 7, 4, 2, 1, 3, 6, 8, 5},
		[]float64{10, 12, 8, 5, 6, 9, 11, 12, 10, 7, 6, 8},
	)
	th, err := ComputeThresholds([]*schema.SeriesTable{table}, 5)
	require.NoError(t, err)

	opts := DefaultClassifyOptions()
	first, err := ClassifySeries(table, th, opts)
	require.NoError(t, err)
	second, err := ClassifySeries(table, th, opts)
	require.NoError(t, err)

	require.Len(t, second.Rows, len(first.Rows))
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].Phase, second.Rows[i].Phase)
		assert.Equal(t, first.Rows[i].Confidence, second.Rows[i].Confidence)
		assert.Equal(t, first.Rows[i].Rules, second.Rows[i].Rules)
	}
	assert.Equal(t, first.Distribution, second.Distribution)

	var total float64
	for _, share := range first.Distribution {
		total += share
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}
