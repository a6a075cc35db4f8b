package core

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cqscope/cqscope/schema"
)

// behaviorThresholdFactor defines a significant change as this fraction of
// the site's full observed range (Williams 1989 style significance).
const behaviorThresholdFactor = 0.01

// BuildSegments turns a site series into consecutive-sample segments with
// point-to-point deltas, the Williams-style behavior label, a trailing
// windowed slope fit, rolling variability and flow dynamics. Rows with a
// missing Q or C are dropped before pairing.
func BuildSegments(table *schema.SeriesTable, th *schema.ThresholdSet, window int) []schema.Segment {
	if window < 2 {
		window = DefaultVariabilityWindow
	}
	clean := dropMissing(table)
	n := clean.Len()
	if n < 2 {
		return nil
	}

	q := clean.Discharge()
	c := clean.Concentration()
	qLo, qHi := rangeOf(q)
	cLo, cHi := rangeOf(c)

	ratios := ratioByEndIndex(RollingRatios(clean, window))

	segments := make([]schema.Segment, 0, n-1)
	for i := 0; i < n-1; i++ {
		p1, p2 := clean.Rows[i], clean.Rows[i+1]
		flowDiff := p2.Q - p1.Q
		concDiff := p2.C - p1.C

		seg := schema.Segment{
			SiteID:    clean.SiteID,
			Index:     i + 1,
			StartTime: p1.Time,
			EndTime:   p2.Time,
			StartQ:    p1.Q,
			EndQ:      p2.Q,
			StartC:    p1.C,
			EndC:      p2.C,
			FlowDiff:  flowDiff,
			ConcDiff:  concDiff,
			Behavior:  classifyBehavior(flowDiff, concDiff, qHi-qLo, cHi-cLo),
		}

		lo := i + 1 - window + 1
		if lo < 0 {
			lo = 0
		}
		seg.WindowSlope = FitLogLog(q[lo:i+2], c[lo:i+2])

		seg.CVC, seg.CVQ, seg.CVRatio = math.NaN(), math.NaN(), math.NaN()
		if rp, ok := ratios[i+1]; ok {
			seg.CVC, seg.CVQ, seg.CVRatio = rp.CVC, rp.CVQ, rp.Ratio
		}

		wLo, wHi := windowBounds(i+1, n, window)
		seg.Dynamics = analyzeFlowDynamics(clean, wLo, wHi, th)

		segments = append(segments, seg)
	}
	return segments
}

// windowBounds returns the inclusive sample range of the hysteresis window
// around a segment's end index: window samples either side, clipped to the
// series.
func windowBounds(end, n, window int) (lo, hi int) {
	lo = end - window
	if lo < 0 {
		lo = 0
	}
	hi = end + window
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// classifyBehavior assigns the simple point-to-point C-Q behavior label
// (Williams 1989, Evans & Davies 1998). A delta is significant when it
// exceeds behaviorThresholdFactor of the site's full range.
func classifyBehavior(flowDiff, concDiff, flowRange, concRange float64) schema.Behavior {
	flowChanging := flowRange > 1e-10 && math.Abs(flowDiff) > behaviorThresholdFactor*flowRange
	concChanging := concRange > 1e-10 && math.Abs(concDiff) > behaviorThresholdFactor*concRange

	switch {
	case !flowChanging && !concChanging:
		return schema.BehaviorStatic
	case flowChanging && !concChanging:
		return schema.BehaviorChemostatic
	case !flowChanging && concChanging:
		return schema.BehaviorSourceVariation
	case flowDiff > 0 && concDiff > 0:
		return schema.BehaviorConnectivity
	case flowDiff < 0 && concDiff < 0:
		return schema.BehaviorRecovery
	case flowDiff > 0:
		return schema.BehaviorDispersion
	default:
		return schema.BehaviorAccumulation
	}
}

// analyzeFlowDynamics derives the position of a window inside the site's
// discharge cycle: peak timing, flow phase, discharge level, trend and
// acceleration.
func analyzeFlowDynamics(table *schema.SeriesTable, lo, hi int, th *schema.ThresholdSet) schema.SegmentDynamics {
	dyn := schema.SegmentDynamics{
		FlowPhase:     schema.FlowUnknown,
		QLevel:        schema.LevelNone,
		DaysSincePeak: math.NaN(),
		QTrend:        math.NaN(),
		QAcceleration: math.NaN(),
	}
	if hi-lo < 1 {
		return dyn
	}

	rows := table.Rows[lo : hi+1]
	q := make([]float64, len(rows))
	days := make([]float64, len(rows))
	for i, r := range rows {
		q[i] = r.Q
		days[i] = r.Time.Sub(rows[0].Time).Hours() / 24
	}

	peak := argMax(q)
	if peak < 0 {
		return dyn
	}
	duration := days[len(days)-1]
	daysToPeak := days[peak]
	daysSincePeak := duration - daysToPeak
	dyn.DaysSincePeak = daysSincePeak

	startQ, endQ := q[0], q[len(q)-1]
	dyn.QLevel = th.QLevel(endQ)

	peakPosition := peakPositionLabel(daysToPeak, duration)
	dyn.FlowPhase = flowPhaseFor(daysSincePeak, daysToPeak, duration, startQ, endQ, dyn.QLevel, peakPosition, th)

	if len(q) > 2 {
		_, trend := stat.LinearRegression(days, q, nil, false)
		dyn.QTrend = trend
		mid := len(q) / 2
		t1, t2 := halfTrend(days[:mid], q[:mid]), halfTrend(days[mid:], q[mid:])
		dyn.QAcceleration = t2 - t1
	} else {
		if duration > 0 {
			dyn.QTrend = (endQ - startQ) / duration
		}
		dyn.QAcceleration = 0
	}
	return dyn
}

func peakPositionLabel(daysToPeak, duration float64) string {
	if duration <= 0 {
		return "middle"
	}
	frac := daysToPeak / duration
	switch {
	case frac < 0.33:
		return "early"
	case frac > 0.67:
		return "late"
	default:
		return "middle"
	}
}

func flowPhaseFor(daysSincePeak, daysToPeak, duration, startQ, endQ float64, level schema.Level, peakPosition string, th *schema.ThresholdSet) schema.FlowPhase {
	switch {
	case daysSincePeak < 1:
		return schema.FlowAtPeak
	case daysSincePeak < duration*0.3:
		if endQ > th.QP50 {
			return schema.FlowEarlyDecline
		}
		return schema.FlowLateDecline
	case daysToPeak < duration*0.3:
		return schema.FlowPostPeak
	case peakPosition == "late" && endQ > startQ:
		return schema.FlowRising
	case level == schema.LevelLow:
		return schema.FlowLow
	case endQ > startQ*1.1:
		return schema.FlowRising
	case endQ < startQ*0.9:
		if level == schema.LevelHigh {
			return schema.FlowEarlyDecline
		}
		return schema.FlowLateDecline
	default:
		return schema.FlowStable
	}
}

func halfTrend(days, q []float64) float64 {
	if len(q) < 2 {
		return 0
	}
	if len(q) == 2 {
		dt := days[1] - days[0]
		if dt == 0 {
			return 0
		}
		return (q[1] - q[0]) / dt
	}
	_, slope := stat.LinearRegression(days, q, nil, false)
	return slope
}

func dropMissing(table *schema.SeriesTable) *schema.SeriesTable {
	out := &schema.SeriesTable{SiteID: table.SiteID, Rows: make([]schema.SeriesRow, 0, table.Len())}
	for _, r := range table.Rows {
		if math.IsNaN(r.Q) || math.IsNaN(r.C) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func rangeOf(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func ratioByEndIndex(points []schema.RatioPoint) map[int]schema.RatioPoint {
	out := make(map[int]schema.RatioPoint, len(points))
	for _, p := range points {
		out[p.EndIndex] = p
	}
	return out
}
