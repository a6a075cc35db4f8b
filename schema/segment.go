package schema

import "time"

// SeriesRow is one timestamped discharge/concentration observation for a
// site. NaN marks a missing value.
type SeriesRow struct {
	Time time.Time
	Q    float64
	C    float64
}

// SeriesTable is a site's full observation record in time order.
type SeriesTable struct {
	SiteID string
	Rows   []SeriesRow
}

// Len returns the number of observations.
func (t *SeriesTable) Len() int { return len(t.Rows) }

// Times returns the observation timestamps.
func (t *SeriesTable) Times() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Time
	}
	return out
}

// Discharge returns the Q column.
func (t *SeriesTable) Discharge() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Q
	}
	return out
}

// Concentration returns the C column.
func (t *SeriesTable) Concentration() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.C
	}
	return out
}

// SegmentDynamics describes where a segment sits inside the site's flow
// history: its position relative to the most recent discharge peak and the
// local trend and curvature of Q.
type SegmentDynamics struct {
	FlowPhase     FlowPhase
	QLevel        Level
	DaysSincePeak float64 // NaN when no prior peak is known
	QTrend        float64 // mean dQ/dt over the trailing window
	QAcceleration float64 // change in dQ/dt over the trailing window
}

// Segment is one consecutive-sample transition of a site series, carrying
// the point-to-point deltas, the windowed slope fits, and the behavior
// label assigned from the Williams-style delta rules.
type Segment struct {
	SiteID    string
	Index     int // index of the segment's end sample in the site series
	StartTime time.Time
	EndTime   time.Time

	StartQ float64
	EndQ   float64
	StartC float64
	EndC   float64

	FlowDiff float64 // EndQ - StartQ
	ConcDiff float64 // EndC - StartC

	// Windowed context around the segment end.
	WindowSlope FitResult
	CVC         float64
	CVQ         float64
	CVRatio     float64

	Behavior Behavior
	Dynamics SegmentDynamics
}
