package schema

// HarpMetrics holds the peak-timing/loop-area hysteresis metrics for one
// event. Area is signed: positive for clockwise (diluting) loops, negative
// for counter-clockwise (enriching) loops.
type HarpMetrics struct {
	Area      float64 // signed loop area in normalized C-Q space
	AreaLower float64 // partial area below the limb intersection (NaN if none)
	AreaUpper float64 // partial area above the limb intersection (NaN if none)
	Residual  float64 // normalized C at end minus normalized C at start

	PeakQ     float64 // scaled time-of-peak discharge in [0,1]
	PeakC     float64 // scaled time-of-peak concentration in [0,1]
	PeakTimeQ float64 // absolute time-of-peak discharge, days from event start
	PeakTimeC float64 // absolute time-of-peak concentration, days from event start
	DQPeak    float64 // PeakQ/PeakTimeQ rate ratio (NaN when the peak is at the start)
	DCPeak    float64 // PeakC/PeakTimeC rate ratio (NaN when the peak is at the start)

	RadiusEquiv float64 // radius of the circle with the same |area|

	Classification LoopDirection
}

// ZueccoMetrics holds the integration-based differential-area hysteresis
// index and its 9-class ordinal classification.
type ZueccoMetrics struct {
	HIndex      float64 // sum of trapezoidal rising-minus-falling areas
	Class       int     // 0 near-zero, 1-4 clockwise, 5-8 counter-clockwise
	MinDiffArea float64
	MaxDiffArea float64

	// Grid and DiffAreas retain the shared Q axis and per-cell differential
	// areas for diagnostics; DiffAreas has len(Grid)-1 entries.
	Grid      []float64
	DiffAreas []float64
}

// LloydSample is one discharge-percentile sample of the Lloyd/Lawler method.
type LloydSample struct {
	Percentile float64 // fraction of the event's own Q range, 0.1..0.9
	CRise      float64 // interpolated rising-limb concentration (NaN if out of range)
	CFall      float64 // interpolated falling-limb concentration (NaN if out of range)
	HInew      float64 // difference index, bounded to [-1, 1]
	HIL        float64 // ratio index, unbounded
}

// LloydMetrics summarizes the percentile-sampled hysteresis indices.
// All summary fields are NaN when no percentile produced a defined value.
type LloydMetrics struct {
	MeanHInew    float64
	MedianHInew  float64
	RangeHInew   float64
	MeanAbsHInew float64

	MeanHIL   float64
	MedianHIL float64
	RangeHIL  float64

	Samples []LloydSample
}

// EventClassifications carries the per-method direction calls assembled by
// the metrics orchestrator.
type EventClassifications struct {
	Harp   LoopDirection
	Zuecco int // -1 when the Zuecco method failed
	Lloyd  LoopDirection
	Lawler LoopDirection
}

// ProcessedEvent is the normalized view of an event shared by the three
// methods, kept for downstream diagnostics and plotting collaborators.
type ProcessedEvent struct {
	ElapsedDays []float64
	QScaled     []float64
	CScaled     []float64
	PeakQIndex  int
	PeakCIndex  int
}

// EventMetrics is the orchestrator result for one event. Any method that
// failed leaves its pointer nil and appends to Error; sibling methods still
// report. Ownership passes to the caller on return.
type EventMetrics struct {
	Harp            *HarpMetrics
	Zuecco          *ZueccoMetrics
	Lloyd           *LloydMetrics
	Classifications EventClassifications
	Processed       *ProcessedEvent
	Error           string // empty when all three methods succeeded
}

// SiteEventMetrics pairs a site with the hysteresis metrics computed over
// its observation record, plus the sample count the calculators saw.
type SiteEventMetrics struct {
	SiteID  string
	Samples int
	Metrics *EventMetrics
}

// FitResult is the output of the log-log slope estimator. All fields are
// NaN when fewer than three valid pairs were available.
type FitResult struct {
	Slope     float64 // power-law exponent b in C = a*Q^b
	Intercept float64 // log(a)
	R2        float64 // coefficient of determination
	N         int     // valid pairs used in the fit
}

// Defined reports whether the regression produced a usable slope.
func (f FitResult) Defined() bool { return !isNaN(f.Slope) }

// RatioPoint is one rolling-window CVc/CVq observation aligned to the
// window's end sample.
type RatioPoint struct {
	EndIndex int     // index of the window's last sample in the site series
	CVC      float64 // sigma_C / mu_C over the window
	CVQ      float64 // sigma_Q / mu_Q over the window
	Ratio    float64 // CVC / CVQ; NaN when undefined
	Slope    float64 // window log-log C-Q slope; NaN when undefined
}
