package core

import (
	"math"
	"strings"

	"github.com/cqscope/cqscope/schema"
)

// directionEpsilon is the |mean index| below which a percentile-sampled
// direction call reads as weak rather than directional.
const directionEpsilon = 0.1

// ComputeEventMetrics runs all three hysteresis methods over one event and
// assembles a unified result. The analysis is best-effort across methods:
// a failing calculator leaves its field nil and contributes a line to
// Error while its siblings still report.
func ComputeEventMetrics(ev *schema.Event) *schema.EventMetrics {
	out := &schema.EventMetrics{
		Classifications: schema.EventClassifications{
			Harp:   schema.Undefined,
			Zuecco: -1,
			Lloyd:  schema.Undefined,
			Lawler: schema.Undefined,
		},
	}
	var failures []string

	harp, err := Harp(ev)
	if err != nil {
		failures = append(failures, err.Error())
	} else {
		out.Harp = harp
		out.Classifications.Harp = harp.Classification
	}

	zuecco, err := Zuecco(ev)
	if err != nil {
		failures = append(failures, err.Error())
	} else {
		out.Zuecco = zuecco
		out.Classifications.Zuecco = zuecco.Class
	}

	lloyd, err := Lloyd(ev)
	if err != nil {
		failures = append(failures, err.Error())
	} else {
		out.Lloyd = lloyd
		out.Classifications.Lloyd = meanIndexDirection(lloyd.MeanHInew)
		out.Classifications.Lawler = meanIndexDirection(lloyd.MeanHIL)
	}

	if !isFlat(ev.Q) {
		elapsed := ev.ElapsedDays()
		out.Processed = &schema.ProcessedEvent{
			ElapsedDays: elapsed,
			QScaled:     minMaxScale(ev.Q),
			CScaled:     minMaxScale(ev.C),
			PeakQIndex:  argMax(ev.Q),
			PeakCIndex:  argMax(ev.C),
		}
	}

	out.Error = strings.Join(failures, "; ")
	return out
}

// meanIndexDirection maps a mean percentile-sampled index to a direction.
func meanIndexDirection(mean float64) schema.LoopDirection {
	switch {
	case math.IsNaN(mean):
		return schema.Undefined
	case mean > directionEpsilon:
		return schema.Clockwise
	case mean < -directionEpsilon:
		return schema.CounterClockwise
	default:
		return schema.Weak
	}
}

// hysteresisSignAgreement counts how many of the three methods share the
// majority loop direction. NaN or undefined methods do not vote.
func hysteresisSignAgreement(harpArea, zueccoH, lloydMean float64) int {
	var pos, neg int
	for _, v := range []float64{harpArea, zueccoH, lloydMean} {
		if math.IsNaN(v) || v == 0 {
			continue
		}
		if v > 0 {
			pos++
		} else {
			neg++
		}
	}
	if pos > neg {
		return pos
	}
	return neg
}
