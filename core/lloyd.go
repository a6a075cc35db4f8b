package core

import (
	"math"
	"sort"

	"github.com/cqscope/cqscope/schema"
)

// lloydPercentiles are the fixed discharge percentiles at which both limbs
// are sampled (fractions of the event's own scaled Q range).
var lloydPercentiles = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Lloyd computes the percentile-sampled hysteresis indices of one event:
// HInew after Lloyd et al. (2016) and the older ratio-based HIL after
// Lawler et al. (2006). At each discharge percentile the rising and
// falling limb concentrations are interpolated independently; percentiles
// outside a limb's sampled Q range are excluded from the summaries rather
// than treated as zero, and a fully empty sample set resolves every
// summary to NaN.
func Lloyd(ev *schema.Event) (*schema.LloydMetrics, error) {
	const op = "core.Lloyd"
	if ev.Len() < schema.MinEventSamples {
		return nil, &schema.InsufficientDataError{Op: op, Got: ev.Len(), Need: schema.MinEventSamples}
	}
	if isFlat(ev.Q) {
		return nil, &schema.UndefinedMetricError{Op: op, Reason: "flat discharge series has no limbs"}
	}

	qs := minMaxScale(ev.Q)
	cs := minMaxScale(ev.C)
	peakQ := argMax(ev.Q)

	rising, falling := splitLimbs(qs, cs, peakQ)
	if len(rising) < 2 || len(falling) < 2 {
		return nil, &schema.UndefinedMetricError{Op: op, Reason: "limb has fewer than 2 points after deduplication"}
	}

	samples := make([]schema.LloydSample, 0, len(lloydPercentiles))
	for _, p := range lloydPercentiles {
		s := schema.LloydSample{Percentile: p, HInew: math.NaN(), HIL: math.NaN()}
		cRise, okRise := interpLimb(rising, p)
		cFall, okFall := interpLimb(falling, p)
		s.CRise, s.CFall = cRise, cFall
		if okRise && okFall {
			s.HInew = hiNew(cRise, cFall)
			s.HIL = hiLawler(cRise, cFall)
		}
		samples = append(samples, s)
	}

	hinew := collect(samples, func(s schema.LloydSample) float64 { return s.HInew })
	hil := collect(samples, func(s schema.LloydSample) float64 { return s.HIL })

	return &schema.LloydMetrics{
		MeanHInew:    mean(hinew),
		MedianHInew:  median(hinew),
		RangeHInew:   spread(hinew),
		MeanAbsHInew: meanAbs(hinew),
		MeanHIL:      mean(hil),
		MedianHIL:    median(hil),
		RangeHIL:     spread(hil),
		Samples:      samples,
	}, nil
}

// hiNew is the difference index of Lloyd et al. (2016), normalized by the
// larger limb concentration so it stays within [-1, 1].
func hiNew(cRise, cFall float64) float64 {
	cMid := math.Max(cRise, cFall)
	if cMid == 0 {
		return 0
	}
	return (cRise - cFall) / cMid
}

// hiLawler is the ratio index of Lawler et al. (2006). Undefined when the
// denominator limb concentration is zero.
func hiLawler(cRise, cFall float64) float64 {
	if cRise > cFall {
		if cFall == 0 {
			return math.NaN()
		}
		return cRise/cFall - 1
	}
	if cRise == 0 {
		return math.NaN()
	}
	return -cFall/cRise + 1
}

func collect(samples []schema.LloydSample, pick func(schema.LloydSample) float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v := pick(s); !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAbs(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += math.Abs(v)
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func spread(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}
