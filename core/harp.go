package core

import (
	"math"
	"sort"

	"github.com/cqscope/cqscope/schema"
)

// harpLinearEpsilon is the loop-area magnitude below which an event reads
// as linear (no hysteresis).
const harpLinearEpsilon = 1e-3

// Harp computes the peak-timing/loop-area hysteresis metrics of one event
// (Roberts et al. 2023). Q, C and elapsed time are min-max scaled, the loop
// area is the signed shoelace area of the time-ordered closed path in
// scaled C-Q space, and the direction call combines the area sign with the
// relative peak timing. Positive area reads clockwise/diluting, negative
// counter-clockwise/enriching.
func Harp(ev *schema.Event) (*schema.HarpMetrics, error) {
	const op = "core.Harp"
	if ev.Len() < schema.MinEventSamples {
		return nil, &schema.InsufficientDataError{Op: op, Got: ev.Len(), Need: schema.MinEventSamples}
	}
	if isFlat(ev.Q) {
		// No distinguishable discharge peak. Reporting a false peak index
		// would be worse than an undefined direction.
		return &schema.HarpMetrics{
			Area:           math.NaN(),
			AreaLower:      math.NaN(),
			AreaUpper:      math.NaN(),
			Residual:       math.NaN(),
			PeakQ:          math.NaN(),
			PeakC:          math.NaN(),
			PeakTimeQ:      math.NaN(),
			PeakTimeC:      math.NaN(),
			DQPeak:         math.NaN(),
			DCPeak:         math.NaN(),
			RadiusEquiv:    math.NaN(),
			Classification: schema.Undefined,
		}, nil
	}

	elapsed := ev.ElapsedDays()
	ts := minMaxScale(elapsed)
	qs := minMaxScale(ev.Q)
	cs := minMaxScale(ev.C)

	peakQ := argMax(ev.Q)
	peakC := argMax(ev.C)

	area := -shoelace(qs, cs) // negate so clockwise traversal is positive
	residual := cs[len(cs)-1] - cs[0]
	radius := math.Sqrt(math.Abs(area) / math.Pi)

	rising, falling := splitLimbs(qs, cs, peakQ)
	areaLower, areaUpper := limbPartialAreas(rising, falling)

	m := &schema.HarpMetrics{
		Area:        area,
		AreaLower:   areaLower,
		AreaUpper:   areaUpper,
		Residual:    residual,
		PeakQ:       ts[peakQ],
		PeakC:       ts[peakC],
		PeakTimeQ:   elapsed[peakQ],
		PeakTimeC:   elapsed[peakC],
		DQPeak:      peakRate(ts[peakQ], elapsed[peakQ]),
		DCPeak:      peakRate(ts[peakC], elapsed[peakC]),
		RadiusEquiv: radius,
	}
	m.Classification = harpDirection(area, peakC, peakQ)
	return m, nil
}

// peakRate divides the scaled peak time by the absolute peak time. A peak
// at the very first sample has no elapsed time to rate against, so it
// reads NaN.
func peakRate(scaled, elapsed float64) float64 {
	if elapsed == 0 {
		return math.NaN()
	}
	return scaled / elapsed
}

// shoelace computes the signed polygon area of the closed path (x_i, y_i).
// Positive for counter-clockwise traversal in standard orientation.
func shoelace(x, y []float64) float64 {
	n := len(x)
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += x[i]*y[j] - x[j]*y[i]
	}
	return sum / 2
}

// harpDirection maps the area sign and peak ordering to a direction label.
// A sign that contradicts the peak ordering reports weak hysteresis.
func harpDirection(area float64, peakC, peakQ int) schema.LoopDirection {
	switch {
	case math.Abs(area) < harpLinearEpsilon:
		return schema.Linear
	case area > 0 && peakC <= peakQ:
		return schema.Clockwise
	case area < 0 && peakC > peakQ:
		return schema.CounterClockwise
	default:
		return schema.Weak
	}
}

// limbPartialAreas integrates the rising-minus-falling concentration gap
// below and above the first limb intersection. Both are NaN when the limbs
// never cross or either limb is degenerate.
func limbPartialAreas(rising, falling []limbPoint) (lower, upper float64) {
	lower, upper = math.NaN(), math.NaN()
	if len(rising) < 2 || len(falling) < 2 {
		return lower, upper
	}

	grid := mergedQGrid(rising, falling)
	if len(grid) < 3 {
		return lower, upper
	}
	diff := make([]float64, len(grid))
	for i, q := range grid {
		diff[i] = interpLimbClamped(rising, q) - interpLimbClamped(falling, q)
	}

	// First sign change marks the crossing.
	cross := -1
	for i := 1; i < len(diff); i++ {
		if diff[i-1] == 0 || (diff[i-1] < 0) != (diff[i] < 0) {
			cross = i
			break
		}
	}
	if cross < 1 || cross >= len(grid)-1 {
		return lower, upper
	}

	lower = trapezoid(grid[:cross+1], diff[:cross+1])
	upper = trapezoid(grid[cross:], diff[cross:])
	return lower, upper
}

// mergedQGrid joins both limbs' Q coordinates into one ascending grid,
// restricted to the overlap where both limbs are defined.
func mergedQGrid(rising, falling []limbPoint) []float64 {
	lo := math.Max(rising[0].q, falling[0].q)
	hi := math.Min(rising[len(rising)-1].q, falling[len(falling)-1].q)
	if hi <= lo {
		return nil
	}
	var grid []float64
	for _, limb := range [][]limbPoint{rising, falling} {
		for _, p := range limb {
			if p.q >= lo && p.q <= hi {
				grid = append(grid, p.q)
			}
		}
	}
	sort.Float64s(grid)
	dedup := grid[:0]
	for i, q := range grid {
		if i == 0 || q != dedup[len(dedup)-1] {
			dedup = append(dedup, q)
		}
	}
	return dedup
}

// trapezoid integrates y over x with the trapezoidal rule.
func trapezoid(x, y []float64) float64 {
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += (y[i] + y[i-1]) * (x[i] - x[i-1]) / 2
	}
	return sum
}
