package core

import (
	"math"
	"sort"
	"time"

	"github.com/cqscope/cqscope/schema"
)

// limbPoint is one (Q, C) sample on a rising or falling limb, in scaled space.
type limbPoint struct {
	q float64
	c float64
}

// minMaxScale rescales values to [0,1]. A constant series scales to all
// zeros, matching the convention that a flat signal carries no range.
func minMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		if math.IsNaN(v) || span == 0 || math.IsInf(span, 0) {
			out[i] = 0
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}

// argMax returns the index of the first maximum, skipping NaN entries.
// Returns -1 when no finite value exists.
func argMax(values []float64) int {
	best := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best == -1 || v > values[best] {
			best = i
		}
	}
	return best
}

// isFlat reports whether the finite values of a series span zero range.
func isFlat(values []float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return !(hi > lo)
}

// splitLimbs partitions scaled samples into rising and falling limbs at
// the peak-Q index. The peak sample belongs to both limbs so each limb
// spans the full discharge range. Each limb is sorted by Q ascending with
// duplicate Q values resolved by keeping the first occurrence in time
// order.
func splitLimbs(qs, cs []float64, peakIdx int) (rising, falling []limbPoint) {
	rising = buildLimb(qs[:peakIdx+1], cs[:peakIdx+1])
	falling = buildLimb(qs[peakIdx:], cs[peakIdx:])
	return rising, falling
}

func buildLimb(qs, cs []float64) []limbPoint {
	seen := make(map[float64]bool, len(qs))
	limb := make([]limbPoint, 0, len(qs))
	for i := range qs {
		if math.IsNaN(qs[i]) || math.IsNaN(cs[i]) {
			continue
		}
		if seen[qs[i]] {
			continue // keep first occurrence
		}
		seen[qs[i]] = true
		limb = append(limb, limbPoint{q: qs[i], c: cs[i]})
	}
	sort.Slice(limb, func(i, j int) bool { return limb[i].q < limb[j].q })
	return limb
}

// interpLimb linearly interpolates a limb's concentration at discharge q.
// The second return is false when q falls outside the limb's Q range.
func interpLimb(limb []limbPoint, q float64) (float64, bool) {
	if len(limb) == 0 || q < limb[0].q || q > limb[len(limb)-1].q {
		return math.NaN(), false
	}
	for i := 1; i < len(limb); i++ {
		if q > limb[i].q {
			continue
		}
		lo, hi := limb[i-1], limb[i]
		if hi.q == lo.q {
			return lo.c, true
		}
		frac := (q - lo.q) / (hi.q - lo.q)
		return lo.c + frac*(hi.c-lo.c), true
	}
	return limb[len(limb)-1].c, true
}

// interpLimbClamped is interpLimb with edge clamping: out-of-range queries
// return the nearest endpoint concentration instead of failing.
func interpLimbClamped(limb []limbPoint, q float64) float64 {
	if len(limb) == 0 {
		return math.NaN()
	}
	if q <= limb[0].q {
		return limb[0].c
	}
	if q >= limb[len(limb)-1].q {
		return limb[len(limb)-1].c
	}
	v, _ := interpLimb(limb, q)
	return v
}

// newWindowEvent slices a site series into an Event spanning [lo, hi]
// inclusive. Rows with missing Q or C are skipped.
func newWindowEvent(table *schema.SeriesTable, lo, hi int) (*schema.Event, error) {
	times := make([]time.Time, 0, hi-lo+1)
	q := make([]float64, 0, hi-lo+1)
	c := make([]float64, 0, hi-lo+1)
	for i := lo; i <= hi && i < table.Len(); i++ {
		row := table.Rows[i]
		if math.IsNaN(row.Q) || math.IsNaN(row.C) {
			continue
		}
		times = append(times, row.Time)
		q = append(q, row.Q)
		c = append(c, row.C)
	}
	return schema.NewEvent(times, q, c)
}
