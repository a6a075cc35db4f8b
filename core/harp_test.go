package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/schema"
)

func newTestEvent(t *testing.T, q, c []float64) *schema.Event {
	t.Helper()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(q))
	for i := range times {
		times[i] = base.Add(time.Duration(i) * 24 * time.Hour)
	}
	ev, err := schema.NewEvent(times, q, c)
	require.NoError(t, err)
	return ev
}

// clockwiseEvent has concentration peaking one step before discharge, the
// canonical clockwise/flushing loop.
func clockwiseEvent(t *testing.T) *schema.Event {
	t.Helper()
	return newTestEvent(t,
		[]float64{1, 4, 10, 6, 3, 2, 1},
		[]float64{2, 5, 3, 2, 1.5, 1.2, 1},
	)
}

// TestHarpClockwise verifies a clockwise loop yields positive area and the
// clockwise direction call.
func TestHarpClockwise(t *testing.T) {
	m, err := Harp(clockwiseEvent(t))
	require.NoError(t, err)

	assert.Greater(t, m.Area, 0.0)
	assert.Equal(t, schema.Clockwise, m.Classification)
	assert.InDelta(t, m.RadiusEquiv, math.Sqrt(math.Abs(m.Area)/math.Pi), 1e-12)

	// C peaks one sample before Q.
	assert.Less(t, m.PeakC, m.PeakQ)
	assert.InDelta(t, 1.0, m.PeakTimeC, 1e-9)
	assert.InDelta(t, 2.0, m.PeakTimeQ, 1e-9)
}

// TestHarpPeakRates checks the scaled-over-absolute peak rate ratios. On
// an evenly spaced event both collapse to one over the total duration; a
// peak at the first sample has nothing to rate against and reads NaN.
func TestHarpPeakRates(t *testing.T) {
	m, err := Harp(clockwiseEvent(t))
	require.NoError(t, err)

	assert.InDelta(t, m.PeakQ/m.PeakTimeQ, m.DQPeak, 1e-12)
	assert.InDelta(t, m.PeakC/m.PeakTimeC, m.DCPeak, 1e-12)
	assert.InDelta(t, 1.0/6.0, m.DQPeak, 1e-9)
	assert.InDelta(t, 1.0/6.0, m.DCPeak, 1e-9)

	declining, err := Harp(newTestEvent(t,
		[]float64{10, 8, 6, 4, 2},
		[]float64{5, 4, 3, 2, 1},
	))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(declining.DQPeak))
	assert.True(t, math.IsNaN(declining.DCPeak))
}

// TestHarpCounterClockwise mirrors the loop: C peaks after Q.
func TestHarpCounterClockwise(t *testing.T) {
	ev := newTestEvent(t,
		[]float64{1, 4, 10, 6, 3, 2, 1},
		[]float64{1, 1.2, 1.5, 2, 5, 3, 2},
	)

	m, err := Harp(ev)
	require.NoError(t, err)

	assert.Less(t, m.Area, 0.0)
	assert.Equal(t, schema.CounterClockwise, m.Classification)
	assert.Greater(t, m.PeakC, m.PeakQ)
}

// TestHarpResidual checks residual is the scaled end-minus-start change.
func TestHarpResidual(t *testing.T) {
	ev := newTestEvent(t,
		[]float64{1, 4, 10, 6, 2},
		[]float64{1, 3, 5, 4, 3}, // ends above its start
	)

	m, err := Harp(ev)
	require.NoError(t, err)

	// C spans [1,5]; scaled start 0, scaled end 0.5.
	assert.InDelta(t, 0.5, m.Residual, 1e-12)
}

// TestHarpFlatDischarge ensures a flat Q series reports an undefined
// direction instead of a false peak.
func TestHarpFlatDischarge(t *testing.T) {
	ev := newTestEvent(t,
		[]float64{3, 3, 3, 3, 3},
		[]float64{1, 2, 3, 2, 1},
	)

	m, err := Harp(ev)
	require.NoError(t, err)

	assert.Equal(t, schema.Undefined, m.Classification)
	assert.True(t, math.IsNaN(m.Area))
	assert.True(t, math.IsNaN(m.PeakTimeQ))
}

// TestHarpTooFewSamples ensures the minimum sample invariant holds.
func TestHarpTooFewSamples(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}

	_, err := schema.NewEvent(times, []float64{1, 2, 1}, []float64{1, 2, 1})

	var insufficient *schema.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
}

// TestEventOrderingPrecondition verifies unordered time is rejected at
// construction, never silently miscomputed.
func TestEventOrderingPrecondition(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		base, base.Add(2 * time.Hour), base.Add(time.Hour),
		base.Add(3 * time.Hour), base.Add(4 * time.Hour),
	}

	_, err := schema.NewEvent(times, []float64{1, 2, 3, 2, 1}, []float64{1, 2, 3, 2, 1})

	var config *schema.ConfigurationError
	require.ErrorAs(t, err, &config)
}
