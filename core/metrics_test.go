package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/schema"
)

// TestComputeEventMetricsAgreement runs the end-to-end clockwise scenario:
// all three methods must agree on the loop sign.
func TestComputeEventMetricsAgreement(t *testing.T) {
	out := ComputeEventMetrics(clockwiseEvent(t))

	require.Empty(t, out.Error)
	require.NotNil(t, out.Harp)
	require.NotNil(t, out.Zuecco)
	require.NotNil(t, out.Lloyd)

	assert.Greater(t, out.Harp.Area, 0.0)
	assert.Greater(t, out.Zuecco.HIndex, 0.0)
	assert.Greater(t, out.Lloyd.MeanHInew, 0.0)

	assert.Equal(t, schema.Clockwise, out.Classifications.Harp)
	assert.GreaterOrEqual(t, out.Classifications.Zuecco, 1)
	assert.LessOrEqual(t, out.Classifications.Zuecco, 4)
	assert.Equal(t, schema.Clockwise, out.Classifications.Lloyd)

	require.NotNil(t, out.Processed)
	assert.Equal(t, 2, out.Processed.PeakQIndex)
	assert.Equal(t, 1, out.Processed.PeakCIndex)
}

// TestComputeEventMetricsBestEffort verifies a failing method leaves its
// siblings intact and records a descriptive error.
func TestComputeEventMetricsBestEffort(t *testing.T) {
	// Peak at the first sample: Zuecco and Lloyd cannot build a rising
	// limb, HARP still computes.
	ev := newTestEvent(t,
		[]float64{10, 8, 6, 4, 2},
		[]float64{5, 4, 3, 2, 1},
	)

	out := ComputeEventMetrics(ev)

	assert.NotNil(t, out.Harp)
	assert.Nil(t, out.Zuecco)
	assert.Nil(t, out.Lloyd)
	assert.Contains(t, out.Error, "core.Zuecco")
	assert.Contains(t, out.Error, "core.Lloyd")
	assert.Equal(t, -1, out.Classifications.Zuecco)
	assert.Equal(t, schema.Undefined, out.Classifications.Lloyd)
}

// TestMeanIndexDirection pins the direction thresholds.
func TestMeanIndexDirection(t *testing.T) {
	assert.Equal(t, schema.Clockwise, meanIndexDirection(0.2))
	assert.Equal(t, schema.CounterClockwise, meanIndexDirection(-0.2))
	assert.Equal(t, schema.Weak, meanIndexDirection(0.05))
	assert.Equal(t, schema.Undefined, meanIndexDirection(math.NaN()))
}

// TestHysteresisSignAgreement checks the majority-sign vote.
func TestHysteresisSignAgreement(t *testing.T) {
	assert.Equal(t, 3, hysteresisSignAgreement(0.5, 0.1, 0.3))
	assert.Equal(t, 2, hysteresisSignAgreement(0.5, -0.1, 0.3))
	assert.Equal(t, 1, hysteresisSignAgreement(0.5, math.NaN(), math.NaN()))
	assert.Equal(t, 0, hysteresisSignAgreement(math.NaN(), math.NaN(), math.NaN()))
}
