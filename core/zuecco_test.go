package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/schema"
)

// TestZueccoLinearRelationship verifies a perfectly linear C-Q relation
// (no limb separation) yields h = 0 and class 0.
func TestZueccoLinearRelationship(t *testing.T) {
	q := []float64{1, 4, 10, 6, 3, 2, 1}
	c := make([]float64, len(q))
	for i, v := range q {
		c[i] = 3 * v // C = k*Q
	}

	m, err := Zuecco(newTestEvent(t, q, c))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, m.HIndex, 1e-9)
	assert.Equal(t, 0, m.Class)
}

// TestZueccoClockwise verifies the sign convention: rising limb above the
// falling limb integrates to a positive h-index and a clockwise class.
func TestZueccoClockwise(t *testing.T) {
	m, err := Zuecco(clockwiseEvent(t))
	require.NoError(t, err)

	assert.Greater(t, m.HIndex, 0.0)
	assert.GreaterOrEqual(t, m.Class, 1)
	assert.LessOrEqual(t, m.Class, 4)
	assert.Len(t, m.Grid, zueccoGridLen)
	assert.Len(t, m.DiffAreas, zueccoGridLen-1)
	assert.LessOrEqual(t, m.MinDiffArea, m.MaxDiffArea)
}

// TestZueccoCounterClockwise mirrors the loop into classes 5-8.
func TestZueccoCounterClockwise(t *testing.T) {
	ev := newTestEvent(t,
		[]float64{1, 4, 10, 6, 3, 2, 1},
		[]float64{1, 1.2, 1.5, 2, 5, 3, 2},
	)

	m, err := Zuecco(ev)
	require.NoError(t, err)

	assert.Less(t, m.HIndex, 0.0)
	assert.GreaterOrEqual(t, m.Class, 5)
	assert.LessOrEqual(t, m.Class, 8)
}

// TestZueccoDegenerateLimb ensures an event whose peak leaves fewer than 2
// points on a limb is undefined.
func TestZueccoDegenerateLimb(t *testing.T) {
	// Peak at the first sample: the rising limb is empty.
	ev := newTestEvent(t,
		[]float64{10, 8, 6, 4, 2},
		[]float64{5, 4, 3, 2, 1},
	)

	_, err := Zuecco(ev)

	var undefined *schema.UndefinedMetricError
	require.ErrorAs(t, err, &undefined)
}

// TestZueccoFlatDischarge ensures a flat Q series is undefined.
func TestZueccoFlatDischarge(t *testing.T) {
	ev := newTestEvent(t,
		[]float64{3, 3, 3, 3, 3},
		[]float64{1, 2, 3, 2, 1},
	)

	_, err := Zuecco(ev)

	var undefined *schema.UndefinedMetricError
	require.ErrorAs(t, err, &undefined)
}

// TestZueccoClassGrading checks the quartile grading of loop strength.
func TestZueccoClassGrading(t *testing.T) {
	tests := []struct {
		name      string
		h         float64
		diffAreas []float64
		expected  int
	}{
		{
			name:      "near zero",
			h:         0,
			diffAreas: []float64{0.1, -0.1},
			expected:  0,
		},
		{
			name:      "weak clockwise",
			h:         0.02,
			diffAreas: []float64{0.06, -0.04, 0.1, -0.1}, // strength 2/30
			expected:  1,
		},
		{
			name:      "strong clockwise",
			h:         0.3,
			diffAreas: []float64{0.2, 0.1}, // strength 1.0
			expected:  4,
		},
		{
			name:      "strong counter-clockwise",
			h:         -0.3,
			diffAreas: []float64{-0.2, -0.1},
			expected:  8,
		},
		{
			name:      "moderate counter-clockwise",
			h:         -0.1,
			diffAreas: []float64{-0.15, 0.05}, // strength 0.5
			expected:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, zueccoClass(tt.h, tt.diffAreas))
		})
	}
}

// TestZueccoNaNSafety ensures no NaN h-index escapes.
func TestZueccoNaNSafety(t *testing.T) {
	assert.Equal(t, 0, zueccoClass(math.NaN(), []float64{0.1}))
}
