package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/schema"
)

func seriesTable(siteID string, q, c []float64) *schema.SeriesTable {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	table := &schema.SeriesTable{SiteID: siteID}
	for i := range q {
		table.Rows = append(table.Rows, schema.SeriesRow{
			Time: base.AddDate(0, 0, i*7),
			Q:    q[i],
			C:    c[i],
		})
	}
	return table
}

// TestRollingRatiosChemostatic checks a constant-concentration window
// yields a ratio of zero (chemostatic), not NaN.
func TestRollingRatiosChemostatic(t *testing.T) {
	table := seriesTable("site-1",
		[]float64{1, 3, 7, 4, 2},
		[]float64{5, 5, 5, 5, 5},
	)

	points := RollingRatios(table, 5)

	require.Len(t, points, 1)
	assert.InDelta(t, 0.0, points[0].CVC, 1e-12)
	assert.Greater(t, points[0].CVQ, 0.0)
	assert.InDelta(t, 0.0, points[0].Ratio, 1e-12)
	assert.Equal(t, 4, points[0].EndIndex)
}

// TestRollingRatiosGuards ensures degenerate windows yield NaN instead of
// a divide-by-zero fault.
func TestRollingRatiosGuards(t *testing.T) {
	t.Run("zero mean discharge", func(t *testing.T) {
		table := seriesTable("site-1",
			[]float64{-1, 1, -1, 1, 0},
			[]float64{2, 3, 4, 5, 6},
		)
		points := RollingRatios(table, 5)
		require.Len(t, points, 1)
		assert.True(t, math.IsNaN(points[0].CVQ))
		assert.True(t, math.IsNaN(points[0].Ratio))
	})

	t.Run("mostly missing concentration", func(t *testing.T) {
		table := seriesTable("site-1",
			[]float64{1, 2, 3, 4, 5},
			[]float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), 2},
		)
		points := RollingRatios(table, 5)
		require.Len(t, points, 1)
		assert.True(t, math.IsNaN(points[0].CVC))
		assert.True(t, math.IsNaN(points[0].Ratio))
	})

	t.Run("series shorter than window", func(t *testing.T) {
		table := seriesTable("site-1", []float64{1, 2}, []float64{3, 4})
		assert.Empty(t, RollingRatios(table, 5))
	})
}

// TestRollingRatiosWindowSlope verifies the windowed slope matches the
// direct fit over the same block.
func TestRollingRatiosWindowSlope(t *testing.T) {
	q := []float64{1, 2, 4, 8, 16, 32}
	c := make([]float64, len(q))
	for i, v := range q {
		c[i] = 2 * math.Sqrt(v)
	}
	table := seriesTable("site-1", q, c)

	points := RollingRatios(table, 5)

	require.Len(t, points, 2)
	for _, p := range points {
		assert.InDelta(t, 0.5, p.Slope, 1e-9)
	}
}
