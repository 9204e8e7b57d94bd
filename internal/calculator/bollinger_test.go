package calculator

import (
	"math"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdDev_Sample(t *testing.T) {
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	// population sd of this set is 2; sample sd is 2*sqrt(8/7)
	assert.InDelta(t, 2*math.Sqrt(8.0/7.0), got[7], 1e-12)
	assert.Equal(t, 7, countNaN(got))
}

func TestStdDev_WindowOfOneIsUndefined(t *testing.T) {
	assert.Equal(t, 3, countNaN(StdDev([]float64{1, 2, 3}, 1)))
}

func TestStdDev_MatchesTALibPopulation(t *testing.T) {
	ours := StdDev(trendCloses, 20)
	pop := talib.StdDev(trendCloses, 20, 1)
	scale := math.Sqrt(20.0 / 19.0)
	for i := 19; i < len(ours); i++ {
		assert.InDelta(t, pop[i]*scale, ours[i], 1e-6, "index %d", i)
	}
}

func TestBollinger_TrendSeries(t *testing.T) {
	lower, middle, upper := Bollinger(trendCloses, 20, 2)
	last := len(trendCloses) - 1
	assert.InDelta(t, 146.61812378236607, lower[last], 1e-9)
	assert.InDelta(t, 154.9, middle[last], 1e-9)
	assert.InDelta(t, 163.18187621763394, upper[last], 1e-9)
}

func TestBollinger_Ordering(t *testing.T) {
	lower, middle, upper := Bollinger(trendCloses, 20, 2)
	for i := range trendCloses {
		if math.IsNaN(middle[i]) {
			require.True(t, math.IsNaN(lower[i]))
			require.True(t, math.IsNaN(upper[i]))
			continue
		}
		assert.LessOrEqual(t, lower[i], middle[i])
		assert.LessOrEqual(t, middle[i], upper[i])
	}
}

func TestBollinger_ConstantWindowCollapses(t *testing.T) {
	for _, c := range []float64{100, 0.1, 101.37, 7.77} {
		lower, middle, upper := Bollinger(constant(c, 25), 20, 2)
		for i := 19; i < 25; i++ {
			assert.Equal(t, c, lower[i], "c=%v index %d", c, i)
			assert.Equal(t, c, middle[i], "c=%v index %d", c, i)
			assert.Equal(t, c, upper[i], "c=%v index %d", c, i)
		}
	}
}

func TestStdDev_ConstantWindowIsZero(t *testing.T) {
	got := StdDev(append(ramp(0.5, 5, 0.1), constant(0.1, 20)...), 20)
	assert.NotZero(t, got[23])
	assert.Equal(t, 0.0, got[24])
}
