package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMACD_TrendSeries(t *testing.T) {
	line, sig, hist := MACD(trendCloses, 12, 26, 9)
	require.Len(t, line, len(trendCloses))
	require.Len(t, sig, len(trendCloses))
	require.Len(t, hist, len(trendCloses))

	last := len(trendCloses) - 1
	assert.InDelta(t, 4.886018982810356, line[last], 1e-9)
	assert.InDelta(t, 5.354536872061477, sig[last], 1e-9)
	assert.InDelta(t, -0.46851788925112103, hist[last], 1e-9)
}

func TestMACD_DefinedFromFirstBar(t *testing.T) {
	line, sig, hist := MACD([]float64{10, 11, 12, 13, 14}, 12, 26, 9)
	assert.Zero(t, countNaN(line))
	assert.Zero(t, countNaN(sig))
	assert.Zero(t, countNaN(hist))
	assert.Zero(t, line[0])
	assert.InDelta(t, 0.1766054353314086, line[4], 1e-12)
	assert.InDelta(t, 0.09375003218675981, sig[4], 1e-12)
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	line, sig, hist := MACD(trendCloses, 12, 26, 9)
	for i := range hist {
		assert.Equal(t, line[i]-sig[i], hist[i])
	}
}
