package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketAnalyzer/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func analysisOn(symbol string, day time.Time, close float64) *model.Analysis {
	return &model.Analysis{
		Symbol:    symbol,
		Interval:  "1d",
		Bars:      60,
		LastDate:  day,
		LastClose: close,
		Source:    "mock",
		Indicators: model.IndicatorSet{
			Date:       day,
			SMA20:      model.NewValue(close - 1),
			EMA20:      model.NewValue(close - 0.5),
			RSI14:      model.NewValue(100),
			MACD:       model.NewValue(0.25),
			MACDSignal: model.NewValue(0.2),
			MACDHist:   model.NewValue(0.05),
		},
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()
	d1 := time.Date(2024, 6, 26, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	require.NoError(t, r.RecordAnalysis(ctx, "run-1", analysisOn("aapl", d1, 210)))
	require.NoError(t, r.RecordAnalysis(ctx, "run-2", analysisOn("AAPL", d2, 212)))
	require.NoError(t, r.RecordAnalysis(ctx, "run-2", analysisOn("MSFT", d2, 450)))

	snaps, err := r.Recent(ctx, "aapl", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	newest := snaps[0]
	assert.Equal(t, "run-2", newest.RunID)
	assert.Equal(t, "AAPL", newest.Symbol)
	assert.Equal(t, d2, newest.Indicators.Date)
	assert.Equal(t, 212.0, newest.Close)
	assert.Equal(t, 60, newest.Bars)
	assert.Equal(t, "mock", newest.Source)
	assert.Equal(t, model.NewValue(100), newest.Indicators.RSI14)

	// bands were undefined and must come back undefined, not zero
	assert.False(t, newest.Indicators.BBLower.Valid)
	assert.False(t, newest.Indicators.BBUpper.Valid)
	assert.Equal(t, 6, newest.Indicators.Len())

	assert.Equal(t, d1, snaps[1].Indicators.Date)
}

func TestSQLiteRecorder_SameBarReplaces(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()
	d := time.Date(2024, 6, 26, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordAnalysis(ctx, "first", analysisOn("SPY", d, 540)))
	require.NoError(t, r.RecordAnalysis(ctx, "second", analysisOn("SPY", d, 545)))

	snaps, err := r.Recent(ctx, "SPY", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "second", snaps[0].RunID)
	assert.Equal(t, 545.0, snaps[0].Close)
}

func TestSQLiteRecorder_Limit(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()
	d := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.RecordAnalysis(ctx, NewRunID(), analysisOn("QQQ", d.AddDate(0, 0, i), 400)))
	}

	snaps, err := r.Recent(ctx, "QQQ", 3)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, d.AddDate(0, 0, 4), snaps[0].Indicators.Date)

	none, err := r.Recent(ctx, "NONE", 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRecorder_SkipsEmptyAnalysis(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.RecordAnalysis(ctx, "run-1", &model.Analysis{Symbol: "SPY", Interval: "1d"}))

	snaps, err := r.Recent(ctx, "SPY", 10)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordAnalysis(context.Background(), "x", &model.Analysis{}))
	snaps, err := r.Recent(context.Background(), "x", 1)
	assert.NoError(t, err)
	assert.Empty(t, snaps)
	assert.NoError(t, r.Close())
}
