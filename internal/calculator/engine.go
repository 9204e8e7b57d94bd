package calculator

import (
	"errors"
	"fmt"
	"math"

	"MarketAnalyzer/internal/model"
)

// Fixed indicator parameters. The output names in model encode them.
const (
	SMAWindow       = 20
	EMASpan         = 20
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerWindow = 20
	BollingerWidth  = 2.0
)

// ErrMalformedSeries is returned for series the rolling windows cannot be
// computed over: dates out of order or repeated, or unusable closes.
var ErrMalformedSeries = errors.New("malformed price series")

// SeriesError pinpoints the bar that made a series malformed.
type SeriesError struct {
	Index  int
	Bar    model.PriceBar
	Reason string
}

func (e *SeriesError) Error() string {
	return fmt.Sprintf("%v: bar %d (%s): %s", ErrMalformedSeries, e.Index, e.Bar.Day().Format("2006-01-02"), e.Reason)
}

func (e *SeriesError) Unwrap() error { return ErrMalformedSeries }

// Validate checks that bars are in strictly ascending calendar-date order and
// that every close is a finite, non-negative number.
func Validate(series model.PriceSeries) error {
	for i, b := range series.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close < 0 {
			return &SeriesError{Index: i, Bar: b, Reason: fmt.Sprintf("invalid close %v", b.Close)}
		}
		if i == 0 {
			continue
		}
		prev, cur := series.Bars[i-1].Day(), b.Day()
		switch {
		case cur.Equal(prev):
			return &SeriesError{Index: i, Bar: b, Reason: "duplicate date"}
		case cur.Before(prev):
			return &SeriesError{Index: i, Bar: b, Reason: "date before previous bar " + prev.Format("2006-01-02")}
		}
	}
	return nil
}

// columns holds every indicator computed over a whole series.
type columns struct {
	sma, ema, rsi        []float64
	macd, signal, hist   []float64
	lower, middle, upper []float64
}

// minPeriods blanks the first n-1 entries of xs so a column is only reported
// once it covers a full span of bars.
func minPeriods(xs []float64, n int) []float64 {
	for i := 0; i < n-1 && i < len(xs); i++ {
		xs[i] = math.NaN()
	}
	return xs
}

func computeColumns(closes []float64) columns {
	var c columns
	c.sma = SMA(closes, SMAWindow)
	c.ema = minPeriods(EMA(closes, EMASpan), EMASpan)
	c.rsi = RSI(closes, RSIPeriod)
	c.macd, c.signal, c.hist = MACD(closes, MACDFast, MACDSlow, MACDSignal)
	c.lower, c.middle, c.upper = Bollinger(closes, BollingerWindow, BollingerWidth)
	return c
}

func (c columns) at(i int, bar model.PriceBar) model.IndicatorSet {
	return model.IndicatorSet{
		Date:       bar.Day(),
		SMA20:      model.NewValue(c.sma[i]),
		EMA20:      model.NewValue(c.ema[i]),
		RSI14:      model.NewValue(c.rsi[i]),
		MACD:       model.NewValue(c.macd[i]),
		MACDSignal: model.NewValue(c.signal[i]),
		MACDHist:   model.NewValue(c.hist[i]),
		BBLower:    model.NewValue(c.lower[i]),
		BBMiddle:   model.NewValue(c.middle[i]),
		BBUpper:    model.NewValue(c.upper[i]),
	}
}

// Compute runs every indicator over series and returns the readings defined
// at its last bar. An empty series yields an empty set and no error.
//
// Compute keeps no state between calls and never modifies series.
func Compute(series model.PriceSeries) (model.IndicatorSet, error) {
	if err := Validate(series); err != nil {
		return model.IndicatorSet{}, err
	}
	last, ok := series.Last()
	if !ok {
		return model.IndicatorSet{}, nil
	}
	cols := computeColumns(series.Closes())
	return cols.at(series.Len()-1, last), nil
}

// ComputeHistory is Compute for every bar of series, oldest first.
func ComputeHistory(series model.PriceSeries) ([]model.IndicatorSet, error) {
	if err := Validate(series); err != nil {
		return nil, err
	}
	cols := computeColumns(series.Closes())
	out := make([]model.IndicatorSet, series.Len())
	for i, b := range series.Bars {
		out[i] = cols.at(i, b)
	}
	return out, nil
}
