package calculator

import (
	"math"
	"time"

	"MarketAnalyzer/internal/model"
)

// trendCloses is a 60-bar uptrend with pullbacks, reused across tests.
var trendCloses = []float64{
	100, 101, 102, 103, 105, 107, 106, 108, 110, 111,
	112, 115, 117, 119, 118, 120, 121, 123, 125, 124,
	126, 127, 129, 130, 132, 133, 134, 135, 136, 138,
	139, 141, 140, 142, 144, 143, 145, 147, 149, 148,
	150, 151, 149, 148, 150, 152, 151, 153, 154, 156,
	155, 157, 158, 160, 161, 159, 158, 157, 159, 160,
}

var day0 = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

func seriesOf(closes ...float64) model.PriceSeries {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Date:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return model.PriceSeries{Symbol: "TEST", Interval: "1d", Bars: bars}
}

func ramp(from float64, n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func constant(c float64, n int) []float64 {
	return ramp(c, n, 0)
}

func countNaN(xs []float64) int {
	n := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			n++
		}
	}
	return n
}
