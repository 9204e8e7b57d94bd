package collector

import (
	"context"
	"errors"
	"sort"
	"time"

	"MarketAnalyzer/internal/model"
)

var (
	// ErrNoData is returned when a source has no bars for the requested range.
	ErrNoData = errors.New("no price data")
	// ErrUnknownSymbol is returned when a source does not recognise the symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns bars for symbol with start <= date < end at the
	// given interval ("1d", "1wk", "1mo"), oldest first.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (model.PriceSeries, error)
	FetchQuote(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// normalizeBars sorts bars by date and keeps the last bar seen for each
// calendar day, so the series satisfies the calculator's ordering rules.
func normalizeBars(bars []model.PriceBar) []model.PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Day().Equal(b.Day()) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
