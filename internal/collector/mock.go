package collector

import (
	"context"
	"strings"
	"time"

	"MarketAnalyzer/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// With Series unset it generates a gentle uptrend around Price, one bar per
// weekday in the requested range.
type MockFetcher struct {
	Price  float64
	Series map[string]model.PriceSeries
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, start, end time.Time, interval string) (model.PriceSeries, error) {
	m.Calls++
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	if s, ok := m.Series[strings.ToUpper(symbol)]; ok {
		return s, nil
	}
	if m.Series != nil {
		return model.PriceSeries{}, ErrUnknownSymbol
	}
	return model.PriceSeries{
		Symbol:   strings.ToUpper(symbol),
		Interval: interval,
		Bars:     generateMockBars(m.Price, start, end),
	}, nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if s, ok := m.Series[strings.ToUpper(symbol)]; ok {
		if last, ok := s.Last(); ok {
			return last.Close, nil
		}
	}
	return m.Price, nil
}

func generateMockBars(basePrice float64, start, end time.Time) []model.PriceBar {
	var bars []model.PriceBar
	y, mo, d := start.Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	for i := 0; day.Before(end); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%7-2)*0.002 + float64(i)*0.001)
		bars = append(bars, model.PriceBar{
			Date:   day,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
