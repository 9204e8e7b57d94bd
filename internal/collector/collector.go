package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"MarketAnalyzer/internal/calculator"
	"MarketAnalyzer/internal/logging"
	"MarketAnalyzer/internal/metrics"
	"MarketAnalyzer/internal/model"
)

// Collector fetches price history and runs the indicator engine over it.
type Collector struct {
	Fetcher  Fetcher
	Interval string
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	now func() time.Time
}

// NewCollector creates a new Collector. m and log may be nil.
func NewCollector(fetcher Fetcher, interval string, m *metrics.Metrics, log *zap.Logger) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Interval: interval,
		Metrics:  m,
		Log:      logging.OrNop(log).Named("collector"),
		now:      time.Now,
	}
}

// fetch loads bars for symbol. A range without bars is an empty series,
// not an error.
func (c *Collector) fetch(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	fetchStart := time.Now()
	series, err := c.Fetcher.FetchHistory(ctx, symbol, start, end, c.Interval)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), fetchStart)
	if errors.Is(err, ErrNoData) {
		c.Log.Info("no bars in range", zap.String("symbol", symbol),
			zap.String("start", start.Format(time.DateOnly)), zap.String("end", end.Format(time.DateOnly)))
		return model.PriceSeries{Symbol: strings.ToUpper(symbol), Interval: c.Interval}, nil
	}
	return series, err
}

// Analyze fetches bars for symbol in [start, end) and computes the
// indicators at the last bar.
func (c *Collector) Analyze(ctx context.Context, symbol string, start, end time.Time) (*model.Analysis, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("analyze %s: start %s is not before end %s",
			symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	series, err := c.fetch(ctx, symbol, start, end)
	if err != nil {
		c.Metrics.ObserveAnalysis("fetch_error")
		return nil, fmt.Errorf("fetch %s history: %w", symbol, err)
	}

	set, err := calculator.Compute(series)
	if err != nil {
		c.Metrics.ObserveAnalysis("invalid_series")
		return nil, fmt.Errorf("compute %s indicators: %w", symbol, err)
	}
	c.Metrics.ObserveAnalysis("ok")
	c.Metrics.SetReported(series.Symbol, set.Len())

	a := &model.Analysis{
		Symbol:     series.Symbol,
		Interval:   series.Interval,
		Bars:       series.Len(),
		Indicators: set,
		Source:     c.Fetcher.Name(),
		FetchedAt:  c.now(),
	}
	if a.Symbol == "" {
		a.Symbol = symbol
	}
	if last, ok := series.Last(); ok {
		a.LastDate = last.Day()
		a.LastClose = last.Close
	}

	c.Log.Debug("analysis complete",
		zap.String("symbol", a.Symbol),
		zap.Int("bars", a.Bars),
		zap.Int("indicators", set.Len()),
	)
	return a, nil
}

// Quote fetches the latest traded price of symbol.
func (c *Collector) Quote(ctx context.Context, symbol string) (float64, error) {
	fetchStart := time.Now()
	price, err := c.Fetcher.FetchQuote(ctx, symbol)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), fetchStart)
	if err != nil {
		return 0, fmt.Errorf("fetch %s quote: %w", symbol, err)
	}
	return price, nil
}

// AnalyzeLookback analyzes the days calendar days up to now.
func (c *Collector) AnalyzeLookback(ctx context.Context, symbol string, days int) (*model.Analysis, error) {
	end := c.now()
	start := end.AddDate(0, 0, -days)
	return c.Analyze(ctx, symbol, start, end)
}

// AnalyzeWatchlist analyzes each symbol in turn. Failures do not stop the
// sweep; they are joined into the returned error alongside the analyses
// that succeeded.
func (c *Collector) AnalyzeWatchlist(ctx context.Context, symbols []string, days int) ([]*model.Analysis, error) {
	var (
		out  []*model.Analysis
		errs []error
	)
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		a, err := c.AnalyzeLookback(ctx, sym, days)
		if err != nil {
			c.Log.Warn("analysis failed", zap.String("symbol", sym), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		out = append(out, a)
	}
	return out, errors.Join(errs...)
}

// HistoryLookback fetches the days calendar days up to now and returns the
// series with the indicator readings at every bar, oldest first.
func (c *Collector) HistoryLookback(ctx context.Context, symbol string, days int) (model.PriceSeries, []model.IndicatorSet, error) {
	end := c.now()
	start := end.AddDate(0, 0, -days)

	series, err := c.fetch(ctx, symbol, start, end)
	if err != nil {
		return model.PriceSeries{}, nil, fmt.Errorf("fetch %s history: %w", symbol, err)
	}
	sets, err := calculator.ComputeHistory(series)
	if err != nil {
		return model.PriceSeries{}, nil, fmt.Errorf("compute %s indicator history: %w", symbol, err)
	}
	return series, sets, nil
}
