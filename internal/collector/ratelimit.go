package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"MarketAnalyzer/internal/model"
)

// RateLimited wraps a Fetcher so calls to the upstream never exceed a fixed
// request rate. Callers block until a token is available or ctx ends.
type RateLimited struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimited allows requestsPerSecond calls with a burst of one second's
// worth (at least one).
func NewRateLimited(next Fetcher, requestsPerSecond float64) *RateLimited {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter %s: %w", r.next.Name(), err)
	}
	return nil
}

func (r *RateLimited) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (model.PriceSeries, error) {
	if err := r.wait(ctx); err != nil {
		return model.PriceSeries{}, err
	}
	return r.next.FetchHistory(ctx, symbol, start, end, interval)
}

func (r *RateLimited) FetchQuote(ctx context.Context, symbol string) (float64, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.next.FetchQuote(ctx, symbol)
}
