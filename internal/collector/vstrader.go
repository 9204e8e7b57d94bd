package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketAnalyzer/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API. Date is
// YYYY-MM-DD.
type vsBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (f *VsTraderFetcher) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("vstrader request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUnknownSymbol
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vstrader: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vstrader decode: %w", err)
	}
	return nil
}

func (f *VsTraderFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (model.PriceSeries, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", start.Format(time.DateOnly))
	q.Set("end", end.Format(time.DateOnly))
	q.Set("interval", interval)

	var raw []vsBar
	if err := f.get(ctx, f.BaseURL+"/api/v1/bars?"+q.Encode(), &raw); err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}

	bars := make([]model.PriceBar, 0, len(raw))
	for _, vb := range raw {
		d, err := time.Parse(time.DateOnly, vb.Date)
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("fetch bars %s: bad date %q: %w", symbol, vb.Date, err)
		}
		if d.Before(start) || !d.Before(end) {
			continue
		}
		bars = append(bars, model.PriceBar{
			Date:   d,
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		})
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("fetch bars %s: %w", symbol, ErrNoData)
	}
	return model.PriceSeries{
		Symbol:   strings.ToUpper(symbol),
		Interval: interval,
		Bars:     normalizeBars(bars),
	}, nil
}

func (f *VsTraderFetcher) FetchQuote(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		Price float64 `json:"price"`
	}
	endpoint := f.BaseURL + "/api/v1/quote?" + url.Values{"symbol": {symbol}}.Encode()
	if err := f.get(ctx, endpoint, &result); err != nil {
		return 0, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	return result.Price, nil
}
