package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"BasketSentinel/internal/model"
)

// RESTProvider implements Provider against a JSON bar API
// (GET {base}/api/v1/bars/daily?symbol=&start=&end=).
type RESTProvider struct {
	BaseURL  string
	APIKey   string
	Client   *http.Client
	Attempts int
}

// NewRESTProvider creates a new provider with optional proxy support.
func NewRESTProvider(baseURL, apiKey, proxyURL string) *RESTProvider {
	return &RESTProvider{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Client:   newHTTPClient(proxyURL),
		Attempts: 3,
	}
}

func (f *RESTProvider) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
}

func (f *RESTProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", day(start).Format("2006-01-02"))
	q.Set("end", day(end).Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	var bars []model.PriceBar
	err := retry(ctx, f.Attempts, time.Second, func() error {
		var err error
		bars, err = f.fetchBars(ctx, symbol, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return normalizeSeries(symbol, bars, start, end)
}

func (f *RESTProvider) fetchBars(ctx context.Context, symbol, endpoint string) ([]model.PriceBar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrDataUnavailable, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.PriceBar, len(raw))
	for i, rb := range raw {
		bars[i] = model.PriceBar{Date: time.Unix(rb.Timestamp, 0), Close: rb.Close}
	}
	return bars, nil
}
