package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"BasketSentinel/internal/model"
)

// alpacaBars is the subset of the Alpaca market-data client used here.
type alpacaBars interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Compile-time interface checks.
var _ alpacaBars = (*marketdata.Client)(nil)
var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider implements Provider via the Alpaca market-data API.
type AlpacaProvider struct {
	client   alpacaBars
	feed     string
	Attempts int
}

// NewAlpacaProvider creates a provider with the given credentials. An empty
// dataURL uses the SDK default; feed is "iex" or "sip".
func NewAlpacaProvider(apiKey, apiSecret, dataURL, feed string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaProvider{
		client:   marketdata.NewClient(opts),
		feed:     feed,
		Attempts: 3,
	}
}

func (a *AlpacaProvider) Name() string { return "alpaca" }

func (a *AlpacaProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	var raw []marketdata.Bar
	err := retry(ctx, a.Attempts, time.Second, func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var err error
		raw, err = a.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Adjustment: marketdata.All,
			Start:      day(start),
			End:        day(end).AddDate(0, 0, 1),
			Feed:       marketdata.Feed(a.feed),
		})
		if err != nil {
			return fmt.Errorf("alpaca GetBars %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bars := make([]model.PriceBar, len(raw))
	for i, b := range raw {
		bars[i] = model.PriceBar{Date: b.Timestamp, Close: b.Close}
	}
	return normalizeSeries(symbol, bars, start, end)
}
