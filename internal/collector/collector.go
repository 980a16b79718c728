package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"BasketSentinel/internal/calculator"
	"BasketSentinel/internal/model"
)

// StaticProvider serves fixed series from memory, for development and testing.
type StaticProvider struct {
	Series map[string][]model.PriceBar
	Errors map[string]error // forced failures per symbol
}

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Series: make(map[string][]model.PriceBar),
		Errors: make(map[string]error),
	}
}

// Add registers closes for symbol on consecutive days starting at start.
func (m *StaticProvider) Add(symbol string, start time.Time, closes ...float64) {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{Date: day(start).AddDate(0, 0, i), Close: c}
	}
	m.Series[symbol] = bars
}

func (m *StaticProvider) Name() string { return "static" }

func (m *StaticProvider) FetchHistory(_ context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Series[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrDataUnavailable, symbol)
	}
	return normalizeSeries(symbol, bars, start, end)
}

// Snapshot is a fetched series together with its indicators.
type Snapshot struct {
	Series     *model.PriceSeries
	Indicators *model.IndicatorSet
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Provider Provider
	Params   calculator.Params
}

// NewCollector creates a new Collector.
func NewCollector(provider Provider, params calculator.Params) *Collector {
	return &Collector{Provider: provider, Params: params}
}

// Collect fetches a symbol's history and computes its indicators. The series
// is returned even when indicators cannot be computed.
func (c *Collector) Collect(ctx context.Context, symbol string, start, end time.Time) (*Snapshot, error) {
	series, err := c.Provider.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, c.Provider.Name(), err)
	}

	snap := &Snapshot{Series: series}
	ind, err := calculator.Compute(series, c.Params)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Int("bars", series.Len()).Msg("indicator calculation failed")
		return snap, err
	}
	snap.Indicators = ind
	return snap, nil
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols into a fixed order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
