package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"BasketSentinel/internal/model"
	"BasketSentinel/internal/store"
)

var _ Provider = (*CachedProvider)(nil)

// CachedProvider is a read-through cache over an upstream Provider. A request
// whose range is fully covered by earlier fetches is served from the store.
type CachedProvider struct {
	upstream Provider
	store    store.BarStore
	now      func() time.Time
}

// NewCachedProvider wraps upstream with the given bar store.
func NewCachedProvider(upstream Provider, s store.BarStore) *CachedProvider {
	return &CachedProvider{upstream: upstream, store: s, now: time.Now}
}

func (c *CachedProvider) Name() string { return c.upstream.Name() + "+cache" }

func (c *CachedProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	cov, ok, err := c.store.Coverage(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("cache coverage lookup failed, bypassing cache")
	} else if ok && cov.Contains(day(start), day(end)) {
		bars, err := c.store.ReadBars(ctx, symbol, start, end)
		if err == nil {
			log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("served from cache")
			return normalizeSeries(symbol, bars, start, end)
		}
		log.Warn().Err(err).Str("symbol", symbol).Msg("cache read failed, fetching upstream")
	}

	series, err := c.upstream.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	covered := c.coverage(series, start, end)
	if covered.End.Before(covered.Start) {
		log.Debug().Str("symbol", symbol).Msg("range not settled yet, not caching")
		return series, nil
	}
	if err := c.store.WriteBars(ctx, symbol, series.Bars, covered); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("cache write failed")
	}
	return series, nil
}

// coverage is the part of [start, end] that can no longer change. A range
// reaching today only counts up to yesterday and the last bar returned, so
// a later close is fetched instead of being hidden by the cache.
func (c *CachedProvider) coverage(series *model.PriceSeries, start, end time.Time) store.Coverage {
	covered := store.Coverage{Start: day(start), End: day(end)}
	today := day(c.now())
	if covered.End.Before(today) {
		return covered
	}
	covered.End = today.AddDate(0, 0, -1)
	if last, ok := series.Last(); ok && day(last.Date).Before(covered.End) {
		covered.End = day(last.Date)
	}
	return covered
}
