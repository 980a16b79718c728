package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"BasketSentinel/internal/model"
)

// ErrDataUnavailable is returned when a symbol is unknown or the range has no trading data.
var ErrDataUnavailable = errors.New("data unavailable")

// Provider fetches daily price history.
type Provider interface {
	// FetchHistory returns closes for [start, end], ascending with no duplicate dates.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error)
	Name() string
}

// day truncates t to its UTC calendar date.
func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// normalizeSeries sorts bars, drops invalid closes and bars outside
// [start, end], and keeps the last bar of any duplicated date.
func normalizeSeries(symbol string, bars []model.PriceBar, start, end time.Time) (*model.PriceSeries, error) {
	from, to := day(start), day(end)
	byDay := make(map[time.Time]float64, len(bars))
	for _, b := range bars {
		if !(b.Close > 0) {
			continue
		}
		d := day(b.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		byDay[d] = b.Close
	}
	if len(byDay) == 0 {
		return nil, fmt.Errorf("%w: %s has no bars between %s and %s",
			ErrDataUnavailable, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	out := make([]model.PriceBar, 0, len(byDay))
	for d, c := range byDay {
		out = append(out, model.PriceBar{Date: d, Close: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return &model.PriceSeries{Symbol: symbol, Bars: out, FetchedAt: time.Now()}, nil
}
