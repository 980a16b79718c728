// Package store caches fetched daily price history.
package store

import (
	"context"
	"fmt"
	"time"

	"BasketSentinel/internal/model"
)

// Coverage is the closed date range a store has fetched for a symbol.
type Coverage struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether [start, end] lies inside the coverage.
func (c Coverage) Contains(start, end time.Time) bool {
	return !start.Before(c.Start) && !end.After(c.End)
}

// BarStore persists and retrieves daily bars.
type BarStore interface {
	// ReadBars returns stored bars for symbol within [start, end], ascending.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error)

	// WriteBars upserts bars and extends the recorded coverage by covered.
	WriteBars(ctx context.Context, symbol string, bars []model.PriceBar, covered Coverage) error

	// Coverage returns the fetched range for symbol; ok is false if nothing is stored.
	Coverage(ctx context.Context, symbol string) (cov Coverage, ok bool, err error)

	Close() error
}

// Open returns the store for driver: "sqlite", "parquet", or "none"/"" for no cache.
func Open(driver, path string) (BarStore, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteStore(path)
	case "parquet":
		return NewParquetStore(path), nil
	case "", "none":
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

// mergeCoverage extends old by incoming when the two ranges touch or overlap;
// otherwise the incoming range replaces it.
func mergeCoverage(old Coverage, hadOld bool, incoming Coverage) Coverage {
	if !hadOld {
		return incoming
	}
	touches := !incoming.Start.After(old.End.AddDate(0, 0, 1)) &&
		!incoming.End.Before(old.Start.AddDate(0, 0, -1))
	if !touches {
		return incoming
	}
	merged := old
	if incoming.Start.Before(merged.Start) {
		merged.Start = incoming.Start
	}
	if incoming.End.After(merged.End) {
		merged.End = incoming.End
	}
	return merged
}

func dayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
