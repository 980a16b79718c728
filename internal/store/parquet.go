package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"BasketSentinel/internal/model"
)

var _ BarStore = (*ParquetStore)(nil)

// ParquetStore caches daily bars as Parquet files:
//
//	<DataDir>/daily/<SYMBOL>/<YYYY>.parquet
//	<DataDir>/daily/<SYMBOL>/coverage.parquet
type ParquetStore struct {
	DataDir string
	mu      sync.Mutex
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
}

// CoverageRecord is the Parquet schema for the fetched range of a symbol.
type CoverageRecord struct {
	Symbol string `parquet:"symbol"`
	Start  int64  `parquet:"start,timestamp(millisecond)"`
	End    int64  `parquet:"end,timestamp(millisecond)"`
}

func (s *ParquetStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	from, to := dayUTC(start), dayUTC(end)
	var bars []model.PriceBar
	for year := from.Year(); year <= to.Year(); year++ {
		records, err := readParquetFile[BarRecord](s.barPath(symbol, year))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read bars %s/%d: %w", symbol, year, err)
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(from) || ts.After(to) {
				continue
			}
			bars = append(bars, model.PriceBar{Date: ts, Close: r.Close})
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// WriteBars merges bars into the per-year files, preferring incoming values.
func (s *ParquetStore) WriteBars(_ context.Context, symbol string, bars []model.PriceBar, covered Coverage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	groups := make(map[int][]BarRecord)
	for _, b := range bars {
		d := dayUTC(b.Date)
		groups[d.Year()] = append(groups[d.Year()], BarRecord{
			Symbol:    symbol,
			Timestamp: d.UnixMilli(),
			Close:     b.Close,
		})
	}

	for year, records := range groups {
		path := s.barPath(symbol, year)
		existing, err := readParquetFile[BarRecord](path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading bars for %s/%d: %w", symbol, year, err)
		}
		if err := writeParquetFile(path, mergeBarRecords(existing, records)); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", symbol, year, err)
		}
	}

	old, hadOld, err := s.readCoverage(symbol)
	if err != nil {
		return err
	}
	cov := mergeCoverage(old, hadOld, Coverage{Start: dayUTC(covered.Start), End: dayUTC(covered.End)})
	rec := []CoverageRecord{{Symbol: symbol, Start: cov.Start.UnixMilli(), End: cov.End.UnixMilli()}}
	if err := writeParquetFile(s.coveragePath(symbol), rec); err != nil {
		return fmt.Errorf("writing coverage for %s: %w", symbol, err)
	}
	return nil
}

func (s *ParquetStore) Coverage(_ context.Context, symbol string) (Coverage, bool, error) {
	return s.readCoverage(strings.ToUpper(symbol))
}

func (s *ParquetStore) readCoverage(symbol string) (Coverage, bool, error) {
	records, err := readParquetFile[CoverageRecord](s.coveragePath(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return Coverage{}, false, nil
		}
		return Coverage{}, false, fmt.Errorf("read coverage %s: %w", symbol, err)
	}
	if len(records) == 0 {
		return Coverage{}, false, nil
	}
	r := records[0]
	return Coverage{Start: time.UnixMilli(r.Start).UTC(), End: time.UnixMilli(r.End).UTC()}, true, nil
}

func (s *ParquetStore) Close() error { return nil }

func (s *ParquetStore) barPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func (s *ParquetStore) coveragePath(symbol string) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol), "coverage.parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates by timestamp, preferring incoming records.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}
	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
