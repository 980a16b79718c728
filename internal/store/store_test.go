package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BasketSentinel/internal/model"
)

func d(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func openStores(t *testing.T) map[string]BarStore {
	t.Helper()
	dir := t.TempDir()
	sq, err := NewSQLiteStore(filepath.Join(dir, "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]BarStore{
		"sqlite":  sq,
		"parquet": NewParquetStore(filepath.Join(dir, "parquet")),
	}
}

func TestBarStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Coverage(ctx, "AAA")
			require.NoError(t, err)
			assert.False(t, ok)

			bars := []model.PriceBar{
				{Date: d(2023, 12, 29), Close: 99},
				{Date: d(2024, 1, 2), Close: 100},
				{Date: d(2024, 1, 3), Close: 101},
			}
			require.NoError(t, s.WriteBars(ctx, "aaa", bars, Coverage{Start: d(2023, 12, 28), End: d(2024, 1, 3)}))

			got, err := s.ReadBars(ctx, "AAA", d(2023, 12, 1), d(2024, 1, 31))
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, d(2023, 12, 29), got[0].Date)
			assert.Equal(t, 101.0, got[2].Close)

			got, err = s.ReadBars(ctx, "AAA", d(2024, 1, 3), d(2024, 1, 3))
			require.NoError(t, err)
			require.Len(t, got, 1)

			cov, ok, err := s.Coverage(ctx, "AAA")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, d(2023, 12, 28), cov.Start)
			assert.Equal(t, d(2024, 1, 3), cov.End)
		})
	}
}

func TestBarStore_UpsertAndExtendCoverage(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.WriteBars(ctx, "BBB",
				[]model.PriceBar{{Date: d(2024, 2, 1), Close: 10}, {Date: d(2024, 2, 2), Close: 11}},
				Coverage{Start: d(2024, 2, 1), End: d(2024, 2, 2)}))
			require.NoError(t, s.WriteBars(ctx, "BBB",
				[]model.PriceBar{{Date: d(2024, 2, 2), Close: 12}, {Date: d(2024, 2, 3), Close: 13}},
				Coverage{Start: d(2024, 2, 2), End: d(2024, 2, 3)}))

			got, err := s.ReadBars(ctx, "BBB", d(2024, 2, 1), d(2024, 2, 28))
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, 12.0, got[1].Close)

			cov, ok, err := s.Coverage(ctx, "BBB")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, cov.Contains(d(2024, 2, 1), d(2024, 2, 3)))
		})
	}
}

func TestParquetStore_CorruptYearFileFailsWrite(t *testing.T) {
	ctx := context.Background()
	s := NewParquetStore(t.TempDir())
	path := s.barPath("AAA", 2024)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a parquet file"), 0o644))

	bars := []model.PriceBar{{Date: d(2024, 3, 1), Close: 10}}
	err := s.WriteBars(ctx, "AAA", bars, Coverage{Start: d(2024, 3, 1), End: d(2024, 3, 1)})
	require.Error(t, err)

	_, ok, err := s.Coverage(ctx, "AAA")
	require.NoError(t, err)
	assert.False(t, ok, "coverage is not recorded when existing bars cannot be read")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a parquet file", string(raw), "unreadable file is left untouched")
}

func TestMergeCoverage(t *testing.T) {
	old := Coverage{Start: d(2024, 1, 1), End: d(2024, 1, 31)}

	got := mergeCoverage(old, true, Coverage{Start: d(2024, 2, 1), End: d(2024, 2, 10)})
	assert.Equal(t, Coverage{Start: d(2024, 1, 1), End: d(2024, 2, 10)}, got)

	disjoint := Coverage{Start: d(2024, 6, 1), End: d(2024, 6, 10)}
	assert.Equal(t, disjoint, mergeCoverage(old, true, disjoint))
	assert.Equal(t, disjoint, mergeCoverage(Coverage{}, false, disjoint))
}

func TestOpen(t *testing.T) {
	s, err := Open("none", "")
	require.NoError(t, err)
	assert.IsType(t, &NoopStore{}, s)

	s, err = Open("parquet", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &ParquetStore{}, s)

	_, err = Open("redis", "")
	assert.Error(t, err)
}
