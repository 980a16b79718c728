package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"BasketSentinel/internal/model"
)

var _ BarStore = (*SQLiteStore)(nil)

// SQLiteStore caches daily bars in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so concurrent readers don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite bar cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol TEXT    NOT NULL,
			date   INTEGER NOT NULL,
			close  REAL    NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE TABLE IF NOT EXISTS coverage (
			symbol     TEXT PRIMARY KEY,
			start_date INTEGER NOT NULL,
			end_date   INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(stmt)[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, close FROM daily_bars WHERE symbol = ? AND date >= ? AND date <= ? ORDER BY date`,
		strings.ToUpper(symbol), dayUTC(start).Unix(), dayUTC(end).Unix())
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.PriceBar
	for rows.Next() {
		var ts int64
		var c float64
		if err := rows.Scan(&ts, &c); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, model.PriceBar{Date: time.Unix(ts, 0).UTC(), Close: c})
	}
	return bars, rows.Err()
}

func (s *SQLiteStore) WriteBars(ctx context.Context, symbol string, bars []model.PriceBar, covered Coverage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, b := range bars {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO daily_bars (symbol, date, close) VALUES (?,?,?)`,
			symbol, dayUTC(b.Date).Unix(), b.Close); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}

	old, hadOld, err := s.coverageTx(ctx, tx, symbol)
	if err != nil {
		return err
	}
	cov := mergeCoverage(old, hadOld, Coverage{Start: dayUTC(covered.Start), End: dayUTC(covered.End)})
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO coverage (symbol, start_date, end_date, updated_at) VALUES (?,?,?,?)`,
		symbol, cov.Start.Unix(), cov.End.Unix(), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert coverage: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Coverage(ctx context.Context, symbol string) (Coverage, bool, error) {
	var startTS, endTS int64
	err := s.db.QueryRowContext(ctx,
		`SELECT start_date, end_date FROM coverage WHERE symbol = ?`, strings.ToUpper(symbol)).
		Scan(&startTS, &endTS)
	if err == sql.ErrNoRows {
		return Coverage{}, false, nil
	}
	if err != nil {
		return Coverage{}, false, fmt.Errorf("query coverage: %w", err)
	}
	return Coverage{Start: time.Unix(startTS, 0).UTC(), End: time.Unix(endTS, 0).UTC()}, true, nil
}

func (s *SQLiteStore) coverageTx(ctx context.Context, tx *sql.Tx, symbol string) (Coverage, bool, error) {
	var startTS, endTS int64
	err := tx.QueryRowContext(ctx,
		`SELECT start_date, end_date FROM coverage WHERE symbol = ?`, symbol).Scan(&startTS, &endTS)
	if err == sql.ErrNoRows {
		return Coverage{}, false, nil
	}
	if err != nil {
		return Coverage{}, false, fmt.Errorf("query coverage: %w", err)
	}
	return Coverage{Start: time.Unix(startTS, 0).UTC(), End: time.Unix(endTS, 0).UTC()}, true, nil
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite bar cache")
	return s.db.Close()
}
