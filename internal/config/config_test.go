package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "data/bars.db", cfg.Cache.Path)
	assert.Equal(t, 100000.0, cfg.Backtest.InitialBalance)
	assert.Equal(t, 365, cfg.Signal.LookbackDays)
	assert.Len(t, cfg.Universe.Listings, 12)
	assert.Equal(t, 20, cfg.Indicators.BollingerWindow)
	assert.Equal(t, 0.5, cfg.Scoring.Weights.Bollinger)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: http://bars.local
cache:
  driver: parquet
backtest:
  start: "2023-01-01"
  end: "2023-12-31"
  transaction_cost_pct: 0.001
  strict_chronological: true
indicators:
  rsi_window: 10
scoring:
  weights: {rsi: 1, macd: 1, bollinger: 2}
universe:
  listings:
    - {name: Boeing, symbol: BA}
  criteria:
    min_dividend_yield: 0.01
`)
	t.Setenv("SENTINEL_SLIPPAGE_PCT", "0.0005")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SENTINEL_INITIAL_BALANCE", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, "data/bars", cfg.Cache.Path)
	assert.True(t, cfg.Backtest.StrictChronological)
	assert.Equal(t, 0.0005, cfg.Backtest.SlippagePct)
	assert.Equal(t, 100000.0, cfg.Backtest.InitialBalance, "unparsable override ignored")
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, 10, cfg.Indicators.RSIWindow)
	assert.Equal(t, 26, cfg.Indicators.MACDSlow, "unset fields keep defaults")
	assert.Equal(t, 2.0, cfg.Scoring.Weights.Bollinger)
	assert.Equal(t, 0.7, cfg.Scoring.Threshold)
	require.Len(t, cfg.Universe.Listings, 1)
	assert.Equal(t, 0.01, cfg.Universe.Criteria.MinDividendYield)
	require.NoError(t, cfg.Validate())

	start, end, err := cfg.BacktestWindow(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "backtest: [unclosed"))
	assert.Error(t, err)
}

func TestBacktestWindow_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	now := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

	start, end, err := cfg.BacktestWindow(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), start)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"rest without url", func(c *Config) { c.DataSource.Provider = "rest" }},
		{"alpaca without keys", func(c *Config) { c.DataSource.Provider = "alpaca" }},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "redis" }},
		{"percent not fraction", func(c *Config) { c.Backtest.TransactionCostPct = 1.5 }},
		{"nan cost", func(c *Config) { c.Backtest.TransactionCostPct = math.NaN() }},
		{"inf balance", func(c *Config) { c.Backtest.InitialBalance = math.Inf(1) }},
		{"nan slippage", func(c *Config) { c.Backtest.SlippagePct = math.NaN() }},
		{"bad date", func(c *Config) { c.Backtest.Start = "01/02/2023" }},
		{"inverted window", func(c *Config) { c.Backtest.Start, c.Backtest.End = "2024-02-01", "2024-01-01" }},
		{"bad indicator", func(c *Config) { c.Indicators.BollingerWindow = 1 }},
		{"bad scoring", func(c *Config) { c.Scoring.Weights.RSI = -1 }},
		{"bad criteria", func(c *Config) { c.Universe.Criteria.MinDividendYield = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateTelegram(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "", ""
	assert.Error(t, cfg.ValidateTelegram())
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "token", "1"
	assert.NoError(t, cfg.ValidateTelegram())
}
