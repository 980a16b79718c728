package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"BasketSentinel/internal/calculator"
	"BasketSentinel/internal/logger"
	"BasketSentinel/internal/strategy"
	"BasketSentinel/internal/universe"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Logging    logger.Config `yaml:"logging"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, rest, alpaca
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Alpaca   struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
			DataURL   string `yaml:"data_url"`
			Feed      string `yaml:"feed"`
		} `yaml:"alpaca"`
	} `yaml:"data_source"`
	Cache struct {
		Driver string `yaml:"driver"` // sqlite, parquet, none
		Path   string `yaml:"path"`
	} `yaml:"cache"`
	Backtest struct {
		Start               string  `yaml:"start"`
		End                 string  `yaml:"end"`
		InitialBalance      float64 `yaml:"initial_balance"`
		TransactionCostPct  float64 `yaml:"transaction_cost_pct"`
		SlippagePct         float64 `yaml:"slippage_pct"`
		StrictChronological bool    `yaml:"strict_chronological"`
		Concurrency         int     `yaml:"concurrency"`
	} `yaml:"backtest"`
	Indicators calculator.Params `yaml:"indicators"`
	Scoring    strategy.Config   `yaml:"scoring"`
	Universe   struct {
		Listings []universe.Listing `yaml:"listings"`
		Criteria universe.Criteria  `yaml:"criteria"`
	} `yaml:"universe"`
	Signal struct {
		LookbackDays int `yaml:"lookback_days"`
	} `yaml:"signal"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron   string `yaml:"scan_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Indicators: calculator.DefaultParams(),
		Scoring:    strategy.DefaultConfig(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("SENTINEL_LOG_LEVEL", &cfg.Logging.Level)
	setString("SENTINEL_PROVIDER", &cfg.DataSource.Provider)
	setString("SENTINEL_BASE_URL", &cfg.DataSource.BaseURL)
	setString("SENTINEL_API_KEY", &cfg.DataSource.APIKey)
	setString("ALPACA_API_KEY", &cfg.DataSource.Alpaca.APIKey)
	setString("ALPACA_API_SECRET", &cfg.DataSource.Alpaca.APISecret)
	setString("ALPACA_DATA_URL", &cfg.DataSource.Alpaca.DataURL)
	setString("SENTINEL_CACHE_DRIVER", &cfg.Cache.Driver)
	setString("SENTINEL_CACHE_PATH", &cfg.Cache.Path)
	setString("SENTINEL_START", &cfg.Backtest.Start)
	setString("SENTINEL_END", &cfg.Backtest.End)
	setFloat("SENTINEL_INITIAL_BALANCE", &cfg.Backtest.InitialBalance)
	setFloat("SENTINEL_TRANSACTION_COST_PCT", &cfg.Backtest.TransactionCostPct)
	setFloat("SENTINEL_SLIPPAGE_PCT", &cfg.Backtest.SlippagePct)
	setBool("SENTINEL_STRICT_CHRONOLOGICAL", &cfg.Backtest.StrictChronological)
	setString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	setString("SENTINEL_SCAN_CRON", &cfg.Schedule.ScanCron)
	setBool("RUN_ON_START", &cfg.Schedule.RunOnStart)
	setString("HTTPS_PROXY", &cfg.Proxy)
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "pretty"
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = "logs"
	}
	if cfg.Logging.RotationSize == 0 {
		cfg.Logging.RotationSize = 50
	}
	if cfg.Logging.RetentionDays == 0 {
		cfg.Logging.RetentionDays = 14
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.Alpaca.Feed == "" {
		cfg.DataSource.Alpaca.Feed = "iex"
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "sqlite"
	}
	if cfg.Cache.Path == "" {
		switch cfg.Cache.Driver {
		case "parquet":
			cfg.Cache.Path = "data/bars"
		default:
			cfg.Cache.Path = "data/bars.db"
		}
	}
	if cfg.Backtest.InitialBalance == 0 {
		cfg.Backtest.InitialBalance = 100000
	}
	if cfg.Backtest.Concurrency == 0 {
		cfg.Backtest.Concurrency = 4
	}
	if cfg.Signal.LookbackDays == 0 {
		cfg.Signal.LookbackDays = 365
	}
	if len(cfg.Universe.Listings) == 0 {
		cfg.Universe.Listings = universe.DefaultBasket()
	}
	if cfg.Schedule.ScanCron == "" {
		// weekdays after the US close
		cfg.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
}

// BacktestWindow parses the backtest dates. An empty end means today and an
// empty start means one year before the end.
func (c *Config) BacktestWindow(now time.Time) (start, end time.Time, err error) {
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if c.Backtest.End != "" {
		if end, err = time.Parse(dateLayout, c.Backtest.End); err != nil {
			return start, end, fmt.Errorf("backtest.end: %w", err)
		}
	}
	start = end.AddDate(-1, 0, 0)
	if c.Backtest.Start != "" {
		if start, err = time.Parse(dateLayout, c.Backtest.Start); err != nil {
			return start, end, fmt.Errorf("backtest.start: %w", err)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("backtest.end %s is before backtest.start %s",
			end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DataSource.Provider) {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	case "alpaca":
		if c.DataSource.Alpaca.APIKey == "" || c.DataSource.Alpaca.APISecret == "" {
			return fmt.Errorf("data_source.alpaca api_key and api_secret are required")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	switch c.Cache.Driver {
	case "sqlite", "parquet", "none":
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}
	for name, v := range map[string]float64{
		"initial_balance":      c.Backtest.InitialBalance,
		"transaction_cost_pct": c.Backtest.TransactionCostPct,
		"slippage_pct":         c.Backtest.SlippagePct,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("backtest.%s must be a finite number", name)
		}
	}
	if c.Backtest.InitialBalance < 0 {
		return fmt.Errorf("backtest.initial_balance must not be negative")
	}
	if c.Backtest.TransactionCostPct < 0 || c.Backtest.TransactionCostPct >= 1 {
		return fmt.Errorf("backtest.transaction_cost_pct must be a fraction in [0,1)")
	}
	if c.Backtest.SlippagePct < 0 || c.Backtest.SlippagePct >= 1 {
		return fmt.Errorf("backtest.slippage_pct must be a fraction in [0,1)")
	}
	if _, _, err := c.BacktestWindow(time.Now()); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Universe.Criteria.Validate(); err != nil {
		return fmt.Errorf("universe.criteria: %w", err)
	}
	return nil
}

// ValidateTelegram checks the settings the watch command needs.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
