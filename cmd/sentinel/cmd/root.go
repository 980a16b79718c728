// Package cmd - sentinel CLI commands
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"BasketSentinel/internal/backtest"
	"BasketSentinel/internal/collector"
	"BasketSentinel/internal/config"
	"BasketSentinel/internal/logger"
	"BasketSentinel/internal/store"
	"BasketSentinel/internal/universe"
)

var (
	cfgFile string
	verbose bool
	tickers []string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Basket signal engine and backtest simulator",
	Long: `BasketSentinel scores a basket of equities with Bollinger Bands, RSI and
MACD, replays the scores against a simulated account, and reports live
buy/sell signals.

Commands:
    backtest    - simulate the strategy over a date range
    signal      - assess the latest signal for each symbol
    watch       - scheduled scans with Telegram delivery
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultCfg, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringSliceVarP(&tickers, "tickers", "t", nil, "symbols to evaluate (default: screened universe)")

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(watchCmd)
}

// initConfig loads .env, the YAML config and the logger.
func initConfig() error {
	envErr := godotenv.Load()

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	if envErr != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// newProvider builds the configured data provider behind the bar cache.
// The returned close func releases the cache.
func newProvider() (collector.Provider, func(), error) {
	var upstream collector.Provider
	switch strings.ToLower(cfg.DataSource.Provider) {
	case "rest":
		upstream = collector.NewRESTProvider(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "alpaca":
		a := cfg.DataSource.Alpaca
		upstream = collector.NewAlpacaProvider(a.APIKey, a.APISecret, a.DataURL, a.Feed)
	default:
		upstream = collector.NewYahooProvider(cfg.Proxy)
	}

	bars, err := store.Open(cfg.Cache.Driver, cfg.Cache.Path)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Cache.Driver).Msg("bar cache unavailable, fetching without cache")
		return upstream, func() {}, nil
	}
	closeFn := func() {
		if err := bars.Close(); err != nil {
			log.Warn().Err(err).Msg("close bar cache")
		}
	}
	p := collector.NewCachedProvider(upstream, bars)
	log.Info().Str("provider", p.Name()).Str("cache", cfg.Cache.Driver).Msg("data source ready")
	return p, closeFn, nil
}

func newEngine(p collector.Provider) *backtest.Engine {
	e := backtest.NewEngine(p, cfg.Indicators, cfg.Scoring)
	e.LookbackDays = cfg.Signal.LookbackDays
	return e
}

// resolveSymbols returns the explicit symbols, or the screened universe.
func resolveSymbols(ctx context.Context, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return collector.NormalizeSymbols(explicit), nil
	}
	screener := universe.NewStaticScreener(cfg.Universe.Listings)
	screened, err := screener.Screen(ctx, cfg.Universe.Criteria)
	if err != nil {
		return nil, fmt.Errorf("screen universe: %w", err)
	}
	symbols := universe.Symbols(screened)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe screen selected no symbols")
	}
	return symbols, nil
}
