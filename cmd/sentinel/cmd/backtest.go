package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"BasketSentinel/internal/backtest"
	"BasketSentinel/internal/notifier"
)

var (
	btStart    string
	btEnd      string
	btBalance  float64
	btCost     float64
	btSlippage float64
	btStrict   bool
	btNotify   bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Simulate the strategy over historical data",
	Long: `Fetches daily closes for every symbol, scores each day and replays the
scores against a cash ledger with transaction costs and slippage.

Costs are fractions: --cost 0.001 is 0.1%.

Examples:
  sentinel backtest --start 2023-01-01 --end 2023-12-31
  sentinel backtest -t BA,LUV --balance 50000 --strict`,
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&btStart, "start", "", "start date YYYY-MM-DD (default: config or one year before end)")
	f.StringVar(&btEnd, "end", "", "end date YYYY-MM-DD (default: config or today)")
	f.Float64Var(&btBalance, "balance", 0, "initial balance (default: config)")
	f.Float64Var(&btCost, "cost", -1, "transaction cost fraction (default: config)")
	f.Float64Var(&btSlippage, "slippage", -1, "slippage fraction (default: config)")
	f.BoolVar(&btStrict, "strict", false, "replay all events in date order instead of buy pass then sell pass")
	f.BoolVar(&btNotify, "notify", false, "also send the report to Telegram")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if btStart != "" {
		cfg.Backtest.Start = btStart
	}
	if btEnd != "" {
		cfg.Backtest.End = btEnd
	}
	start, end, err := cfg.BacktestWindow(time.Now())
	if err != nil {
		return err
	}

	run := backtest.Config{
		Start:               start,
		End:                 end,
		InitialBalance:      cfg.Backtest.InitialBalance,
		TransactionCostPct:  cfg.Backtest.TransactionCostPct,
		SlippagePct:         cfg.Backtest.SlippagePct,
		StrictChronological: cfg.Backtest.StrictChronological || btStrict,
		Concurrency:         cfg.Backtest.Concurrency,
	}
	if btBalance > 0 {
		run.InitialBalance = btBalance
	}
	if btCost >= 0 {
		run.TransactionCostPct = btCost
	}
	if btSlippage >= 0 {
		run.SlippagePct = btSlippage
	}

	symbols, err := resolveSymbols(ctx, tickers)
	if err != nil {
		return err
	}
	provider, closeCache, err := newProvider()
	if err != nil {
		return err
	}
	defer closeCache()

	res, err := newEngine(provider).RunBacktest(ctx, symbols, run)
	if err != nil {
		return err
	}

	report := notifier.FormatBacktestReport(res)
	fmt.Fprint(cmd.OutOrStdout(), notifier.PlainText(report))
	if btNotify {
		if err := cfg.ValidateTelegram(); err != nil {
			return err
		}
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err := tn.SendWithRetry(ctx, report, 3); err != nil {
			return fmt.Errorf("send report: %w", err)
		}
	}
	return nil
}
