package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"BasketSentinel/internal/backtest"
	"BasketSentinel/internal/notifier"
	"BasketSentinel/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled basket scans and answer Telegram commands",
	Long: `Scans the basket on the configured cron schedule and sends the signal
report to Telegram. Listens for /signals, /signal SYMBOL, /backtest and
/basket. Ctrl+C to stop.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateTelegram(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	symbols, err := resolveSymbols(ctx, tickers)
	if err != nil {
		return err
	}
	provider, closeCache, err := newProvider()
	if err != nil {
		return err
	}
	defer closeCache()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	sched := scheduler.NewScheduler(ctx, newEngine(provider), tn, symbols, backtest.Config{
		InitialBalance:      cfg.Backtest.InitialBalance,
		TransactionCostPct:  cfg.Backtest.TransactionCostPct,
		SlippagePct:         cfg.Backtest.SlippagePct,
		StrictChronological: cfg.Backtest.StrictChronological,
		Concurrency:         cfg.Backtest.Concurrency,
	})
	if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, scanning now")
		go sched.RunScanNow()
	}

	log.Info().Strs("symbols", symbols).Str("cron", cfg.Schedule.ScanCron).Msg("sentinel is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}
	cancel()
	return nil
}
