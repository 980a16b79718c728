package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"BasketSentinel/internal/notifier"
)

var (
	sigDetail bool
	sigNotify bool
)

var signalCmd = &cobra.Command{
	Use:   "signal [SYMBOL...]",
	Short: "Assess the latest buy/sell signal",
	Long: `Scores the most recent day of each symbol over the configured lookback
and prints Buy, Sell or No signal.

Examples:
  sentinel signal
  sentinel signal BA LUV --detail`,
	RunE: runSignal,
}

func init() {
	signalCmd.Flags().BoolVar(&sigDetail, "detail", false, "print the factor breakdown for each symbol")
	signalCmd.Flags().BoolVar(&sigNotify, "notify", false, "also send the report to Telegram")
}

func runSignal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	symbols, err := resolveSymbols(ctx, append(append([]string{}, tickers...), args...))
	if err != nil {
		return err
	}
	provider, closeCache, err := newProvider()
	if err != nil {
		return err
	}
	defer closeCache()

	now := time.Now().UTC()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	reports, err := newEngine(provider).AssessAll(ctx, symbols, asOf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := notifier.FormatSignalReport(reports, asOf)
	fmt.Fprint(out, notifier.PlainText(report))
	if sigDetail {
		for _, r := range reports {
			fmt.Fprintln(out)
			fmt.Fprint(out, notifier.PlainText(notifier.FormatSignalDetail(r)))
		}
	}
	if sigNotify {
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
