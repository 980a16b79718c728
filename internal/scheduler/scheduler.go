// Package scheduler runs periodic basket scans and answers chat commands.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"BasketSentinel/internal/backtest"
	"BasketSentinel/internal/model"
	"BasketSentinel/internal/notifier"
)

// Sender delivers a report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron scan and command handling.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   *backtest.Engine
	Notifier Sender
	Symbols  []string
	// Backtest is the template for the /backtest command; its window is
	// replaced by the year ending today.
	Backtest backtest.Config
	Now      func() time.Time
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, engine *backtest.Engine, sender Sender, symbols []string, bt backtest.Config) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Engine:   engine,
		Notifier: sender,
		Symbols:  symbols,
		Backtest: bt,
		Now:      time.Now,
		Ctx:      ctx,
	}
}

// RegisterAll registers the basket scan.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("symbols", len(s.Symbols)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScanNow executes the scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) today() time.Time {
	now := s.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Scheduler) scanTask() {
	log.Info().Msg("running basket scan")
	report, err := s.scan(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("basket scan")
		s.trySend(fmt.Sprintf("❌ basket scan failed: %v", err))
		return
	}
	s.trySend(report)
}

func (s *Scheduler) scan(ctx context.Context) (string, error) {
	asOf := s.today()
	reports, err := s.Engine.AssessAll(ctx, s.Symbols, asOf)
	if err != nil {
		return "", err
	}
	return notifier.FormatSignalReport(reports, asOf), nil
}

func (s *Scheduler) runBacktest(ctx context.Context) (string, error) {
	cfg := s.Backtest
	cfg.End = s.today()
	cfg.Start = cfg.End.AddDate(-1, 0, 0)
	res, err := s.Engine.RunBacktest(ctx, s.Symbols, cfg)
	if err != nil {
		return "", err
	}
	return notifier.FormatBacktestReport(res), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage()
	}
	switch strings.ToLower(fields[0]) {
	case "/signals":
		report, err := s.scan(ctx)
		if err != nil {
			return fmt.Sprintf("❌ basket scan failed: %v", err)
		}
		return report
	case "/signal":
		if len(fields) < 2 {
			return "usage: /signal SYMBOL"
		}
		sym := strings.ToUpper(fields[1])
		rep, err := s.Engine.EvaluateSignal(ctx, sym, s.today())
		if err != nil {
			return notifier.FormatSignalDetail(model.SignalReport{
				Symbol: sym, AsOf: s.today(), Decision: model.DecisionNone, Reason: err.Error(),
			})
		}
		return notifier.FormatSignalDetail(*rep)
	case "/backtest":
		report, err := s.runBacktest(ctx)
		if err != nil {
			return fmt.Sprintf("❌ backtest failed: %v", err)
		}
		return report
	case "/basket":
		return "🧺 " + strings.Join(s.Symbols, ", ")
	default:
		return usage()
	}
}

func usage() string {
	return "Commands:\n• /signals\n• /signal SYMBOL\n• /backtest\n• /basket"
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
