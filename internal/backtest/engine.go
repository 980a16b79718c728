// Package backtest replays confidence scores against a ledger over a basket
// of symbols and assesses live signals.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"BasketSentinel/internal/calculator"
	"BasketSentinel/internal/collector"
	"BasketSentinel/internal/ledger"
	"BasketSentinel/internal/model"
	"BasketSentinel/internal/strategy"
)

// ErrInvalidConfig is returned when a backtest cannot be started.
var ErrInvalidConfig = errors.New("invalid backtest config")

// Config describes one backtest run.
type Config struct {
	Start              time.Time
	End                time.Time
	InitialBalance     float64
	TransactionCostPct float64
	SlippagePct        float64
	// StrictChronological merges every symbol's buy and sell events by date
	// instead of running a buy pass then a sell pass per symbol.
	StrictChronological bool
	// Concurrency bounds parallel fetches; <= 0 means one per symbol.
	Concurrency int
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	switch {
	case c.Start.IsZero() || c.End.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidConfig)
	case c.End.Before(c.Start):
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidConfig,
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	case !finite(c.InitialBalance) || !finite(c.TransactionCostPct) || !finite(c.SlippagePct):
		return fmt.Errorf("%w: balance and costs must be finite numbers", ErrInvalidConfig)
	case c.InitialBalance < 0:
		return fmt.Errorf("%w: negative initial balance %.2f", ErrInvalidConfig, c.InitialBalance)
	case c.TransactionCostPct < 0 || c.TransactionCostPct >= 1:
		return fmt.Errorf("%w: transaction cost %.4f outside [0,1)", ErrInvalidConfig, c.TransactionCostPct)
	case c.SlippagePct < 0 || c.SlippagePct >= 1:
		return fmt.Errorf("%w: slippage %.4f outside [0,1)", ErrInvalidConfig, c.SlippagePct)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Engine wires a data provider, the indicator parameters and a scorer.
type Engine struct {
	Provider collector.Provider
	Params   calculator.Params
	Scorer   *strategy.Scorer
	// LookbackDays is the history used by EvaluateSignal.
	LookbackDays int
}

// NewEngine creates an Engine with a 365-day signal lookback.
func NewEngine(provider collector.Provider, params calculator.Params, scoring strategy.Config) *Engine {
	return &Engine{
		Provider:     provider,
		Params:       params,
		Scorer:       strategy.NewScorer(scoring),
		LookbackDays: 365,
	}
}

// tickerRun is the prepared, ledger-independent state of one symbol.
type tickerRun struct {
	symbol string
	scores []model.ConfidenceScore
	last   float64
	skip   string
}

// RunBacktest simulates trading the basket over [cfg.Start, cfg.End].
// Symbols whose data cannot be fetched or scored are skipped with a reason;
// only context cancellation or an invalid config aborts the run.
func (e *Engine) RunBacktest(ctx context.Context, tickers []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	symbols := collector.NormalizeSymbols(tickers)
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Strs("symbols", symbols).
		Str("start", cfg.Start.Format("2006-01-02")).Str("end", cfg.End.Format("2006-01-02")).
		Float64("initial_balance", cfg.InitialBalance).Bool("strict", cfg.StrictChronological).
		Msg("backtest started")

	runs, err := e.prepare(ctx, symbols, cfg)
	if err != nil {
		return nil, err
	}

	l := ledger.New(cfg.InitialBalance, ledger.Costs{
		TransactionCostPct: cfg.TransactionCostPct,
		SlippagePct:        cfg.SlippagePct,
	})

	result := &Result{
		RunID:          runID,
		Symbols:        symbols,
		Start:          cfg.Start,
		End:            cfg.End,
		InitialBalance: cfg.InitialBalance,
		Skipped:        make(map[string]string),
	}
	var active []tickerRun
	for _, r := range runs {
		if r.skip != "" {
			result.Skipped[r.symbol] = r.skip
			logger.Warn().Str("symbol", r.symbol).Str("reason", r.skip).Msg("symbol skipped")
			continue
		}
		active = append(active, r)
	}

	if cfg.StrictChronological {
		replayChronological(l, active)
	} else {
		replayPasses(l, active)
	}
	for _, r := range active {
		l.Mark(r.symbol, r.last)
	}

	result.FinalBalance = l.FinalValuation()
	result.Cash = l.Cash()
	result.Fills = l.Fills()
	result.Positions = l.Positions()
	result.Calculate()

	logger.Info().Float64("final_balance", result.FinalBalance).
		Float64("return_pct", result.ReturnPct).Int("fills", len(result.Fills)).
		Int("skipped", len(result.Skipped)).Msg("backtest finished")
	return result, nil
}

// prepare fetches and scores every symbol concurrently. Results are indexed
// by symbol position so the replay order never depends on fetch timing.
func (e *Engine) prepare(ctx context.Context, symbols []string, cfg Config) ([]tickerRun, error) {
	runs := make([]tickerRun, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i, sym := range symbols {
		g.Go(func() error {
			runs[i] = e.prepareSymbol(gctx, sym, cfg.Start, cfg.End)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest aborted: %w", err)
	}
	return runs, nil
}

func (e *Engine) prepareSymbol(ctx context.Context, symbol string, start, end time.Time) tickerRun {
	run := tickerRun{symbol: symbol}

	series, err := e.Provider.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		run.skip = err.Error()
		return run
	}
	last, ok := series.Last()
	if !ok {
		run.skip = collector.ErrDataUnavailable.Error() + ": empty series"
		return run
	}
	run.last = last.Close

	ind, err := calculator.Compute(series, e.Params)
	if err != nil {
		run.skip = err.Error()
		return run
	}
	run.scores = e.Scorer.ScoreSet(ind)
	return run
}

// replayPasses applies, per symbol in order, every buy event and then every
// sell event.
func replayPasses(l *ledger.Ledger, runs []tickerRun) {
	for _, r := range runs {
		for _, sc := range r.scores {
			l.ApplyBuy(r.symbol, sc.Buy, sc.Price, sc.Date)
		}
		for _, sc := range r.scores {
			l.ApplySell(r.symbol, sc.Sell, sc.Price, sc.Date)
		}
	}
}

type event struct {
	date   time.Time
	order  int // symbol position
	side   model.Side
	symbol string
	score  model.ConfidenceScore
}

// replayChronological merges all events by date. Ties go to symbol order,
// then buy before sell.
func replayChronological(l *ledger.Ledger, runs []tickerRun) {
	var events []event
	for i, r := range runs {
		for _, sc := range r.scores {
			events = append(events,
				event{date: sc.Date, order: i, side: model.SideBuy, symbol: r.symbol, score: sc},
				event{date: sc.Date, order: i, side: model.SideSell, symbol: r.symbol, score: sc},
			)
		}
	}
	sort.SliceStable(events, func(a, b int) bool {
		ea, eb := events[a], events[b]
		if !ea.date.Equal(eb.date) {
			return ea.date.Before(eb.date)
		}
		if ea.order != eb.order {
			return ea.order < eb.order
		}
		return ea.side == model.SideBuy && eb.side == model.SideSell
	})
	for _, ev := range events {
		if ev.side == model.SideBuy {
			l.ApplyBuy(ev.symbol, ev.score.Buy, ev.score.Price, ev.date)
		} else {
			l.ApplySell(ev.symbol, ev.score.Sell, ev.score.Price, ev.date)
		}
	}
}
