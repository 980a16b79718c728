package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"BasketSentinel/internal/calculator"
	"BasketSentinel/internal/collector"
	"BasketSentinel/internal/model"
)

// EvaluateSignal classifies the most recent confidence pair of symbol using
// the LookbackDays of history ending at asOf.
func (e *Engine) EvaluateSignal(ctx context.Context, symbol string, asOf time.Time) (*model.SignalReport, error) {
	lookback := e.LookbackDays
	if lookback <= 0 {
		lookback = 365
	}
	start := asOf.AddDate(0, 0, -lookback)

	snap, err := collector.NewCollector(e.Provider, e.Params).Collect(ctx, symbol, start, asOf)
	if snap == nil {
		if errors.Is(err, collector.ErrDataUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", collector.ErrDataUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	latest, ok := snap.Indicators.Latest()
	if !ok {
		return nil, fmt.Errorf("%w: %s", calculator.ErrInsufficientHistory, symbol)
	}

	score := e.Scorer.Score(latest)
	return &model.SignalReport{
		Symbol:     symbol,
		AsOf:       latest.Date,
		Decision:   e.Scorer.Classify(score),
		Score:      score,
		Indicators: latest,
	}, nil
}

// AssessAll evaluates every symbol in the given order. A symbol that cannot be
// assessed yields a NONE report carrying the reason. Only context
// cancellation returns an error.
func (e *Engine) AssessAll(ctx context.Context, symbols []string, asOf time.Time) ([]model.SignalReport, error) {
	reports := make([]model.SignalReport, 0, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := e.EvaluateSignal(ctx, sym, asOf)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			log.Warn().Err(err).Str("symbol", sym).Msg("signal assessment failed")
			reports = append(reports, model.SignalReport{
				Symbol:   sym,
				AsOf:     asOf,
				Decision: model.DecisionNone,
				Reason:   err.Error(),
			})
			continue
		}
		log.Info().Str("symbol", sym).Str("decision", string(rep.Decision)).
			Float64("buy", rep.Score.Buy).Float64("sell", rep.Score.Sell).Msg(Describe(*rep))
		reports = append(reports, *rep)
	}
	return reports, nil
}

// Describe renders the one-line verdict for a report.
func Describe(r model.SignalReport) string {
	switch r.Decision {
	case model.DecisionBuy:
		return "Buy signal for " + r.Symbol
	case model.DecisionSell:
		return "Sell signal for " + r.Symbol
	default:
		return "No signal for " + r.Symbol
	}
}
