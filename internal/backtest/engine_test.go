package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BasketSentinel/internal/calculator"
	"BasketSentinel/internal/collector"
	"BasketSentinel/internal/ledger"
	"BasketSentinel/internal/model"
	"BasketSentinel/internal/strategy"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time { return day0.AddDate(0, 0, n) }

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// choppyThenCrash oscillates around 100 and then drops sharply.
func choppyThenCrash() []float64 {
	var closes []float64
	for i := 0; i < 30; i++ {
		closes = append(closes, 100+float64(i%2))
	}
	return append(closes, 80, 78, 79, 85, 92, 99, 104, 110)
}

func newTestEngine(p collector.Provider) *Engine {
	return NewEngine(p, calculator.DefaultParams(), strategy.DefaultConfig())
}

func baseConfig() Config {
	return Config{
		Start:          day0,
		End:            dayN(90),
		InitialBalance: 100000,
	}
}

func TestConfig_Validate(t *testing.T) {
	good := baseConfig()
	require.NoError(t, good.Validate())

	cases := map[string]func(c *Config){
		"missing dates":    func(c *Config) { c.Start = time.Time{} },
		"end before start": func(c *Config) { c.End = dayN(-5) },
		"negative balance": func(c *Config) { c.InitialBalance = -1 },
		"cost too large":   func(c *Config) { c.TransactionCostPct = 1 },
		"negative slip":    func(c *Config) { c.SlippagePct = -0.01 },
		"nan cost":         func(c *Config) { c.TransactionCostPct = math.NaN() },
		"nan slippage":     func(c *Config) { c.SlippagePct = math.NaN() },
		"inf balance":      func(c *Config) { c.InitialBalance = math.Inf(1) },
		"nan balance":      func(c *Config) { c.InitialBalance = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := baseConfig()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestRunBacktest_InvalidConfig(t *testing.T) {
	e := newTestEngine(collector.NewStaticProvider())
	cfg := baseConfig()
	cfg.End = dayN(-1)
	_, err := e.RunBacktest(context.Background(), []string{"AAA"}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunBacktest_SkipsFailingSymbols(t *testing.T) {
	p := collector.NewStaticProvider()
	p.Errors["BAD"] = errors.New("connection reset")
	p.Add("ONE", day0, 50)

	e := newTestEngine(p)
	res, err := e.RunBacktest(context.Background(), []string{"bad", "MISSING", "ONE"}, baseConfig())
	require.NoError(t, err)

	assert.Equal(t, 100000.0, res.FinalBalance)
	assert.Empty(t, res.Fills)
	assert.Equal(t, []string{"BAD", "MISSING", "ONE"}, res.SkippedSymbols())
	assert.Contains(t, res.Skipped["MISSING"], collector.ErrDataUnavailable.Error())
	assert.Contains(t, res.Skipped["ONE"], calculator.ErrInsufficientHistory.Error())
	assert.NotEmpty(t, res.RunID)
}

func TestRunBacktest_FlatPricesNeverTrade(t *testing.T) {
	p := collector.NewStaticProvider()
	p.Add("FLAT", day0, flat(60, 100)...)

	res, err := newTestEngine(p).RunBacktest(context.Background(), []string{"FLAT"}, baseConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Fills)
	assert.Equal(t, 100000.0, res.FinalBalance)
	assert.Zero(t, res.ReturnPct)
}

func TestRunBacktest_TradesAndIsDeterministic(t *testing.T) {
	p := collector.NewStaticProvider()
	p.Add("CRSH", day0, choppyThenCrash()...)
	p.Add("FLAT", day0, flat(38, 50)...)
	p.Add("UPPP", day0, append(flat(25, 20), 21, 22, 24, 27, 31, 36, 42, 49)...)

	cfg := baseConfig()
	cfg.TransactionCostPct = 0.001
	cfg.SlippagePct = 0.0005
	cfg.Concurrency = 2

	e := newTestEngine(p)
	first, err := e.RunBacktest(context.Background(), []string{"UPPP", "CRSH", "FLAT"}, cfg)
	require.NoError(t, err)
	second, err := e.RunBacktest(context.Background(), []string{"FLAT", "crsh", "UPPP", "UPPP"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"CRSH", "FLAT", "UPPP"}, first.Symbols)
	assert.Equal(t, first.Symbols, second.Symbols)
	assert.Equal(t, first.FinalBalance, second.FinalBalance)
	assert.Equal(t, first.Fills, second.Fills)
	assert.NotEqual(t, first.RunID, second.RunID)

	assert.Greater(t, first.Buys, 0)
	assert.Greater(t, first.FinalBalance, 0.0)
	assert.Empty(t, first.Skipped)
	for _, f := range first.Fills {
		assert.GreaterOrEqual(t, f.CashAfter, 0.0)
		assert.Greater(t, f.Shares, int64(0))
	}
}

func TestRunBacktest_ContextCanceled(t *testing.T) {
	p := collector.NewStaticProvider()
	p.Add("AAA", day0, flat(30, 10)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(p).RunBacktest(ctx, []string{"AAA"}, baseConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

// scripted scores: buy fully at 100, sell fully at 110, buy fully at 120.
func scriptedRun() tickerRun {
	return tickerRun{
		symbol: "AAA",
		last:   130,
		scores: []model.ConfidenceScore{
			{Date: dayN(0), Price: 100, Buy: 1},
			{Date: dayN(1), Price: 110, Sell: 1},
			{Date: dayN(2), Price: 120, Buy: 1},
		},
	}
}

func TestReplayPasses_BuyPassThenSellPass(t *testing.T) {
	l := ledger.New(100000, ledger.Costs{})
	run := scriptedRun()
	replayPasses(l, []tickerRun{run})
	l.Mark(run.symbol, run.last)

	// The day-2 buy sees no cash because the sell pass has not run yet.
	fills := l.Fills()
	require.Len(t, fills, 2)
	assert.Equal(t, model.SideBuy, fills[0].Side)
	assert.Equal(t, int64(1000), fills[0].Shares)
	assert.Equal(t, model.SideSell, fills[1].Side)
	assert.InDelta(t, 110000, l.FinalValuation(), 1e-9)
}

func TestReplayChronological_Interleaves(t *testing.T) {
	l := ledger.New(100000, ledger.Costs{})
	run := scriptedRun()
	replayChronological(l, []tickerRun{run})
	l.Mark(run.symbol, run.last)

	fills := l.Fills()
	require.Len(t, fills, 3)
	assert.Equal(t, int64(916), fills[2].Shares)
	assert.InDelta(t, 80, l.Cash(), 1e-9)
	assert.InDelta(t, 80+916*130, l.FinalValuation(), 1e-9)
}

func TestReplayChronological_TieOrder(t *testing.T) {
	// Same date for both symbols: AAA (first in order) buys first and takes
	// the whole balance, so BBB cannot afford a share.
	a := tickerRun{symbol: "AAA", last: 10, scores: []model.ConfidenceScore{{Date: dayN(0), Price: 10, Buy: 1}}}
	b := tickerRun{symbol: "BBB", last: 10, scores: []model.ConfidenceScore{{Date: dayN(0), Price: 10, Buy: 1}}}

	l := ledger.New(1000, ledger.Costs{})
	replayChronological(l, []tickerRun{a, b})

	fills := l.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, "AAA", fills[0].Symbol)

	// Buy before sell on the same date and symbol.
	c := tickerRun{symbol: "CCC", last: 10, scores: []model.ConfidenceScore{{Date: dayN(0), Price: 10, Buy: 1, Sell: 1}}}
	l = ledger.New(1000, ledger.Costs{})
	replayChronological(l, []tickerRun{c})
	fills = l.Fills()
	require.Len(t, fills, 2)
	assert.Equal(t, model.SideBuy, fills[0].Side)
	assert.Equal(t, model.SideSell, fills[1].Side)
}

func TestResult_Calculate(t *testing.T) {
	r := &Result{
		InitialBalance: 1000,
		FinalBalance:   1100,
		Fills: []model.Fill{
			{Symbol: "AAA", Side: model.SideBuy, Amount: 500},
			{Symbol: "AAA", Side: model.SideSell, Amount: 600},
			{Symbol: "BBB", Side: model.SideBuy, Amount: 300},
		},
		Positions: []model.Position{{Symbol: "BBB", Shares: 3}},
	}
	r.Calculate()

	assert.InDelta(t, 10.0, r.ReturnPct, 1e-9)
	assert.Equal(t, 2, r.Buys)
	assert.Equal(t, 1, r.Sells)

	stats := r.SymbolStats()
	require.Len(t, stats, 2)
	assert.Equal(t, "AAA", stats[0].Symbol)
	assert.InDelta(t, 100, stats[0].Realized, 1e-9)
	assert.Equal(t, int64(3), stats[1].Shares)
	assert.Equal(t, 1, stats[1].Buys)
}
