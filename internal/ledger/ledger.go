// Package ledger tracks cash and whole-share positions through a backtest.
package ledger

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"BasketSentinel/internal/model"
)

// Costs are the per-trade frictions, expressed as fractions (0.001 = 0.1%).
type Costs struct {
	TransactionCostPct float64
	SlippagePct        float64
}

// Ledger owns the cash balance and positions of one simulation.
// All mutations are serialized; cash and shares never go negative.
type Ledger struct {
	mu         sync.Mutex
	cash       float64
	costs      Costs
	positions  map[string]*model.Position
	lastPrices map[string]float64
	fills      []model.Fill
}

// New creates a Ledger funded with initialBalance.
func New(initialBalance float64, costs Costs) *Ledger {
	if !(initialBalance >= 0) || math.IsInf(initialBalance, 0) {
		initialBalance = 0
	}
	return &Ledger{
		cash:       initialBalance,
		costs:      Costs{TransactionCostPct: fraction(costs.TransactionCostPct), SlippagePct: fraction(costs.SlippagePct)},
		positions:  make(map[string]*model.Position),
		lastPrices: make(map[string]float64),
	}
}

// fraction clamps a cost into [0,1); anything non-finite counts as no cost.
func fraction(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0), v < 0:
		return 0
	case v >= 1:
		return math.Nextafter(1, 0)
	}
	return v
}

// ApplyBuy invests cash*confidence in whole shares at the slipped price.
// A buy on a held symbol replaces the recorded share count. Returns the fill
// and whether anything was executed.
func (l *Ledger) ApplyBuy(symbol string, confidence, price float64, date time.Time) (model.Fill, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !(confidence > 0) || !(price > 0) {
		return model.Fill{}, false
	}
	if confidence > 1 {
		confidence = 1
	}

	investment := l.cash * confidence
	execPrice := price * (1 + l.costs.SlippagePct)
	if !(execPrice > 0) {
		return model.Fill{}, false
	}
	shares := int64(math.Floor(investment / execPrice))
	if shares <= 0 {
		return model.Fill{}, false
	}

	cost := float64(shares) * execPrice
	cost -= cost * l.costs.TransactionCostPct
	if cost > l.cash {
		cost = l.cash
	}
	if cost < 0 {
		cost = 0
	}
	l.cash -= cost

	l.positions[symbol] = &model.Position{Symbol: symbol, Shares: shares, LastPrice: price}
	l.lastPrices[symbol] = price

	fill := model.Fill{
		Symbol:     symbol,
		Side:       model.SideBuy,
		Date:       date,
		Confidence: confidence,
		Quote:      price,
		ExecPrice:  execPrice,
		Shares:     shares,
		Amount:     cost,
		CashAfter:  l.cash,
	}
	l.fills = append(l.fills, fill)

	log.Debug().
		Str("symbol", symbol).
		Time("date", date).
		Int64("shares", shares).
		Float64("exec_price", execPrice).
		Float64("cost", cost).
		Float64("cash", l.cash).
		Msg("buy applied")
	return fill, true
}

// ApplySell liquidates the whole position at the slipped price.
func (l *Ledger) ApplySell(symbol string, confidence, price float64, date time.Time) (model.Fill, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !(confidence > 0) || !(price > 0) {
		return model.Fill{}, false
	}
	pos, ok := l.positions[symbol]
	if !ok || pos.Shares <= 0 {
		return model.Fill{}, false
	}
	if confidence > 1 {
		confidence = 1
	}

	execPrice := price * (1 - l.costs.SlippagePct)
	if execPrice < 0 {
		execPrice = 0
	}
	revenue := float64(pos.Shares) * execPrice
	revenue -= revenue * l.costs.TransactionCostPct
	if revenue < 0 {
		revenue = 0
	}
	l.cash += revenue

	delete(l.positions, symbol)
	l.lastPrices[symbol] = price

	fill := model.Fill{
		Symbol:     symbol,
		Side:       model.SideSell,
		Date:       date,
		Confidence: confidence,
		Quote:      price,
		ExecPrice:  execPrice,
		Shares:     pos.Shares,
		Amount:     revenue,
		CashAfter:  l.cash,
	}
	l.fills = append(l.fills, fill)

	log.Debug().
		Str("symbol", symbol).
		Time("date", date).
		Int64("shares", pos.Shares).
		Float64("exec_price", execPrice).
		Float64("revenue", revenue).
		Float64("cash", l.cash).
		Msg("sell applied")
	return fill, true
}

// Mark records the last available price for a symbol, used by FinalValuation.
func (l *Ledger) Mark(symbol string, price float64) {
	if !(price > 0) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastPrices[symbol] = price
	if pos, ok := l.positions[symbol]; ok {
		pos.LastPrice = price
	}
}

// FinalValuation returns cash plus every position marked at its last price,
// without slippage or costs. It does not mutate the ledger.
func (l *Ledger) FinalValuation() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := l.cash
	for _, sym := range l.sortedSymbols() {
		pos := l.positions[sym]
		total += float64(pos.Shares) * l.lastPrices[sym]
	}
	return total
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Position returns a copy of the holding for symbol.
func (l *Ledger) Position(symbol string) (model.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all holdings sorted by symbol.
func (l *Ledger) Positions() []model.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Position, 0, len(l.positions))
	for _, sym := range l.sortedSymbols() {
		out = append(out, *l.positions[sym])
	}
	return out
}

// Fills returns a copy of the trade journal in application order.
func (l *Ledger) Fills() []model.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

func (l *Ledger) sortedSymbols() []string {
	syms := make([]string, 0, len(l.positions))
	for s := range l.positions {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}
