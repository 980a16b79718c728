package backtest

import (
	"sort"
	"time"

	"BasketSentinel/internal/model"
)

// SymbolStat summarizes the trading of one symbol within a run.
type SymbolStat struct {
	Symbol   string
	Buys     int
	Sells    int
	Bought   float64 // cash spent on buys
	Sold     float64 // cash received from sells
	Shares   int64   // held at the end
	Realized float64 // sell proceeds minus the buys they closed
}

// Result is the outcome of one backtest.
type Result struct {
	RunID          string
	Symbols        []string
	Start, End     time.Time
	InitialBalance float64
	FinalBalance   float64
	Cash           float64
	Positions      []model.Position
	Fills          []model.Fill
	Skipped        map[string]string // symbol -> reason

	// Filled by Calculate.
	ReturnPct float64
	Buys      int
	Sells     int
	PerSymbol map[string]SymbolStat
}

// Calculate derives the summary statistics from fills and balances.
func (r *Result) Calculate() {
	r.Buys, r.Sells = 0, 0
	r.PerSymbol = make(map[string]SymbolStat)
	open := make(map[string]float64) // buy cash spent since the last sell

	for _, f := range r.Fills {
		st := r.PerSymbol[f.Symbol]
		st.Symbol = f.Symbol
		switch f.Side {
		case model.SideBuy:
			r.Buys++
			st.Buys++
			st.Bought += f.Amount
			open[f.Symbol] += f.Amount
		case model.SideSell:
			r.Sells++
			st.Sells++
			st.Sold += f.Amount
			st.Realized += f.Amount - open[f.Symbol]
			delete(open, f.Symbol)
		}
		r.PerSymbol[f.Symbol] = st
	}
	for _, p := range r.Positions {
		st := r.PerSymbol[p.Symbol]
		st.Symbol = p.Symbol
		st.Shares = p.Shares
		r.PerSymbol[p.Symbol] = st
	}

	if r.InitialBalance > 0 {
		r.ReturnPct = (r.FinalBalance - r.InitialBalance) / r.InitialBalance * 100
	} else {
		r.ReturnPct = 0
	}
}

// SymbolStats returns the per-symbol statistics in symbol order.
func (r *Result) SymbolStats() []SymbolStat {
	out := make([]SymbolStat, 0, len(r.PerSymbol))
	for _, st := range r.PerSymbol {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SkippedSymbols returns the skipped symbols in order.
func (r *Result) SkippedSymbols() []string {
	out := make([]string, 0, len(r.Skipped))
	for s := range r.Skipped {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
