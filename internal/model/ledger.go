package model

import "time"

// Position is a whole-share holding in one symbol.
type Position struct {
	Symbol    string
	Shares    int64
	LastPrice float64
}

// Fill records one applied buy or sell.
type Fill struct {
	Symbol     string
	Side       Side
	Date       time.Time
	Confidence float64
	Quote      float64 // quoted close
	ExecPrice  float64 // after slippage
	Shares     int64
	Amount     float64 // cash debited (buy) or credited (sell), after costs
	CashAfter  float64
}
