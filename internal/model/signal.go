package model

import "time"

// Decision is the classification of a confidence pair.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionNone Decision = "NONE"
)

// Side marks which half of a confidence pair a factor contributes to.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// FactorScore represents a single indicator's contribution to one side.
type FactorScore struct {
	Name     string
	Side     Side
	RawScore float64 // 0.0 ~ 1.0
	Weight   float64
	Weighted float64
}

// ConfidenceScore is the normalized buy/sell strength for one date.
type ConfidenceScore struct {
	Date    time.Time
	Price   float64
	Buy     float64
	Sell    float64
	Factors []FactorScore
}

// SignalReport is the live single-point assessment of one symbol.
type SignalReport struct {
	Symbol     string
	AsOf       time.Time
	Decision   Decision
	Score      ConfidenceScore
	Indicators IndicatorPoint
	Reason     string // set when no assessment could be made
}
