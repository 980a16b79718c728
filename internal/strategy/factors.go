package strategy

import (
	"math"

	"BasketSentinel/internal/model"
)

const (
	FactorRSI       = "RSI"
	FactorMACD      = "MACD"
	FactorBollinger = "Bollinger"
)

// RSI bounds for oversold/overbought.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
	rsiSpan       = 30.0
)

// scoreRSI scores how far RSI sits beyond the oversold/overbought bounds.
func scoreRSI(p model.IndicatorPoint) (buy, sell float64) {
	buy = clamp01((rsiOversold - p.RSI) / rsiSpan)
	sell = clamp01((p.RSI - rsiOverbought) / rsiSpan)
	return buy, sell
}

// scoreMACD scores the MACD/signal spread in units of the threshold.
func scoreMACD(p model.IndicatorPoint, threshold float64) (buy, sell float64) {
	buy = clamp01(ratio(p.MACD-p.Signal, threshold))
	sell = clamp01(ratio(p.Signal-p.MACD, threshold))
	return buy, sell
}

// scoreBollinger scores how far price pierces the lower/upper band.
// Nothing is scored before the bands are available.
func scoreBollinger(p model.IndicatorPoint, threshold float64) (buy, sell float64) {
	if !p.BandsReady {
		return 0, 0
	}
	buy = clamp01(ratio(p.Lower-p.Close, threshold))
	sell = clamp01(ratio(p.Close-p.Upper, threshold))
	return buy, sell
}

func ratio(num, den float64) float64 {
	if den == 0 {
		if num > 0 {
			return 1
		}
		return 0
	}
	return num / den
}

// clamp01 bounds v to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func factor(name string, side model.Side, raw, weight float64) model.FactorScore {
	return model.FactorScore{
		Name:     name,
		Side:     side,
		RawScore: raw,
		Weight:   weight,
		Weighted: raw * weight,
	}
}
