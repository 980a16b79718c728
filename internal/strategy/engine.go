// Package strategy turns indicator values into weighted buy/sell confidence.
package strategy

import (
	"fmt"

	"BasketSentinel/internal/model"
)

// Weights assigns the relative importance of each indicator.
type Weights struct {
	RSI       float64 `yaml:"rsi"`
	MACD      float64 `yaml:"macd"`
	Bollinger float64 `yaml:"bollinger"`
}

// Total is the normalization denominator.
func (w Weights) Total() float64 {
	return w.RSI + w.MACD + w.Bollinger
}

// Config holds the scorer settings.
type Config struct {
	Weights Weights `yaml:"weights"`
	// Threshold scales the MACD and Bollinger distances into [0,1].
	Threshold float64 `yaml:"threshold"`
	// MinConfidence is the level a side must exceed to produce a decision.
	MinConfidence float64 `yaml:"min_confidence"`
}

// DefaultConfig returns RSI 0.2, MACD 0.3, Bollinger 0.5 with threshold 0.7.
func DefaultConfig() Config {
	return Config{
		Weights:       Weights{RSI: 0.2, MACD: 0.3, Bollinger: 0.5},
		Threshold:     0.7,
		MinConfidence: 0.7,
	}
}

// Validate rejects negative weights and thresholds.
func (c Config) Validate() error {
	if c.Weights.RSI < 0 || c.Weights.MACD < 0 || c.Weights.Bollinger < 0 {
		return fmt.Errorf("scoring weights must be non-negative: %+v", c.Weights)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("scoring threshold must be non-negative: %.3f", c.Threshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0,1]: %.3f", c.MinConfidence)
	}
	return nil
}

// Scorer computes confidence scores from indicator points.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer settings.
func (s *Scorer) Config() Config { return s.cfg }

// Score computes the buy/sell confidence for one date.
func (s *Scorer) Score(p model.IndicatorPoint) model.ConfidenceScore {
	w := s.cfg.Weights

	buyRSI, sellRSI := scoreRSI(p)
	buyMACD, sellMACD := scoreMACD(p, s.cfg.Threshold)
	buyBoll, sellBoll := scoreBollinger(p, s.cfg.Threshold)

	factors := []model.FactorScore{
		factor(FactorRSI, model.SideBuy, buyRSI, w.RSI),
		factor(FactorMACD, model.SideBuy, buyMACD, w.MACD),
		factor(FactorBollinger, model.SideBuy, buyBoll, w.Bollinger),
		factor(FactorRSI, model.SideSell, sellRSI, w.RSI),
		factor(FactorMACD, model.SideSell, sellMACD, w.MACD),
		factor(FactorBollinger, model.SideSell, sellBoll, w.Bollinger),
	}

	var rawBuy, rawSell float64
	for _, f := range factors {
		if f.Side == model.SideBuy {
			rawBuy += f.Weighted
		} else {
			rawSell += f.Weighted
		}
	}

	score := model.ConfidenceScore{
		Date:    p.Date,
		Price:   p.Close,
		Factors: factors,
	}
	if total := w.Total(); total > 0 {
		score.Buy = clamp01(rawBuy / total)
		score.Sell = clamp01(rawSell / total)
	}
	return score
}

// ScoreSet scores every point of an indicator set, preserving order.
func (s *Scorer) ScoreSet(set *model.IndicatorSet) []model.ConfidenceScore {
	if set == nil {
		return nil
	}
	scores := make([]model.ConfidenceScore, len(set.Points))
	for i, p := range set.Points {
		scores[i] = s.Score(p)
	}
	return scores
}

// Classify maps a confidence pair to a decision. Buy is checked first; a side
// must both dominate the other and exceed the minimum.
func (s *Scorer) Classify(score model.ConfidenceScore) model.Decision {
	return Classify(score, s.cfg.MinConfidence)
}

// Classify is the stateless form of Scorer.Classify.
func Classify(score model.ConfidenceScore, minConfidence float64) model.Decision {
	switch {
	case score.Buy > score.Sell && score.Buy > minConfidence:
		return model.DecisionBuy
	case score.Sell > score.Buy && score.Sell > minConfidence:
		return model.DecisionSell
	default:
		return model.DecisionNone
	}
}
