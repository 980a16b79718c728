package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"BasketSentinel/internal/model"
)

func neutralPoint() model.IndicatorPoint {
	return model.IndicatorPoint{
		Close:      100,
		Mid:        100,
		Upper:      105,
		Lower:      95,
		BandsReady: true,
		RSI:        50,
		MACD:       0.5,
		Signal:     0.5,
	}
}

func TestScore_NeutralIsZero(t *testing.T) {
	s := NewScorer(DefaultConfig())
	score := s.Score(neutralPoint())
	assert.Equal(t, 0.0, score.Buy)
	assert.Equal(t, 0.0, score.Sell)
	assert.Len(t, score.Factors, 6)
	assert.Equal(t, model.DecisionNone, s.Classify(score))
}

func TestScore_ExtremeOversold(t *testing.T) {
	p := neutralPoint()
	p.RSI = 0
	p.MACD = 50
	p.Signal = -50
	p.Close = 10
	s := NewScorer(DefaultConfig())
	score := s.Score(p)
	assert.InDelta(t, 1.0, score.Buy, 1e-12)
	assert.Equal(t, 0.0, score.Sell)
	assert.Equal(t, model.DecisionBuy, s.Classify(score))
}

func TestScore_ExtremeOverbought(t *testing.T) {
	p := neutralPoint()
	p.RSI = 100
	p.MACD = -50
	p.Signal = 50
	p.Close = 1000
	s := NewScorer(DefaultConfig())
	score := s.Score(p)
	assert.Equal(t, 0.0, score.Buy)
	assert.InDelta(t, 1.0, score.Sell, 1e-12)
	assert.Equal(t, model.DecisionSell, s.Classify(score))
}

func TestScore_PartialComponents(t *testing.T) {
	p := neutralPoint()
	p.RSI = 15     // buy_rsi = 0.5
	p.MACD = 0.85  // (0.85-0.5)/0.7 = 0.5
	p.Close = 94.3 // (95-94.3)/0.7 = 1.0
	s := NewScorer(DefaultConfig())
	score := s.Score(p)
	assert.InDelta(t, 0.5*0.2+0.5*0.3+1.0*0.5, score.Buy, 1e-9)
	assert.Equal(t, 0.0, score.Sell)
}

func TestScore_AlwaysWithinUnitInterval(t *testing.T) {
	s := NewScorer(DefaultConfig())
	extremes := []float64{-1e12, -1, 0, 1, 1e12, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, rsi := range extremes {
		for _, spread := range extremes {
			for _, price := range extremes {
				p := model.IndicatorPoint{
					Close: price, Upper: 10, Lower: -10, Mid: 0, BandsReady: true,
					RSI: rsi, MACD: spread, Signal: 0,
				}
				score := s.Score(p)
				assert.True(t, score.Buy >= 0 && score.Buy <= 1, "buy %v for %+v", score.Buy, p)
				assert.True(t, score.Sell >= 0 && score.Sell <= 1, "sell %v for %+v", score.Sell, p)
			}
		}
	}
}

func TestScore_BandsNotReadyIgnored(t *testing.T) {
	p := neutralPoint()
	p.BandsReady = false
	p.Lower = math.NaN()
	p.Upper = math.NaN()
	p.Close = 1
	score := NewScorer(DefaultConfig()).Score(p)
	assert.Equal(t, 0.0, score.Buy)
	assert.Equal(t, 0.0, score.Sell)
}

func TestScore_CustomWeightsNormalized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{RSI: 2, MACD: 0, Bollinger: 2}
	p := neutralPoint()
	p.RSI = 0 // buy_rsi = 1
	score := NewScorer(cfg).Score(p)
	assert.InDelta(t, 0.5, score.Buy, 1e-12)
}

func TestScore_ZeroWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{}
	p := neutralPoint()
	p.RSI = 0
	score := NewScorer(cfg).Score(p)
	assert.Equal(t, 0.0, score.Buy)
	assert.Equal(t, 0.0, score.Sell)
}

func TestScore_BothSidesCanBePositive(t *testing.T) {
	p := neutralPoint()
	p.RSI = 10        // buy side
	p.MACD = -0.2     // sell side
	p.Close = 105.35 // above upper: sell side
	score := NewScorer(DefaultConfig()).Score(p)
	assert.Greater(t, score.Buy, 0.0)
	assert.Greater(t, score.Sell, 0.0)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		buy, sell float64
		want      model.Decision
	}{
		{0.9, 0.1, model.DecisionBuy},
		{0.71, 0.0, model.DecisionBuy},
		{0.7, 0.0, model.DecisionNone},
		{0.1, 0.9, model.DecisionSell},
		{0.8, 0.8, model.DecisionNone},
		{0.5, 0.2, model.DecisionNone},
		{0.0, 0.0, model.DecisionNone},
	}
	for _, tt := range tests {
		got := Classify(model.ConfidenceScore{Buy: tt.buy, Sell: tt.sell}, 0.7)
		assert.Equal(t, tt.want, got, "buy=%.2f sell=%.2f", tt.buy, tt.sell)
	}
}

func TestScoreSet_PreservesOrder(t *testing.T) {
	set := &model.IndicatorSet{Points: []model.IndicatorPoint{neutralPoint(), neutralPoint()}}
	set.Points[1].Close = 42
	scores := NewScorer(DefaultConfig()).ScoreSet(set)
	assert.Len(t, scores, 2)
	assert.Equal(t, 42.0, scores[1].Price)
	assert.Nil(t, NewScorer(DefaultConfig()).ScoreSet(nil))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	cfg := DefaultConfig()
	cfg.Weights.MACD = -1
	assert.Error(t, cfg.Validate())
}
