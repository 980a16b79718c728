// Package calculator computes technical indicators over daily close series.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"BasketSentinel/internal/model"
)

var (
	// ErrInsufficientHistory is returned when a series is too short to derive any indicator.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrInvalidParams is returned for non-positive windows or a negative band multiplier.
	ErrInvalidParams = errors.New("invalid indicator parameters")
)

// MinHistory is the smallest series Compute accepts: RSI needs one price delta.
const MinHistory = 2

// Params holds the indicator windows.
type Params struct {
	BollingerWindow int     `yaml:"bollinger_window"`
	BollingerK      float64 `yaml:"bollinger_k"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	RSIWindow       int     `yaml:"rsi_window"`
}

// DefaultParams returns the classic 20/2, 12/26/9 and 14 settings.
func DefaultParams() Params {
	return Params{
		BollingerWindow: 20,
		BollingerK:      2,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		RSIWindow:       14,
	}
}

// Validate checks that every window is usable.
func (p Params) Validate() error {
	switch {
	case p.BollingerWindow < 2:
		return fmt.Errorf("%w: bollinger window %d < 2", ErrInvalidParams, p.BollingerWindow)
	case p.BollingerK < 0:
		return fmt.Errorf("%w: bollinger k %.2f < 0", ErrInvalidParams, p.BollingerK)
	case p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0:
		return fmt.Errorf("%w: macd spans %d/%d/%d", ErrInvalidParams, p.MACDFast, p.MACDSlow, p.MACDSignal)
	case p.RSIWindow <= 0:
		return fmt.Errorf("%w: rsi window %d", ErrInvalidParams, p.RSIWindow)
	}
	return nil
}

// Compute derives the full IndicatorSet for a series. Points before the
// Bollinger window fills are kept with BandsReady=false.
func Compute(series *model.PriceSeries, p Params) (*model.IndicatorSet, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if series.Len() < MinHistory {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientHistory, series.Len(), MinHistory)
	}

	closes := series.Closes()
	mid, upper, lower := Bollinger(closes, p.BollingerWindow, p.BollingerK)
	rsi := RSI(closes, p.RSIWindow)
	macd, signal := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)

	set := &model.IndicatorSet{
		Symbol: series.Symbol,
		Points: make([]model.IndicatorPoint, len(closes)),
	}
	for i, bar := range series.Bars {
		set.Points[i] = model.IndicatorPoint{
			Date:       bar.Date,
			Close:      bar.Close,
			Mid:        mid[i],
			Upper:      upper[i],
			Lower:      lower[i],
			BandsReady: !math.IsNaN(mid[i]) && !math.IsNaN(upper[i]) && !math.IsNaN(lower[i]),
			RSI:        rsi[i],
			MACD:       macd[i],
			Signal:     signal[i],
		}
	}
	return set, nil
}
