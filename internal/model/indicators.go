package model

import "time"

// IndicatorPoint holds every derived value for one date.
// Mid/Upper/Lower are NaN until the Bollinger window has filled (BandsReady=false).
type IndicatorPoint struct {
	Date       time.Time
	Close      float64
	Mid        float64
	Upper      float64
	Lower      float64
	BandsReady bool
	RSI        float64
	MACD       float64
	Signal     float64
}

// IndicatorSet is aligned 1:1 with the PriceSeries it was computed from.
type IndicatorSet struct {
	Symbol string
	Points []IndicatorPoint
}

// Latest returns the most recent point. ok is false for an empty set.
func (s *IndicatorSet) Latest() (p IndicatorPoint, ok bool) {
	if s == nil || len(s.Points) == 0 {
		return IndicatorPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}
