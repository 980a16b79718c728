package model

import "time"

// PriceBar is a single daily close.
type PriceBar struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds the daily closes of one symbol, ascending by date.
type PriceSeries struct {
	Symbol    string
	Bars      []PriceBar
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes extracts the close prices in order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Last() (bar PriceBar, ok bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
