package calculator

import "math"

// SMA computes the trailing simple moving average over `period` points.
// The result is aligned to the input; the first period-1 values are NaN.
func SMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period <= 0 {
		fillNaN(out)
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// RollingStd computes the trailing sample standard deviation (n-1 denominator).
// Values are NaN until the window has filled, and for windows smaller than 2.
func RollingStd(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period < 2 {
		fillNaN(out)
		return out
	}
	for i := range prices {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		window := prices[i-period+1 : i+1]
		mean := 0.0
		for _, p := range window {
			mean += p
		}
		mean /= float64(period)
		ss := 0.0
		for _, p := range window {
			d := p - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first price so every index has a value.
func EMA(prices []float64, span int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}
	if span <= 0 {
		fillNaN(out)
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}

func fillNaN(xs []float64) {
	for i := range xs {
		xs[i] = math.NaN()
	}
}
