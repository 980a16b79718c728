package calculator

// Bollinger returns the mid band (SMA) and the bands k sample standard
// deviations above and below it. All three are NaN until the window fills.
func Bollinger(prices []float64, window int, k float64) (mid, upper, lower []float64) {
	mid = SMA(prices, window)
	std := RollingStd(prices, window)
	upper = make([]float64, len(prices))
	lower = make([]float64, len(prices))
	for i := range prices {
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return mid, upper, lower
}
