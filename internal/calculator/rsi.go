package calculator

// RSI computes the relative strength index for every point.
//
// Average gain and loss are plain rolling means over the trailing `period`
// deltas, accepting a shorter window at the head of the series. The first
// delta is taken as zero. When the average loss is exactly zero the RSI is
// defined as 100.
func RSI(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period <= 0 {
		fillNaN(out)
		return out
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := range prices {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		var sumGain, sumLoss float64
		for j := start; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		n := float64(i - start + 1)
		out[i] = rsiValue(sumGain/n, sumLoss/n)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
