package calculator

// MACD returns the fast-minus-slow EMA line and its signal EMA.
func MACD(prices []float64, fast, slow, signal int) (macd, signalLine []float64) {
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	macd = make([]float64, len(prices))
	for i := range prices {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macd, signal)
	return macd, signalLine
}
