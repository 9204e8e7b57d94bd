package calculator

// MACD returns the MACD line, its signal line and the histogram for closes.
// The line is EMA(fast) - EMA(slow), the signal is EMA(line, signal), and
// all three are defined from the first bar because EMA is.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig = EMA(line, signal)

	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}
