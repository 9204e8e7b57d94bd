package calculator

// RSI computes the relative strength index of closes over period.
//
// Average gain and loss are plain trailing means of the last period deltas,
// not Wilder-smoothed. A window with losses of zero yields RS=+Inf and
// RSI=100; a window with no movement at all yields 0/0 and stays NaN.
// The first period entries are NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for t := 1; t < len(closes); t++ {
		delta := closes[t] - closes[t-1]
		if delta > 0 {
			gains[t] = delta
		} else if delta < 0 {
			losses[t] = -delta
		}
	}

	for t := period; t < len(closes); t++ {
		var gainSum, lossSum float64
		for k := t - period + 1; k <= t; k++ {
			gainSum += gains[k]
			lossSum += losses[k]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		rs := avgGain / avgLoss
		out[t] = 100 - 100/(1+rs)
	}
	return out
}
