package calculator

import "math"

// StdDev computes the trailing sample standard deviation (n-1 divisor) of
// values over window. Entries before the first full window are NaN, and so
// is every entry when window is 1. A window of identical values has a
// deviation of exactly 0.
func StdDev(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 1 {
		return out
	}
	mean := SMA(values, window)
	runs := equalRuns(values)
	for i := window - 1; i < len(values); i++ {
		if runs[i] >= window {
			out[i] = 0
			continue
		}
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// Bollinger computes bands k sample standard deviations around the
// window-bar SMA of closes.
func Bollinger(closes []float64, window int, k float64) (lower, middle, upper []float64) {
	middle = SMA(closes, window)
	sd := StdDev(closes, window)

	lower = make([]float64, len(closes))
	upper = make([]float64, len(closes))
	for i := range closes {
		lower[i] = middle[i] - k*sd[i]
		upper[i] = middle[i] + k*sd[i]
	}
	return lower, middle, upper
}
