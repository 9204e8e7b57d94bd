package calculator

import "math"

// nanSeries returns a slice of n NaNs, the "undefined" marker for every
// indicator column.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// equalRuns returns, for each index, how many consecutive values ending
// there are identical to it.
func equalRuns(values []float64) []int {
	runs := make([]int, len(values))
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			runs[i] = runs[i-1] + 1
		} else {
			runs[i] = 1
		}
	}
	return runs
}

// compensatedSum adds xs with Neumaier compensation.
func compensatedSum(xs []float64) float64 {
	var sum, comp float64
	for _, x := range xs {
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			comp += (sum - t) + x
		} else {
			comp += (x - t) + sum
		}
		sum = t
	}
	return sum + comp
}

// SMA computes the trailing simple moving average of values over window.
// Entries before the first full window are NaN. A window of identical
// values averages to exactly that value.
func SMA(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 {
		return out
	}
	runs := equalRuns(values)
	for i := window - 1; i < len(values); i++ {
		if runs[i] >= window {
			out[i] = values[i]
			continue
		}
		out[i] = compensatedSum(values[i-window+1:i+1]) / float64(window)
	}
	return out
}

// EMA computes the exponential moving average of values for the given span
// using the adjusted (weighted-average) form:
//
//	ema[t] = Σ (1-α)^k·x[t-k] / Σ (1-α)^k,  k = 0..t,  α = 2/(span+1)
//
// It is updated incrementally as a running weighted mean, which leaves the
// average untouched while new observations equal it. Unlike a seeded
// recursive EMA it is defined from the first observation, where it equals
// values[0].
func EMA(values []float64, span int) []float64 {
	out := nanSeries(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	decay := 1 - 2.0/float64(span+1)

	avg, weight := values[0], 1.0
	out[0] = avg
	for i := 1; i < len(values); i++ {
		x := values[i]
		weight *= decay
		if avg != x {
			avg = (weight*avg + x) / (weight + 1)
		}
		weight++
		out[i] = avg
	}
	return out
}
