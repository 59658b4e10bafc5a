package engine

import "math"

// MovingAverage returns the trailing arithmetic mean over window prices,
// aligned to the input with NaN for the first window-1 entries. A window
// longer than the input yields an all-NaN series. Each window is summed
// afresh so rounding never carries over, and a window of equal values
// averages to exactly that value.
func MovingAverage(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	if window <= 0 {
		fillNaN(out)
		return out
	}

	equalRun := 0
	for i := range prices {
		if i > 0 && prices[i] == prices[i-1] {
			equalRun++
		} else {
			equalRun = 1
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		if equalRun >= window {
			out[i] = prices[i]
			continue
		}

		var sum float64
		for _, v := range prices[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// RSI returns the relative strength index using simple rolling means of
// gains and losses. The first delta is undefined and counts as neither gain
// nor loss, so the series is defined from index window-1 onwards. Losses are
// offset by a small epsilon; a window without any movement therefore reads 0.
func RSI(prices []float64, window int) []float64 {
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}

	avgGain := MovingAverage(gains, window)
	avgLoss := MovingAverage(losses, window)

	out := make([]float64, len(prices))
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			out[i] = math.NaN()
			continue
		}
		rs := avgGain[i] / (avgLoss[i] + rsiEpsilon)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Closes extracts the close prices of a price series.
func Closes(prices []PricePoint) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

func fillNaN(xs []float64) {
	for i := range xs {
		xs[i] = math.NaN()
	}
}
