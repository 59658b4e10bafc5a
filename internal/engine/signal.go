package engine

// Signals derives the crossover signal and the filtered signal actually
// traded. The base signal is 1 where the short MA is strictly above the long
// MA; comparisons against NaN are false and read as flat. With the RSI filter
// on, a long is kept only while RSI is below the ceiling, so the filter can
// only turn a long into flat and never the reverse.
func Signals(shortMA, longMA, rsi []float64, p Params) (base, filtered []int) {
	base = make([]int, len(shortMA))
	filtered = make([]int, len(shortMA))
	for i := range shortMA {
		if i < len(longMA) && shortMA[i] > longMA[i] {
			base[i] = 1
		}
		filtered[i] = base[i]
		if !p.UseRSIFilter || base[i] == 0 {
			continue
		}
		if i >= len(rsi) || !(rsi[i] < p.RSICeiling) {
			filtered[i] = 0
		}
	}
	return base, filtered
}

// Trades marks every position change. The first bar has nothing to compare
// against and is never a trade, even when the signal starts long.
func Trades(signal []int) []int {
	out := make([]int, len(signal))
	for i := 1; i < len(signal); i++ {
		if signal[i] != signal[i-1] {
			out[i] = 1
		}
	}
	return out
}
