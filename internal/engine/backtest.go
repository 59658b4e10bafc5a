package engine

import (
	"fmt"
	"math"
	"time"
)

// Run backtests the moving-average crossover strategy over prices.
//
// The pipeline is linear: moving averages and RSI, signals, trades, returns,
// account values, drawdown, summary. Run is pure: it never mutates prices and
// identical inputs produce bit-identical results. Errors are returned before
// any series is built.
func Run(prices []PricePoint, p Params) (*Result, error) {
	if p.RSIWindow == 0 {
		p.RSIWindow = DefaultRSIWindow
	}
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: got %d prices, need at least 2", ErrInsufficientData, len(prices))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	closes := Closes(prices)
	timestamps := make([]time.Time, len(prices))
	for i, pp := range prices {
		timestamps[i] = pp.Timestamp
	}

	var s Series
	s.ShortMA = MovingAverage(closes, p.ShortWindow)
	s.LongMA = MovingAverage(closes, p.LongWindow)
	s.RSI = RSI(closes, p.RSIWindow)
	s.BaseSignal, s.Signal = Signals(s.ShortMA, s.LongMA, s.RSI, p)
	s.Trade = Trades(s.Signal)
	s.MarketReturn = MarketReturns(closes)
	s.StrategyReturn = StrategyReturns(s.Signal, s.Trade, s.MarketReturn, p.CostRate)
	s.MarketAccount = Accumulate(p.InitialCapital, s.MarketReturn)
	s.StrategyAccount = Accumulate(p.InitialCapital, s.StrategyReturn)
	s.Peak, s.Drawdown = Drawdown(s.StrategyAccount)

	return &Result{
		Params:     p,
		Timestamps: timestamps,
		Close:      closes,
		Series:     s,
		Summary:    Summarize(p, s),
	}, nil
}

// MarketReturns returns close-to-close simple returns; the first entry is NaN.
func MarketReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(out) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(closes); i++ {
		out[i] = closes[i]/closes[i-1] - 1
	}
	return out
}

// StrategyReturns applies yesterday's position to today's market return and
// charges costRate on every bar where a trade occurs. Using signal[i] here
// instead of signal[i-1] would trade on information not yet available.
func StrategyReturns(signal, trade []int, marketReturn []float64, costRate float64) []float64 {
	out := make([]float64, len(marketReturn))
	if len(out) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(marketReturn); i++ {
		out[i] = float64(signal[i-1])*marketReturn[i] - float64(trade[i])*costRate
	}
	return out
}

// Accumulate compounds returns onto capital. NaN returns leave the value
// unchanged.
func Accumulate(capital float64, returns []float64) []float64 {
	out := make([]float64, len(returns))
	growth := 1.0
	for i, r := range returns {
		if !math.IsNaN(r) {
			growth *= 1 + r
		}
		out[i] = capital * growth
	}
	return out
}

// Drawdown returns the running peak of account and the fractional decline
// from it. Every drawdown entry is <= 0 and is exactly 0 at a new high.
func Drawdown(account []float64) (peak, drawdown []float64) {
	peak = make([]float64, len(account))
	drawdown = make([]float64, len(account))
	high := math.Inf(-1)
	for i, v := range account {
		if v > high {
			high = v
		}
		peak[i] = high
		drawdown[i] = (v - high) / high
	}
	return peak, drawdown
}

// Summarize reduces s to the figures reported for a run.
func Summarize(p Params, s Series) Summary {
	sum := Summary{
		FinalValue:       p.InitialCapital,
		MarketFinalValue: p.InitialCapital,
		LastRSI:          math.NaN(),
	}
	if n := len(s.StrategyAccount); n > 0 {
		sum.FinalValue = s.StrategyAccount[n-1]
	}
	if n := len(s.MarketAccount); n > 0 {
		sum.MarketFinalValue = s.MarketAccount[n-1]
	}
	if n := len(s.RSI); n > 0 {
		sum.LastRSI = s.RSI[n-1]
	}
	if n := len(s.Signal); n > 0 {
		sum.InPosition = s.Signal[n-1] == 1
	}

	sum.ROI = (sum.FinalValue/p.InitialCapital - 1) * 100
	sum.MarketROI = (sum.MarketFinalValue/p.InitialCapital - 1) * 100
	sum.ExcessROI = sum.ROI - sum.MarketROI

	for _, dd := range s.Drawdown {
		if dd*100 < sum.MaxDrawdown {
			sum.MaxDrawdown = dd * 100
		}
	}
	for _, t := range s.Trade {
		sum.TradeCount += t
	}
	return sum
}
