package engine

import "time"

const (
	DefaultShortWindow    = 5
	DefaultLongWindow     = 20
	DefaultCostRate       = 0.002
	DefaultRSIWindow      = 14
	DefaultRSICeiling     = 70.0
	DefaultInitialCapital = 1_000_000.0

	// rsiEpsilon keeps gain/loss finite when a window has no losses.
	rsiEpsilon = 1e-9
)

// PricePoint is one daily close of a single symbol.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// Params fully determines one backtest run.
type Params struct {
	ShortWindow    int     `json:"short_window"`
	LongWindow     int     `json:"long_window"`
	CostRate       float64 `json:"cost_rate"` // fraction of position value per trade
	UseRSIFilter   bool    `json:"use_rsi_filter"`
	RSIWindow      int     `json:"rsi_window"`
	RSICeiling     float64 `json:"rsi_ceiling"`
	InitialCapital float64 `json:"initial_capital"`
}

func DefaultParams() Params {
	return Params{
		ShortWindow:    DefaultShortWindow,
		LongWindow:     DefaultLongWindow,
		CostRate:       DefaultCostRate,
		UseRSIFilter:   true,
		RSIWindow:      DefaultRSIWindow,
		RSICeiling:     DefaultRSICeiling,
		InitialCapital: DefaultInitialCapital,
	}
}

// Series holds every derived series, aligned one-to-one with the input prices.
// Undefined float entries are NaN.
type Series struct {
	ShortMA         []float64
	LongMA          []float64
	RSI             []float64
	BaseSignal      []int
	Signal          []int
	Trade           []int
	MarketReturn    []float64
	StrategyReturn  []float64
	MarketAccount   []float64
	StrategyAccount []float64
	Peak            []float64
	Drawdown        []float64
}

// Summary is the scalar reduction of a Series.
type Summary struct {
	FinalValue       float64
	MarketFinalValue float64
	ROI              float64
	MarketROI        float64
	ExcessROI        float64
	MaxDrawdown      float64
	TradeCount       int
	InPosition       bool
	LastRSI          float64
}

type Result struct {
	Params     Params
	Timestamps []time.Time
	Close      []float64
	Series     Series
	Summary    Summary
}
