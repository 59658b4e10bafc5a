package dto

import (
	"time"

	"stock-backtest/internal/engine"
)

const (
	PresetShortTerm = "short_term"
	PresetMidTerm   = "mid_term"
	PresetCustom    = "custom"
)

// BacktestParams carries optional overrides. Nil fields fall back to the
// preset and then to the configured defaults.
type BacktestParams struct {
	ShortWindow    *int     `json:"short_window,omitempty" validate:"omitempty,gt=0"`
	LongWindow     *int     `json:"long_window,omitempty" validate:"omitempty,gt=0"`
	CostRate       *float64 `json:"cost_rate,omitempty" validate:"omitempty,gte=0,lt=1"`
	UseRSIFilter   *bool    `json:"use_rsi_filter,omitempty"`
	RSIWindow      *int     `json:"rsi_window,omitempty" validate:"omitempty,gte=0"`
	RSICeiling     *float64 `json:"rsi_ceiling,omitempty" validate:"omitempty,gt=0,lt=100"`
	InitialCapital *float64 `json:"initial_capital,omitempty" validate:"omitempty,gt=0"`
}

// PresetWindows returns the MA windows of a named preset.
func PresetWindows(preset string) (short, long int, ok bool) {
	switch preset {
	case PresetShortTerm:
		return 5, 20, true
	case PresetMidTerm:
		return 20, 60, true
	case PresetCustom:
		return 10, 30, true
	default:
		return 0, 0, false
	}
}

// Apply overlays the preset and the explicit overrides on base.
func (p BacktestParams) Apply(base engine.Params, preset string) engine.Params {
	if short, long, ok := PresetWindows(preset); ok {
		base.ShortWindow, base.LongWindow = short, long
	}
	if p.ShortWindow != nil {
		base.ShortWindow = *p.ShortWindow
	}
	if p.LongWindow != nil {
		base.LongWindow = *p.LongWindow
	}
	if p.CostRate != nil {
		base.CostRate = *p.CostRate
	}
	if p.UseRSIFilter != nil {
		base.UseRSIFilter = *p.UseRSIFilter
	}
	if p.RSIWindow != nil {
		base.RSIWindow = *p.RSIWindow
	}
	if p.RSICeiling != nil {
		base.RSICeiling = *p.RSICeiling
	}
	if p.InitialCapital != nil {
		base.InitialCapital = *p.InitialCapital
	}
	return base
}

type BacktestRequest struct {
	Symbol        string         `json:"symbol" validate:"required,max=32"`
	Exchange      string         `json:"exchange" validate:"omitempty,oneof=IDX NASDAQ NYSE"`
	Range         string         `json:"range" validate:"omitempty,oneof=1m 3m 6m 1y 2y 5y"`
	Preset        string         `json:"preset" validate:"omitempty,oneof=short_term mid_term custom"`
	Params        BacktestParams `json:"params"`
	IncludeSeries bool           `json:"include_series"`
}

type BatchBacktestRequest struct {
	Symbols  []string       `json:"symbols" validate:"required,min=1,dive,required,max=32"`
	Exchange string         `json:"exchange" validate:"omitempty,oneof=IDX NASDAQ NYSE"`
	Range    string         `json:"range" validate:"omitempty,oneof=1m 3m 6m 1y 2y 5y"`
	Preset   string         `json:"preset" validate:"omitempty,oneof=short_term mid_term custom"`
	Params   BacktestParams `json:"params"`
}

type SummaryResponse struct {
	FinalValue       float64  `json:"final_value"`
	MarketFinalValue float64  `json:"market_final_value"`
	ROI              float64  `json:"roi"`
	MarketROI        float64  `json:"market_roi"`
	ExcessROI        float64  `json:"excess_roi"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	TradeCount       int      `json:"trade_count"`
	InPosition       bool     `json:"in_position"`
	LastRSI          *float64 `json:"last_rsi"`
}

func NewSummaryResponse(s engine.Summary) SummaryResponse {
	return SummaryResponse{
		FinalValue:       s.FinalValue,
		MarketFinalValue: s.MarketFinalValue,
		ROI:              s.ROI,
		MarketROI:        s.MarketROI,
		ExcessROI:        s.ExcessROI,
		MaxDrawdown:      s.MaxDrawdown,
		TradeCount:       s.TradeCount,
		InPosition:       s.InPosition,
		LastRSI:          floatOrNil(s.LastRSI),
	}
}

type SeriesResponse struct {
	Timestamps      []time.Time    `json:"timestamps"`
	Close           NullableFloats `json:"close"`
	ShortMA         NullableFloats `json:"short_ma"`
	LongMA          NullableFloats `json:"long_ma"`
	RSI             NullableFloats `json:"rsi"`
	BaseSignal      []int          `json:"base_signal"`
	Signal          []int          `json:"signal"`
	Trade           []int          `json:"trade"`
	MarketReturn    NullableFloats `json:"market_return"`
	StrategyReturn  NullableFloats `json:"strategy_return"`
	MarketAccount   NullableFloats `json:"market_account"`
	StrategyAccount NullableFloats `json:"strategy_account"`
	Drawdown        NullableFloats `json:"drawdown"`
}

func NewSeriesResponse(r *engine.Result) *SeriesResponse {
	return &SeriesResponse{
		Timestamps:      r.Timestamps,
		Close:           r.Close,
		ShortMA:         r.Series.ShortMA,
		LongMA:          r.Series.LongMA,
		RSI:             r.Series.RSI,
		BaseSignal:      r.Series.BaseSignal,
		Signal:          r.Series.Signal,
		Trade:           r.Series.Trade,
		MarketReturn:    r.Series.MarketReturn,
		StrategyReturn:  r.Series.StrategyReturn,
		MarketAccount:   r.Series.MarketAccount,
		StrategyAccount: r.Series.StrategyAccount,
		Drawdown:        r.Series.Drawdown,
	}
}

type BacktestResponse struct {
	RunID     string          `json:"run_id"`
	Symbol    string          `json:"symbol"`
	Exchange  string          `json:"exchange"`
	Range     string          `json:"range"`
	Source    string          `json:"source"`
	Params    engine.Params   `json:"params"`
	Bars      int             `json:"bars"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Summary   SummaryResponse `json:"summary"`
	Series    *SeriesResponse `json:"series,omitempty"`

	// Result keeps the full engine output for in-process callers (CLI export).
	Result *engine.Result `json:"-"`
}

type BatchBacktestItem struct {
	Rank    int              `json:"rank,omitempty"`
	Symbol  string           `json:"symbol"`
	RunID   string           `json:"run_id,omitempty"`
	Bars    int              `json:"bars,omitempty"`
	Summary *SummaryResponse `json:"summary,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type BatchBacktestResponse struct {
	Exchange  string              `json:"exchange"`
	Range     string              `json:"range"`
	Params    engine.Params       `json:"params"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []BatchBacktestItem `json:"results"`
}

type ListBacktestRunsParam struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	Limit  int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=500"`
}

type BacktestRunResponse struct {
	RunID            string        `json:"run_id"`
	Symbol           string        `json:"symbol"`
	Exchange         string        `json:"exchange"`
	Range            string        `json:"range"`
	Source           string        `json:"source"`
	Params           engine.Params `json:"params"`
	Bars             int           `json:"bars"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	FinalValue       float64       `json:"final_value"`
	MarketFinalValue float64       `json:"market_final_value"`
	ROI              float64       `json:"roi"`
	MarketROI        float64       `json:"market_roi"`
	ExcessROI        float64       `json:"excess_roi"`
	MaxDrawdown      float64       `json:"max_drawdown"`
	TradeCount       int           `json:"trade_count"`
	InPosition       bool          `json:"in_position"`
	LastRSI          *float64      `json:"last_rsi"`
	CreatedAt        time.Time     `json:"created_at"`
}

type RunJobRequest struct {
	JobID *uint `json:"job_id"`
}
