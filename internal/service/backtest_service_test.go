package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"stock-backtest/config"
	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/mocks"
	"stock-backtest/internal/model"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func testConfig() *config.Config {
	return &config.Config{Backtest: config.Backtest{
		ShortWindow:     5,
		LongWindow:      20,
		CostRate:        0.002,
		UseRSIFilter:    true,
		RSIWindow:       14,
		RSICeiling:      70,
		InitialCapital:  1_000_000,
		DefaultRange:    "1y",
		DefaultExchange: "NASDAQ",
		MaxConcurrency:  2,
		MaxBatchSymbols: 5,
		PersistRuns:     true,
	}}
}

func oscillating(n int) []engine.PricePoint {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]engine.PricePoint, n)
	for i := range out {
		out[i] = engine.PricePoint{
			Timestamp: day.AddDate(0, 0, i),
			Close:     100 + 10*math.Sin(2*math.Pi*float64(i)/20),
		}
	}
	return out
}

func rising(n int) []engine.PricePoint {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]engine.PricePoint, n)
	for i := range out {
		out[i] = engine.PricePoint{Timestamp: day.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return out
}

func newTestService(prices *mocks.PriceHistoryRepository, runs *mocks.BacktestRunRepository) *backtestService {
	svc := NewBacktestService(testConfig(), logger.NewNop(), goValidator.New(), prices, nil, metrics.NewNop()).(*backtestService)
	if runs != nil {
		svc.runRepo = runs
	}
	return svc
}

func TestBacktestService_RunBacktest(t *testing.T) {
	prices := new(mocks.PriceHistoryRepository)
	runs := new(mocks.BacktestRunRepository)
	input := oscillating(120)

	prices.On("GetPrices", mock.Anything, dto.GetStockDataParam{StockCode: "NVDA", Exchange: "NASDAQ", Range: "1y"}).Return(input, nil)
	runs.On("Create", mock.Anything, mock.MatchedBy(func(run *model.BacktestRun) bool {
		return run.Symbol == "NVDA" && run.Bars == 120 && run.Source == "mock" && run.PriceRange == "1y"
	})).Return(nil)

	svc := newTestService(prices, runs)
	resp, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{Symbol: " nvda ", IncludeSeries: true})
	require.NoError(t, err)

	want, err := engine.Run(input, DefaultParams(testConfig().Backtest))
	require.NoError(t, err)

	_, err = uuid.Parse(resp.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "NVDA", resp.Symbol)
	assert.Equal(t, 120, resp.Bars)
	assert.Equal(t, input[0].Timestamp, resp.StartDate)
	assert.Equal(t, input[119].Timestamp, resp.EndDate)
	assert.Equal(t, dto.NewSummaryResponse(want.Summary), resp.Summary)
	require.NotNil(t, resp.Series)
	assert.Len(t, resp.Series.Signal, 120)

	prices.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func TestBacktestService_RunBacktest_PresetAndOverrides(t *testing.T) {
	prices := new(mocks.PriceHistoryRepository)
	prices.On("GetPrices", mock.Anything, mock.Anything).Return(rising(80), nil)

	svc := newTestService(prices, nil)
	off := false
	resp, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		Symbol: "BBCA", Exchange: "IDX", Range: "6m", Preset: dto.PresetMidTerm,
		Params: dto.BacktestParams{UseRSIFilter: &off},
	})
	require.NoError(t, err)

	assert.Equal(t, 20, resp.Params.ShortWindow)
	assert.Equal(t, 60, resp.Params.LongWindow)
	assert.False(t, resp.Params.UseRSIFilter)
	assert.Nil(t, resp.Series)
	assert.True(t, resp.Summary.InPosition)
	assert.Equal(t, 1, resp.Summary.TradeCount)
}

func TestBacktestService_RunBacktest_Errors(t *testing.T) {
	short, long := 30, 10
	negative := -0.1

	tests := []struct {
		name    string
		req     dto.BacktestRequest
		prices  []engine.PricePoint
		fetch   error
		wantErr error
	}{
		{name: "missing symbol", req: dto.BacktestRequest{}, wantErr: ErrInvalidRequest},
		{name: "unknown range", req: dto.BacktestRequest{Symbol: "NVDA", Range: "10y"}, wantErr: ErrInvalidRequest},
		{name: "short not below long", req: dto.BacktestRequest{Symbol: "NVDA", Params: dto.BacktestParams{ShortWindow: &short, LongWindow: &long}}, wantErr: engine.ErrInvalidParameter},
		{name: "negative cost", req: dto.BacktestRequest{Symbol: "NVDA", Params: dto.BacktestParams{CostRate: &negative}}, wantErr: ErrInvalidRequest},
		{name: "single price", req: dto.BacktestRequest{Symbol: "NVDA"}, prices: rising(1), wantErr: engine.ErrInsufficientData},
		{name: "no history", req: dto.BacktestRequest{Symbol: "NVDA"}, fetch: fmt.Errorf("%w: empty", engine.ErrInsufficientData), wantErr: engine.ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := new(mocks.PriceHistoryRepository)
			prices.On("GetPrices", mock.Anything, mock.Anything).Return(tt.prices, tt.fetch)

			_, err := newTestService(prices, nil).RunBacktest(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestBacktestService_RunBacktest_PersistFailureIsNotFatal(t *testing.T) {
	prices := new(mocks.PriceHistoryRepository)
	runs := new(mocks.BacktestRunRepository)
	prices.On("GetPrices", mock.Anything, mock.Anything).Return(rising(30), nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	resp, err := newTestService(prices, runs).RunBacktest(context.Background(), dto.BacktestRequest{Symbol: "NVDA"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	runs.AssertNumberOfCalls(t, "Create", 1)
}

type concurrencyProbe struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (p *concurrencyProbe) enter() {
	p.mu.Lock()
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	p.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
}

func TestBacktestService_RunBatch(t *testing.T) {
	prices := new(mocks.PriceHistoryRepository)
	probe := &concurrencyProbe{}

	up := rising(60)
	down := make([]engine.PricePoint, 60)
	for i := range down {
		down[i] = engine.PricePoint{Timestamp: up[i].Timestamp, Close: 200 - float64(i)}
	}

	for symbol, series := range map[string][]engine.PricePoint{"UP": up, "DOWN": down, "WAVE": oscillating(60)} {
		symbol, series := symbol, series
		prices.On("GetPrices", mock.Anything, mock.MatchedBy(func(p dto.GetStockDataParam) bool { return p.StockCode == symbol })).
			Run(func(mock.Arguments) { probe.enter() }).
			Return(series, nil)
	}
	prices.On("GetPrices", mock.Anything, mock.MatchedBy(func(p dto.GetStockDataParam) bool { return p.StockCode == "GONE" })).
		Return(nil, errors.New("symbol not found"))

	off := false
	svc := newTestService(prices, nil)
	resp, err := svc.RunBatch(context.Background(), dto.BatchBacktestRequest{
		Symbols: []string{"down", "UP", "gone", "wave", "up"},
		Params:  dto.BacktestParams{UseRSIFilter: &off},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 4)

	for i := 0; i < 3; i++ {
		assert.Equal(t, i+1, resp.Results[i].Rank)
		require.NotNil(t, resp.Results[i].Summary)
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Results[i-1].Summary.ROI, resp.Results[i].Summary.ROI)
		}
	}
	assert.Equal(t, "UP", resp.Results[0].Symbol)
	assert.Equal(t, "GONE", resp.Results[3].Symbol)
	assert.Zero(t, resp.Results[3].Rank)
	assert.Contains(t, resp.Results[3].Error, "symbol not found")
	assert.LessOrEqual(t, probe.maxSeen, 2)
}

func TestBacktestService_RunBatch_Limits(t *testing.T) {
	svc := newTestService(new(mocks.PriceHistoryRepository), nil)

	_, err := svc.RunBatch(context.Background(), dto.BatchBacktestRequest{Symbols: []string{"A", "B", "C", "D", "E", "F"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.RunBatch(context.Background(), dto.BatchBacktestRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func backtestRunsWithStatus(t *testing.T, m *metrics.Metrics, status string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if !strings.HasSuffix(family.GetName(), "backtest_runs_total") {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "status" && label.GetValue() == status {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestBacktestService_InvalidParametersAreCounted(t *testing.T) {
	short, long := 30, 10
	params := dto.BacktestParams{ShortWindow: &short, LongWindow: &long}

	prices := new(mocks.PriceHistoryRepository)
	svc := newTestService(prices, nil)

	_, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{Symbol: "NVDA", Params: params})
	require.ErrorIs(t, err, engine.ErrInvalidParameter)
	assert.Equal(t, 1.0, backtestRunsWithStatus(t, svc.metrics, metrics.StatusInvalidParameter))

	_, err = svc.RunBatch(context.Background(), dto.BatchBacktestRequest{Symbols: []string{"NVDA", "AAPL"}, Params: params})
	require.ErrorIs(t, err, engine.ErrInvalidParameter)
	assert.Equal(t, 2.0, backtestRunsWithStatus(t, svc.metrics, metrics.StatusInvalidParameter))
	prices.AssertNotCalled(t, "GetPrices", mock.Anything, mock.Anything)
}

func TestRankBatch(t *testing.T) {
	items := []dto.BatchBacktestItem{
		{Symbol: "C", Error: "boom"},
		{Symbol: "B", Summary: &dto.SummaryResponse{ROI: 1}},
		{Symbol: "A", Summary: &dto.SummaryResponse{ROI: 1}},
		{Symbol: "D", Summary: &dto.SummaryResponse{ROI: 7}},
	}
	ranked := RankBatch(items)

	var order []string
	for _, it := range ranked {
		order = append(order, it.Symbol)
	}
	assert.Equal(t, []string{"D", "A", "B", "C"}, order)
	assert.Equal(t, []int{1, 2, 3, 0}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank, ranked[3].Rank})
	assert.Equal(t, "C", items[0].Symbol, "input must not be reordered")
}

func TestBacktestService_ListRuns(t *testing.T) {
	runs := new(mocks.BacktestRunRepository)
	id := uuid.New()
	runs.On("List", mock.Anything, model.GetBacktestRunParam{Symbol: "NVDA", Limit: 10}).Return([]model.BacktestRun{{
		RunID:  id,
		Symbol: "NVDA",
		Params: datatypes.JSON(`{"short_window":5,"long_window":20}`),
		ROI:    12.5,
	}}, nil)

	out, err := newTestService(new(mocks.PriceHistoryRepository), runs).ListRuns(context.Background(), dto.ListBacktestRunsParam{Symbol: "nvda", Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, id.String(), out[0].RunID)
	assert.Equal(t, 20, out[0].Params.LongWindow)
	assert.Nil(t, out[0].LastRSI)

	empty, err := newTestService(new(mocks.PriceHistoryRepository), nil).ListRuns(context.Background(), dto.ListBacktestRunsParam{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = newTestService(new(mocks.PriceHistoryRepository), nil).ListRuns(context.Background(), dto.ListBacktestRunsParam{Limit: 1000})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestNewBacktestRun(t *testing.T) {
	result, err := engine.Run(rising(3), engine.Params{ShortWindow: 1, LongWindow: 2, InitialCapital: 100})
	require.NoError(t, err)

	run, err := newBacktestRun(&dto.BacktestResponse{RunID: uuid.NewString(), Symbol: "X", Params: result.Params, Result: result})
	require.NoError(t, err)
	assert.False(t, run.LastRSI.Valid)
	assert.JSONEq(t, `{"short_window":1,"long_window":2,"cost_rate":0,"use_rsi_filter":false,"rsi_window":14,"rsi_ceiling":0,"initial_capital":100}`, string(run.Params))

	_, err = newBacktestRun(&dto.BacktestResponse{RunID: "nope", Result: result})
	assert.Error(t, err)
}
