package telegram

import (
	"database/sql"
	"testing"
	"time"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/model"
	"stock-backtest/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestFormatBacktestMessage(t *testing.T) {
	resp := &dto.BacktestResponse{
		Symbol:    "BBCA",
		Exchange:  "IDX",
		Range:     "1y",
		Bars:      243,
		StartDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
		Params:    engine.Params{ShortWindow: 5, LongWindow: 20, CostRate: 0.002, UseRSIFilter: true, RSIWindow: 14, RSICeiling: 70},
		Summary: dto.SummaryResponse{
			FinalValue:       1_234_567,
			MarketFinalValue: 1_100_000,
			ROI:              23.4567,
			MarketROI:        10,
			ExcessROI:        13.4567,
			MaxDrawdown:      -8.5,
			TradeCount:       12,
			InPosition:       true,
			LastRSI:          utils.ToPointer(54.321),
		},
	}

	msg := FormatBacktestMessage(resp)
	assert.Contains(t, msg, "*Backtest BBCA*")
	assert.Contains(t, msg, `\(IDX, 1y\)`)
	assert.Contains(t, msg, "1,234,567")
	assert.Contains(t, msg, `\+23\.46%`)
	assert.Contains(t, msg, `\-8\.50%`)
	assert.Contains(t, msg, "Trades: 12")
	assert.Contains(t, msg, "Position: holding")
	assert.Contains(t, msg, `Last RSI: 54\.32`)
	assert.Contains(t, msg, `RSI\(14\) below 70`)

	resp.Summary.LastRSI = nil
	resp.Summary.InPosition = false
	msg = FormatBacktestMessage(resp)
	assert.Contains(t, msg, "Last RSI: n/a")
	assert.Contains(t, msg, "out of the market")
}

func TestFormatCompareMessage(t *testing.T) {
	msg := FormatCompareMessage(&dto.BatchBacktestResponse{
		Exchange:  "NASDAQ",
		Range:     "6m",
		Params:    engine.Params{ShortWindow: 5, LongWindow: 20},
		Succeeded: 2,
		Failed:    1,
		Results: []dto.BatchBacktestItem{
			{Rank: 1, Symbol: "NVDA", Summary: &dto.SummaryResponse{ROI: 30, TradeCount: 3}},
			{Rank: 2, Symbol: "AAPL", Summary: &dto.SummaryResponse{ROI: -2}},
			{Symbol: "ZZZZ", Error: "symbol not found"},
		},
	})

	assert.Contains(t, msg, "🥇 *NVDA*")
	assert.Contains(t, msg, "🥈 *AAPL*")
	assert.Contains(t, msg, "❌ ZZZZ: symbol not found")
	assert.Contains(t, msg, "RSI filter off")
	assert.Contains(t, msg, "2 succeeded, 1 failed")
}

func TestFormatJobDetail(t *testing.T) {
	started := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	msg := FormatJobDetail(model.Job{
		Name: "Nightly <watchlist>",
		Schedules: []model.TaskSchedule{{
			CronExpression: "0 18 * * 1-5",
			LastExecution:  sql.NullTime{Time: started, Valid: true},
		}},
		Histories: []model.TaskExecutionHistory{
			{StartedAt: started, Status: model.StatusCompleted, CompletedAt: sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true}, ExitCode: sql.NullInt32{Int32: 200, Valid: true}},
			{StartedAt: started, Status: model.StatusRunning},
		},
	})

	assert.Contains(t, msg, "Nightly &lt;watchlist&gt;")
	assert.Contains(t, msg, "<code>0 18 * * 1-5</code>")
	assert.Contains(t, msg, "Last run : 10 Mar 2025 18:00")
	assert.Contains(t, msg, "Next run : not scheduled")
	assert.Contains(t, msg, "1. 🟢 03/10 18:00 - 200 | COMPLETED (1.5s)")
	assert.Contains(t, msg, "2. 🟡 03/10 18:00 - RUNNING")
}
