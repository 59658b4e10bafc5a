package telegram

import (
	"errors"
	"fmt"
	"testing"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/repository"
	"stock-backtest/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBacktestArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    dto.BacktestRequest
		wantErr bool
	}{
		{
			name: "symbol only",
			args: []string{"nvda"},
			want: dto.BacktestRequest{Symbol: "NVDA"},
		},
		{
			name: "all options",
			args: []string{"bbca", "5/20", "0.2%", "norsi", "6m", "idx"},
			want: dto.BacktestRequest{
				Symbol:   "BBCA",
				Exchange: "IDX",
				Range:    "6m",
				Params: dto.BacktestParams{
					ShortWindow:  utils.ToPointer(5),
					LongWindow:   utils.ToPointer(20),
					CostRate:     utils.ToPointer(0.002),
					UseRSIFilter: utils.ToPointer(false),
				},
			},
		},
		{
			name: "options in any order",
			args: []string{"AAPL", "RSI", "2y", "10/30"},
			want: dto.BacktestRequest{
				Symbol: "AAPL",
				Range:  "2y",
				Params: dto.BacktestParams{
					ShortWindow:  utils.ToPointer(10),
					LongWindow:   utils.ToPointer(30),
					UseRSIFilter: utils.ToPointer(true),
				},
			},
		},
		{name: "missing symbol", args: nil, wantErr: true},
		{name: "bare number", args: []string{"NVDA", "5"}, wantErr: true},
		{name: "separate windows", args: []string{"NVDA", "5", "20"}, wantErr: true},
		{name: "zero window", args: []string{"NVDA", "0/20"}, wantErr: true},
		{name: "three windows", args: []string{"NVDA", "5/20/60"}, wantErr: true},
		{name: "non numeric window", args: []string{"NVDA", "a/20"}, wantErr: true},
		{name: "bad cost", args: []string{"NVDA", "abc%"}, wantErr: true},
		{name: "unknown word", args: []string{"NVDA", "fast"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBacktestArgs(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Symbol, got.Symbol)
			assert.Equal(t, tt.want.Exchange, got.Exchange)
			assert.Equal(t, tt.want.Range, got.Range)
			assert.Equal(t, tt.want.Params.ShortWindow, got.Params.ShortWindow)
			assert.Equal(t, tt.want.Params.LongWindow, got.Params.LongWindow)
			assert.Equal(t, tt.want.Params.UseRSIFilter, got.Params.UseRSIFilter)
			if tt.want.Params.CostRate == nil {
				assert.Nil(t, got.Params.CostRate)
			} else {
				require.NotNil(t, got.Params.CostRate)
				assert.InDelta(t, *tt.want.Params.CostRate, *got.Params.CostRate, 1e-12)
			}
		})
	}
}

func TestParseCompareArgs(t *testing.T) {
	got, err := ParseCompareArgs([]string{"nvda,aapl", "msft", "1y", "nasdaq"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, got.Symbols)
	assert.Equal(t, "1y", got.Range)
	assert.Equal(t, "NASDAQ", got.Exchange)

	got, err = ParseCompareArgs([]string{"2330", "2317", "10/30"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"2330", "2317"}, got.Symbols, "numeric tickers stay symbols")
	assert.Equal(t, utils.ToPointer(10), got.Params.ShortWindow)
	assert.Equal(t, utils.ToPointer(30), got.Params.LongWindow)

	_, err = ParseCompareArgs([]string{"NVDA"}, 5)
	assert.ErrorIs(t, err, errUsage)

	_, err = ParseCompareArgs([]string{"A,B,C"}, 2)
	assert.ErrorIs(t, err, errUsage)

	_, err = ParseCompareArgs(nil, 5)
	assert.ErrorIs(t, err, errUsage)
}

func TestUserErrorMessage(t *testing.T) {
	assert.Contains(t, userErrorMessage(fmt.Errorf("x: %w", repository.ErrSymbolNotFound)), "not found")
	assert.Contains(t, userErrorMessage(fmt.Errorf("x: %w", engine.ErrInsufficientData)), "Not enough")
	assert.Contains(t, userErrorMessage(fmt.Errorf("%w: short window 30 must be less than long window 10", engine.ErrInvalidParameter)), "short window 30")
	assert.Equal(t, commonErrorInternal, userErrorMessage(errors.New("dial tcp: i/o timeout")))
}
