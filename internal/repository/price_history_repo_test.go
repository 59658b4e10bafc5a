package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/pkg/cache"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPriceSource struct {
	mock.Mock
}

func (m *mockPriceSource) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	args := m.Called(ctx, param)
	data, _ := args.Get(0).(*dto.StockData)
	return data, args.Error(1)
}

func TestPriceHistoryRepository_CachesBySymbolAndRange(t *testing.T) {
	source := new(mockPriceSource)
	param := dto.GetStockDataParam{StockCode: "NVDA", Range: "1y"}
	source.On("Get", mock.Anything, param).Return(&dto.StockData{OHLCV: []dto.StockOHLCV{
		{Timestamp: 1704153600, Close: 100},
		{Timestamp: 1704240000, Close: 101},
	}}, nil).Once()

	repo := NewPriceHistoryRepository(source, "yahoo", cache.NewCache(time.Hour, time.Hour), time.Hour, metrics.NewNop(), logger.NewNop())

	first, err := repo.GetPrices(context.Background(), param)
	require.NoError(t, err)
	second, err := repo.GetPrices(context.Background(), param)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []float64{100, 101}, engine.Closes(second))
	source.AssertExpectations(t)
	assert.Equal(t, "yahoo", repo.Source())
}

func TestPriceHistoryRepository_NoDataIsInsufficient(t *testing.T) {
	source := new(mockPriceSource)
	source.On("Get", mock.Anything, mock.Anything).Return(nil, errors.Join(ErrNoPriceData, errors.New("empty"))).Once()

	repo := NewPriceHistoryRepository(source, "yahoo", cache.NewCache(time.Hour, time.Hour), time.Hour, metrics.NewNop(), logger.NewNop())
	_, err := repo.GetPrices(context.Background(), dto.GetStockDataParam{StockCode: "EMPTY", Range: "1m"})
	assert.ErrorIs(t, err, engine.ErrInsufficientData)
}

func TestPriceHistoryRepository_PassesOtherErrors(t *testing.T) {
	source := new(mockPriceSource)
	source.On("Get", mock.Anything, mock.Anything).Return(nil, ErrSymbolNotFound)

	repo := NewPriceHistoryRepository(source, "yahoo", cache.NewCache(time.Hour, time.Hour), time.Hour, metrics.NewNop(), logger.NewNop())
	_, err := repo.GetPrices(context.Background(), dto.GetStockDataParam{StockCode: "NOPE", Range: "1y"})
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.NotErrorIs(t, err, engine.ErrInsufficientData)
}

func TestPriceHistoryKey(t *testing.T) {
	assert.Equal(t, "price_history:yahoo:BBCA.JK:6m", PriceHistoryKey("yahoo", dto.GetStockDataParam{StockCode: "bbca", Exchange: "IDX", Range: "6m"}))
}
