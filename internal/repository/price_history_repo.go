package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/pkg/cache"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"
)

// PriceHistoryRepository returns close series ready for the engine, cached
// per symbol and range.
type PriceHistoryRepository interface {
	GetPrices(ctx context.Context, param dto.GetStockDataParam) ([]engine.PricePoint, error)
	Source() string
}

type priceHistoryRepository struct {
	source     PriceSource
	sourceName string
	cache      cache.Cache
	ttl        time.Duration
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func NewPriceHistoryRepository(source PriceSource, sourceName string, c cache.Cache, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) PriceHistoryRepository {
	return &priceHistoryRepository{
		source:     source,
		sourceName: sourceName,
		cache:      c,
		ttl:        ttl,
		metrics:    m,
		log:        log,
	}
}

func PriceHistoryKey(source string, param dto.GetStockDataParam) string {
	return fmt.Sprintf(common.KEY_PRICE_HISTORY, source+":"+YahooSymbol(param.StockCode, param.Exchange), param.Range)
}

func (r *priceHistoryRepository) Source() string {
	return r.sourceName
}

func (r *priceHistoryRepository) GetPrices(ctx context.Context, param dto.GetStockDataParam) ([]engine.PricePoint, error) {
	key := PriceHistoryKey(r.sourceName, param)
	if cached, ok := cache.GetAs[[]engine.PricePoint](r.cache, key); ok {
		r.metrics.ObservePriceCache(true)
		return cached, nil
	}
	r.metrics.ObservePriceCache(false)

	start := time.Now()
	data, err := r.source.Get(ctx, param)
	r.metrics.ObservePriceFetch(r.sourceName, err, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrNoPriceData) {
			return nil, fmt.Errorf("%w: %v", engine.ErrInsufficientData, err)
		}
		return nil, err
	}

	prices := data.PricePoints()
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s", engine.ErrInsufficientData, param.StockCode)
	}

	r.cache.Set(key, prices, r.ttl)
	r.log.DebugContext(ctx, "Cached price history",
		logger.StringField("key", key),
		logger.IntField("bars", len(prices)),
		logger.DurationField("ttl", r.ttl))
	return prices, nil
}
