package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stock-backtest/config"
	"stock-backtest/internal/dto"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/httpclient"
	"stock-backtest/pkg/logger"

	"golang.org/x/time/rate"
)

const defaultInterval = "1d"

// PriceSource returns daily bars for one symbol.
type PriceSource interface {
	Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error)
}

type YahooFinanceRepository interface {
	PriceSource
}

type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	now            func() time.Time
}

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	perMinute := cfg.YahooFinance.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	requestLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)

	client := httpclient.New(cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout,
		httpclient.WithRetry(cfg.YahooFinance.RetryCount, cfg.YahooFinance.RetryWait),
		httpclient.WithHeaders(map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
			"Accept-Language": "en-US,en;q=0.9",
			"Referer":         "https://finance.yahoo.com/",
		}),
	)

	return &yahooFinanceRepository{
		httpClient:     client,
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		now:            time.Now,
	}
}

// YahooSymbol maps an exchange-local code to the ticker Yahoo expects.
func YahooSymbol(stockCode, exchange string) string {
	code := strings.ToUpper(strings.TrimSpace(stockCode))
	if strings.EqualFold(exchange, common.EXCHANGE_IDX) && !strings.HasSuffix(code, ".JK") {
		return code + ".JK"
	}
	return code
}

func (r *yahooFinanceRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	period1, period2, err := PeriodRange(param.Range, r.now())
	if err != nil {
		return nil, err
	}

	if r.requestLimiter.Tokens() < 1 {
		r.logger.DebugContext(ctx, "Waiting for Yahoo Finance request budget",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute))
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo finance rate limit: %w", err)
	}

	symbol := YahooSymbol(param.StockCode, param.Exchange)
	interval := param.Interval
	if interval == "" {
		interval = defaultInterval
	}

	queryParams := map[string]string{
		"period1":              fmt.Sprintf("%d", period1.Unix()),
		"period2":              fmt.Sprintf("%d", period2.Unix()),
		"interval":             interval,
		"includePrePost":       "false",
		"events":               "div,split",
		"includeAdjustedClose": "true",
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.httpClient.Get(ctx, "/"+symbol, queryParams, nil, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned non-OK status",
			logger.StringField("symbol", symbol),
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		if yahooResp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo finance api error: %s: %s", yahooResp.Chart.Error.Code, yahooResp.Chart.Error.Description)
	}

	if len(yahooResp.Chart.Result) == 0 || len(yahooResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no quote returned for %s", ErrNoPriceData, symbol)
	}

	result := yahooResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adjClose []float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	var ohlcvData []dto.StockOHLCV
	for i, timestamp := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}

		// Yahoo sends null for halted or not-yet-settled bars; they decode as 0.
		if quote.Open[i] == 0 || quote.High[i] == 0 || quote.Low[i] == 0 || quote.Close[i] == 0 {
			continue
		}

		ohlcvData = append(ohlcvData, adjustBar(dto.StockOHLCV{
			Timestamp: timestamp,
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		}, adjClose, i))
	}

	if len(ohlcvData) == 0 {
		return nil, fmt.Errorf("%w: no valid bars for %s", ErrNoPriceData, symbol)
	}

	return &dto.StockData{
		Symbol:      symbol,
		MarketPrice: result.Meta.RegularMarketPrice,
		OHLCV:       ohlcvData,
		Range:       param.Range,
		Interval:    interval,
		Source:      common.SOURCE_YAHOO,
	}, nil
}

// PeriodRange converts a range code into a [from, to] window ending at now.
func PeriodRange(periode string, now time.Time) (time.Time, time.Time, error) {
	switch periode {
	case common.RANGE_1M:
		return now.AddDate(0, -1, 0), now, nil
	case common.RANGE_3M:
		return now.AddDate(0, -3, 0), now, nil
	case common.RANGE_6M:
		return now.AddDate(0, -6, 0), now, nil
	case common.RANGE_1Y, "":
		return now.AddDate(-1, 0, 0), now, nil
	case common.RANGE_2Y:
		return now.AddDate(-2, 0, 0), now, nil
	case common.RANGE_5Y:
		return now.AddDate(-5, 0, 0), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRange, periode)
	}
}

// adjustBar rescales a bar to the dividend and split adjusted close when
// Yahoo supplies one for index i; otherwise the raw bar is kept.
func adjustBar(bar dto.StockOHLCV, adjClose []float64, i int) dto.StockOHLCV {
	if i >= len(adjClose) || adjClose[i] == 0 {
		return bar
	}
	ratio := adjClose[i] / bar.Close
	bar.Open *= ratio
	bar.High *= ratio
	bar.Low *= ratio
	bar.Close = adjClose[i]
	return bar
}
