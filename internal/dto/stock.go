package dto

import (
	"time"

	"stock-backtest/internal/engine"
)

type StockOHLCV struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

type StockData struct {
	Symbol      string       `json:"symbol"`
	MarketPrice float64      `json:"market_price"`
	Range       string       `json:"range"`
	Interval    string       `json:"interval"`
	Source      string       `json:"source"`
	OHLCV       []StockOHLCV `json:"ohlc"`
}

// PricePoints converts the bars to the engine's close-only series.
func (d *StockData) PricePoints() []engine.PricePoint {
	points := make([]engine.PricePoint, 0, len(d.OHLCV))
	for _, bar := range d.OHLCV {
		points = append(points, engine.PricePoint{
			Timestamp: time.Unix(bar.Timestamp, 0).UTC(),
			Close:     bar.Close,
		})
	}
	return points
}

type GetStockDataParam struct {
	StockCode string `json:"stock_code"`
	Exchange  string `json:"exchange"`
	Range     string `json:"range"`
	Interval  string `json:"interval"`
}

// Yahoo Finance API Response
type YahooFinanceResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooFinanceError `json:"error"`
	} `json:"chart"`
}

type YahooFinanceError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
