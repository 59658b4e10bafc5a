package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"stock-backtest/internal/engine"
	"stock-backtest/pkg/utils"
)

var seriesHeader = []string{
	"date", "close", "short_ma", "long_ma", "rsi",
	"base_signal", "signal", "trade",
	"market_return", "strategy_return", "market_account", "strategy_account",
	"peak", "drawdown",
}

// WriteSeriesCSV writes one row per bar with every derived series, for
// charting outside this program. Undefined values are left empty.
func WriteSeriesCSV(w io.Writer, r *engine.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	s := r.Series
	for i := range r.Close {
		row := []string{
			r.Timestamps[i].Format(utils.DateLayout),
			formatCell(r.Close[i]),
			formatCell(s.ShortMA[i]),
			formatCell(s.LongMA[i]),
			formatCell(s.RSI[i]),
			strconv.Itoa(s.BaseSignal[i]),
			strconv.Itoa(s.Signal[i]),
			strconv.Itoa(s.Trade[i]),
			formatCell(s.MarketReturn[i]),
			formatCell(s.StrategyReturn[i]),
			formatCell(s.MarketAccount[i]),
			formatCell(s.StrategyAccount[i]),
			formatCell(s.Peak[i]),
			formatCell(s.Drawdown[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
