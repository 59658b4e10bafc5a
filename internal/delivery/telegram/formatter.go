package telegram

import (
	"fmt"
	"strings"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/pkg/utils"
)

func esc(format string, args ...interface{}) string {
	return utils.EscapeMarkdownV2(fmt.Sprintf(format, args...))
}

func describeParams(p engine.Params) string {
	rsi := "RSI filter off"
	if p.UseRSIFilter {
		rsi = fmt.Sprintf("RSI(%d) below %.0f", p.RSIWindow, p.RSICeiling)
	}
	return fmt.Sprintf("MA %d/%d · cost %.2f%% · %s", p.ShortWindow, p.LongWindow, p.CostRate*100, rsi)
}

// FormatBacktestMessage renders a single run as a MarkdownV2 message.
func FormatBacktestMessage(resp *dto.BacktestResponse) string {
	s := resp.Summary

	position := "out of the market"
	if s.InPosition {
		position = "holding"
	}
	lastRSI := "n/a"
	if s.LastRSI != nil {
		lastRSI = fmt.Sprintf("%.2f", *s.LastRSI)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%s* %s\n", esc("Backtest %s", resp.Symbol), esc("(%s, %s)", resp.Exchange, resp.Range)))
	sb.WriteString(esc("%s → %s · %d bars\n", utils.PrettyDate(resp.StartDate), utils.PrettyDate(resp.EndDate), resp.Bars))
	sb.WriteString(esc("%s\n\n", describeParams(resp.Params)))

	sb.WriteString(esc("💰 Final value: %s (market %s)\n", utils.FormatMoney(s.FinalValue), utils.FormatMoney(s.MarketFinalValue)))
	sb.WriteString(esc("📈 ROI: %s vs market %s\n", utils.FormatPercentage(s.ROI), utils.FormatPercentage(s.MarketROI)))
	sb.WriteString(esc("➕ Excess return: %s\n", utils.FormatPercentage(s.ExcessROI)))
	sb.WriteString(esc("📉 Max drawdown: %s\n", utils.FormatPercentage(s.MaxDrawdown)))
	sb.WriteString(esc("🔁 Trades: %d\n", s.TradeCount))
	sb.WriteString(esc("📍 Position: %s\n", position))
	sb.WriteString(esc("🌡 Last RSI: %s", lastRSI))
	return sb.String()
}

// FormatCompareMessage renders a ranked batch as a MarkdownV2 message.
func FormatCompareMessage(resp *dto.BatchBacktestResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏁 *Comparison* %s\n", esc("(%s, %s)", resp.Exchange, resp.Range)))
	sb.WriteString(esc("%s\n\n", describeParams(resp.Params)))

	for _, item := range resp.Results {
		if item.Summary == nil {
			sb.WriteString(esc("❌ %s: %s\n", item.Symbol, item.Error))
			continue
		}
		medal := fmt.Sprintf("%d.", item.Rank)
		switch item.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		sb.WriteString(fmt.Sprintf("%s *%s* ", esc(medal), esc(item.Symbol)))
		sb.WriteString(esc("ROI %s · market %s · MDD %s · %d trades\n",
			utils.FormatPercentage(item.Summary.ROI),
			utils.FormatPercentage(item.Summary.MarketROI),
			utils.FormatPercentage(item.Summary.MaxDrawdown),
			item.Summary.TradeCount))
	}

	sb.WriteString(esc("\n%d succeeded, %d failed", resp.Succeeded, resp.Failed))
	return sb.String()
}
