package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"stock-backtest/config"
	"stock-backtest/internal/dto"
	"stock-backtest/internal/service"
	"stock-backtest/pkg/cache"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"
	"stock-backtest/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

type backtestFlags struct {
	symbol     string
	exchange   string
	priceRange string
	preset     string
	short      int
	long       int
	cost       float64
	rsi        bool
	rsiWindow  int
	rsiCeiling float64
	capital    float64
	csvIn      string
	csvOut     string
	asJSON     bool
	verbose    bool
}

var btFlags backtestFlags

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a single backtest and print its summary",
	Example: `  stock-backtest backtest --symbol NVDA --range 1y --short 5 --long 20 --cost 0.002
  stock-backtest backtest --symbol BBCA --exchange IDX --rsi=false --csv-out bbca.csv
  stock-backtest backtest --symbol TEST --csv-in prices.csv`,
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVarP(&btFlags.symbol, "symbol", "s", "", "ticker to backtest")
	f.StringVarP(&btFlags.exchange, "exchange", "e", "", "exchange: IDX, NASDAQ or NYSE (default from config)")
	f.StringVarP(&btFlags.priceRange, "range", "r", "", "history range: 1m, 3m, 6m, 1y, 2y or 5y (default from config)")
	f.StringVar(&btFlags.preset, "preset", "", "window preset: short_term, mid_term or custom")
	f.IntVar(&btFlags.short, "short", 0, "short moving average window")
	f.IntVar(&btFlags.long, "long", 0, "long moving average window")
	f.Float64Var(&btFlags.cost, "cost", 0, "cost rate per position change, e.g. 0.002 for 0.2%")
	f.BoolVar(&btFlags.rsi, "rsi", true, "block entries while RSI is at or above the ceiling")
	f.IntVar(&btFlags.rsiWindow, "rsi-window", 0, "RSI lookback")
	f.Float64Var(&btFlags.rsiCeiling, "rsi-ceiling", 0, "RSI level that blocks entries")
	f.Float64Var(&btFlags.capital, "capital", 0, "initial capital")
	f.StringVar(&btFlags.csvIn, "csv-in", "", "read prices from a date,close CSV file instead of Yahoo Finance")
	f.StringVar(&btFlags.csvOut, "csv-out", "", "write every derived series to this CSV file")
	f.BoolVar(&btFlags.asJSON, "json", false, "print the result as JSON")
	f.BoolVarP(&btFlags.verbose, "verbose", "v", false, "log progress to stderr")
	_ = backtestCmd.MarkFlagRequired("symbol")
}

// paramsFromFlags keeps only the flags the user actually set, so the
// configured defaults and the preset still apply to the rest.
func paramsFromFlags(cmd *cobra.Command, f backtestFlags) dto.BacktestParams {
	var p dto.BacktestParams
	changed := cmd.Flags().Changed
	if changed("short") {
		p.ShortWindow = utils.ToPointer(f.short)
	}
	if changed("long") {
		p.LongWindow = utils.ToPointer(f.long)
	}
	if changed("cost") {
		p.CostRate = utils.ToPointer(f.cost)
	}
	if changed("rsi") {
		p.UseRSIFilter = utils.ToPointer(f.rsi)
	}
	if changed("rsi-window") {
		p.RSIWindow = utils.ToPointer(f.rsiWindow)
	}
	if changed("rsi-ceiling") {
		p.RSICeiling = utils.ToPointer(f.rsiCeiling)
	}
	if changed("capital") {
		p.InitialCapital = utils.ToPointer(f.capital)
	}
	return p
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewNop()
	if btFlags.verbose {
		if log, err = logger.New(cfg.Log.Level, "console"); err != nil {
			return err
		}
	}

	source := common.SOURCE_YAHOO
	if btFlags.csvIn != "" {
		source = common.SOURCE_CSV
	}
	m := metrics.NewNop()
	prices, err := NewPriceHistory(cfg, log, cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval), m, source, btFlags.csvIn)
	if err != nil {
		return err
	}

	svc := service.NewBacktestService(cfg, log, goValidator.New(), prices, nil, m)
	resp, err := svc.RunBacktest(cmd.Context(), dto.BacktestRequest{
		Symbol:   btFlags.symbol,
		Exchange: btFlags.exchange,
		Range:    btFlags.priceRange,
		Preset:   btFlags.preset,
		Params:   paramsFromFlags(cmd, btFlags),
	})
	if err != nil {
		return err
	}

	if btFlags.csvOut != "" {
		if err := writeSeriesFile(btFlags.csvOut, resp); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if btFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return PrintSummary(out, resp)
}

func writeSeriesFile(path string, resp *dto.BacktestResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := service.WriteSeriesCSV(f, resp.Result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// PrintSummary writes the run summary as an aligned two-column table.
func PrintSummary(w io.Writer, resp *dto.BacktestResponse) error {
	s := resp.Summary
	p := resp.Params

	lastRSI := "n/a"
	if s.LastRSI != nil {
		lastRSI = fmt.Sprintf("%.2f", *s.LastRSI)
	}
	rsi := "off"
	if p.UseRSIFilter {
		rsi = fmt.Sprintf("RSI(%d) < %.0f", p.RSIWindow, p.RSICeiling)
	}
	position := "flat"
	if s.InPosition {
		position = "long"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Symbol", fmt.Sprintf("%s (%s, %s, %s)", resp.Symbol, resp.Exchange, resp.Range, resp.Source)},
		{"Period", fmt.Sprintf("%s to %s, %d bars", resp.StartDate.Format(utils.DateLayout), resp.EndDate.Format(utils.DateLayout), resp.Bars)},
		{"Windows", fmt.Sprintf("%d / %d", p.ShortWindow, p.LongWindow)},
		{"Cost rate", fmt.Sprintf("%.4f", p.CostRate)},
		{"RSI filter", rsi},
		{"Initial capital", utils.FormatMoney(p.InitialCapital)},
		{"Final value", utils.FormatMoney(s.FinalValue)},
		{"Market final value", utils.FormatMoney(s.MarketFinalValue)},
		{"ROI", utils.FormatPercentage(s.ROI)},
		{"Market ROI", utils.FormatPercentage(s.MarketROI)},
		{"Excess ROI", utils.FormatPercentage(s.ExcessROI)},
		{"Max drawdown", utils.FormatPercentage(s.MaxDrawdown)},
		{"Trades", fmt.Sprintf("%d", s.TradeCount)},
		{"Position", position},
		{"Last RSI", lastRSI},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
