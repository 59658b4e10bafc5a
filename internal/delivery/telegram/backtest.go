package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/repository"
	"stock-backtest/internal/service"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/utils"

	"gopkg.in/telebot.v3"
)

var errUsage = errors.New("invalid command arguments")

// commandOptions are the optional tokens shared by /backtest and /compare.
// They may appear in any order.
type commandOptions struct {
	exchange   string
	priceRange string
	params     dto.BacktestParams
}

// parseOptions consumes the option tokens and returns the remaining words.
// Windows are written as one "short/long" token so a numeric ticker is never
// mistaken for a window.
func parseOptions(tokens []string) (commandOptions, []string, error) {
	var (
		opts commandOptions
		rest []string
	)
	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		lower := strings.ToLower(token)
		switch {
		case token == "":
			continue
		case lower == "rsi":
			opts.params.UseRSIFilter = utils.ToPointer(true)
		case lower == "norsi":
			opts.params.UseRSIFilter = utils.ToPointer(false)
		case strings.HasSuffix(token, "%"):
			pct, err := strconv.ParseFloat(strings.TrimSuffix(token, "%"), 64)
			if err != nil || pct < 0 || pct >= 100 {
				return opts, nil, fmt.Errorf("%w: bad cost %q", errUsage, token)
			}
			opts.params.CostRate = utils.ToPointer(pct / 100)
		case strings.Contains(token, "/"):
			short, long, err := parseWindows(token)
			if err != nil {
				return opts, nil, err
			}
			opts.params.ShortWindow = utils.ToPointer(short)
			opts.params.LongWindow = utils.ToPointer(long)
		case utils.ContainsString(common.GetRangeList(), lower):
			opts.priceRange = lower
		case utils.ContainsString(common.GetExchangeList(), strings.ToUpper(token)):
			opts.exchange = strings.ToUpper(token)
		default:
			rest = append(rest, token)
		}
	}
	return opts, rest, nil
}

func parseWindows(token string) (int, int, error) {
	parts := strings.Split(token, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: windows are written short/long, got %q", errUsage, token)
	}
	short, errShort := strconv.Atoi(strings.TrimSpace(parts[0]))
	long, errLong := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errShort != nil || errLong != nil {
		return 0, 0, fmt.Errorf("%w: windows are written short/long, got %q", errUsage, token)
	}
	if short <= 0 || long <= 0 {
		return 0, 0, fmt.Errorf("%w: windows must be positive, got %q", errUsage, token)
	}
	return short, long, nil
}

// ParseBacktestArgs turns the arguments of /backtest into a request.
func ParseBacktestArgs(args []string) (dto.BacktestRequest, error) {
	if len(args) == 0 {
		return dto.BacktestRequest{}, fmt.Errorf("%w: missing symbol", errUsage)
	}
	opts, rest, err := parseOptions(args[1:])
	if err != nil {
		return dto.BacktestRequest{}, err
	}
	if len(rest) > 0 {
		return dto.BacktestRequest{}, fmt.Errorf("%w: unexpected %q", errUsage, strings.Join(rest, " "))
	}
	return dto.BacktestRequest{
		Symbol:   strings.ToUpper(strings.TrimSpace(args[0])),
		Exchange: opts.exchange,
		Range:    opts.priceRange,
		Params:   opts.params,
	}, nil
}

// ParseCompareArgs turns the arguments of /compare into a batch request.
// Symbols may be separated by commas or spaces.
func ParseCompareArgs(args []string, maxSymbols int) (dto.BatchBacktestRequest, error) {
	opts, rest, err := parseOptions(args)
	if err != nil {
		return dto.BatchBacktestRequest{}, err
	}
	symbols := utils.SplitSymbols(strings.Join(rest, ","))
	if len(symbols) < 2 {
		return dto.BatchBacktestRequest{}, fmt.Errorf("%w: give at least two symbols", errUsage)
	}
	if maxSymbols > 0 && len(symbols) > maxSymbols {
		return dto.BatchBacktestRequest{}, fmt.Errorf("%w: at most %d symbols", errUsage, maxSymbols)
	}
	return dto.BatchBacktestRequest{
		Symbols:  symbols,
		Exchange: opts.exchange,
		Range:    opts.priceRange,
		Params:   opts.params,
	}, nil
}

func (t *TelegramBotHandler) handleBacktest(ctx context.Context, c telebot.Context) error {
	req, err := ParseBacktestArgs(c.Args())
	if err != nil {
		_, err = t.send(ctx, c, fmt.Sprintf("%s\n\n%s", err.Error(), usageBacktest))
		return err
	}

	loading, _ := t.send(ctx, c, fmt.Sprintf("⏳ Backtesting %s...", req.Symbol))
	resp, err := t.service.BacktestService.RunBacktest(ctx, req)
	if err != nil {
		return t.reply(ctx, c, loading, userErrorMessage(err))
	}
	return t.reply(ctx, c, loading, FormatBacktestMessage(resp), telebot.ModeMarkdownV2)
}

func (t *TelegramBotHandler) handleCompare(ctx context.Context, c telebot.Context) error {
	req, err := ParseCompareArgs(c.Args(), t.cfg.Telegram.MaxCompareSymbols)
	if err != nil {
		_, err = t.send(ctx, c, fmt.Sprintf("%s\n\n%s", err.Error(), usageCompare))
		return err
	}

	loading, _ := t.send(ctx, c, fmt.Sprintf("⏳ Comparing %s...", strings.Join(req.Symbols, ", ")))
	resp, err := t.service.BacktestService.RunBatch(ctx, req)
	if err != nil {
		return t.reply(ctx, c, loading, userErrorMessage(err))
	}
	return t.reply(ctx, c, loading, FormatCompareMessage(resp), telebot.ModeMarkdownV2)
}

// reply replaces the loading message when there is one.
func (t *TelegramBotHandler) reply(ctx context.Context, c telebot.Context, loading *telebot.Message, what string, opts ...interface{}) error {
	if loading != nil {
		_, err := t.telegram.Edit(ctx, c.Chat().ID, loading, what, opts...)
		if err == nil {
			return nil
		}
		t.log.WarnContext(ctx, "Failed to edit loading message", logger.ErrorField(err))
	}
	_, err := t.send(ctx, c, what, opts...)
	return err
}

func userErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrSymbolNotFound):
		return "❌ Symbol not found. Check the code and the exchange."
	case errors.Is(err, engine.ErrInsufficientData):
		return "📉 Not enough price history for this range. Try a longer range."
	case errors.Is(err, engine.ErrInvalidParameter), errors.Is(err, service.ErrInvalidRequest):
		return "⚠️ " + err.Error()
	default:
		return commonErrorInternal
	}
}
