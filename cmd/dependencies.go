package cmd

import (
	"context"
	"fmt"
	"time"

	"stock-backtest/config"
	"stock-backtest/internal/repository"
	"stock-backtest/pkg/cache"
	"stock-backtest/pkg/common"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"
	"stock-backtest/pkg/postgres"
	"stock-backtest/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zapcore"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db          *postgres.DB
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	metrics     *metrics.Metrics
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	dep := &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		echo:      echo.New(),
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		metrics:   metrics.New(cfg.Metrics.Namespace),
	}
	dep.echo.HideBanner = true

	if cfg.Telegram.Enabled {
		if err := dep.setupTelegram(); err != nil {
			return nil, err
		}
	}

	db, err := postgres.NewDB(cfg.DB, dep.log)
	if err != nil {
		dep.log.Error("Failed to connect to database", logger.ErrorField(err))
		return nil, err
	}
	dep.db = db

	return dep, nil
}

// setupTelegram creates the bot and, when an alert chat is configured,
// rebuilds the logger so alert-tagged entries reach that chat.
func (d *AppDependency) setupTelegram() error {
	pref := telebot.Settings{
		Token:  d.cfg.Telegram.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			d.log.Error("Telegram bot error", logger.ErrorField(err))
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		d.log.Error("Failed to create telegram bot", logger.ErrorField(err))
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	d.telegramBot = bot
	d.telegram = telegram.NewTelegramRateLimiter(&d.cfg.Telegram, d.log, bot)

	if d.cfg.Telegram.ChatID != 0 {
		alerting, err := logger.New(d.cfg.Log.Level, d.cfg.Log.Encoding, logger.WithAlertSender(d.telegram, zapcore.ErrorLevel))
		if err != nil {
			return err
		}
		d.log = alerting
	}
	return nil
}

// NewPriceHistory builds the cached price repository for source: "yahoo" or
// "csv". csvPath is only used by the csv source.
func NewPriceHistory(cfg *config.Config, log *logger.Logger, c cache.Cache, m *metrics.Metrics, source, csvPath string) (repository.PriceHistoryRepository, error) {
	var src repository.PriceSource
	switch source {
	case common.SOURCE_YAHOO:
		src = repository.NewYahooFinanceRepository(cfg, log)
	case common.SOURCE_CSV:
		src = repository.NewCSVPriceRepository(csvPath)
	default:
		return nil, fmt.Errorf("unknown price source %q", source)
	}
	return repository.NewPriceHistoryRepository(src, source, c, cfg.Backtest.PriceCacheTTL, m, log), nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	_ = d.log.Sync()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
