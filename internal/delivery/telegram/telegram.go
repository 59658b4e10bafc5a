package telegram

import (
	"context"
	"strconv"
	"sync"
	"time"

	"stock-backtest/config"
	"stock-backtest/internal/service"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/ratelimit"
	"stock-backtest/pkg/telegram"
	"stock-backtest/pkg/utils"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

type TelegramBotHandler struct {
	ctx          context.Context
	cfg          *config.Config
	bot          *telebot.Bot
	log          *logger.Logger
	telegram     *telegram.TelegramRateLimiter
	echo         *echo.Echo
	service      *service.Service
	userLimiters *ratelimit.LimiterStore
	polling      bool
	wg           sync.WaitGroup
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	telegram *telegram.TelegramRateLimiter,
	echo *echo.Echo,
	service *service.Service) *TelegramBotHandler {
	perSecond := cfg.Telegram.MaxUserRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Telegram.UserRequestBurst
	if burst <= 0 {
		burst = 1
	}
	return &TelegramBotHandler{
		ctx:          ctx,
		cfg:          cfg,
		log:          log,
		bot:          bot,
		telegram:     telegram,
		echo:         echo,
		service:      service,
		userLimiters: ratelimit.NewLimiterStore(rate.Limit(perSecond), burst),
	}
}

// Start registers the commands and begins receiving updates, through the echo
// webhook route when a webhook URL is configured and by long polling otherwise.
func (t *TelegramBotHandler) Start() error {
	t.log.Info("Starting Telegram bot...")
	t.RegisterHandlers()
	t.startLimiterCleanup()

	if t.cfg.Telegram.WebhookURL != "" {
		t.log.Info("Setting webhook URL", logger.StringField("webhook_url", t.cfg.Telegram.WebhookURL))
		t.RegisterWebhook()
		return t.bot.SetWebhook(&telebot.Webhook{
			Endpoint: &telebot.WebhookEndpoint{PublicURL: t.cfg.Telegram.WebhookURL},
		})
	}

	t.polling = true
	utils.GoSafe(t.log, t.bot.Start)
	return nil
}

func (t *TelegramBotHandler) Stop() {
	t.log.Info("Stopping Telegram bot...")
	defer t.wg.Wait()
	if !t.polling {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopDone := make(chan struct{})
	go func() {
		t.bot.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.log.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.log.Warn("Timeout while stopping bot, forcing shutdown")
	}
}

func (t *TelegramBotHandler) startLimiterCleanup() {
	interval := t.cfg.Telegram.RateLimitCleanupDuration
	if interval <= 0 {
		return
	}
	t.wg.Add(1)
	utils.GoSafe(t.log, func() {
		defer t.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.ctx.Done():
				return
			case <-ticker.C:
				removed := t.userLimiters.Cleanup(t.cfg.Telegram.RatelimitExpireDuration)
				t.log.Debug("Cleaned up idle user limiters", logger.IntField("removed", removed))
			}
		}
	})
}

func userKey(c telebot.Context) string {
	if sender := c.Sender(); sender != nil {
		return strconv.FormatInt(sender.ID, 10)
	}
	if chat := c.Chat(); chat != nil {
		return strconv.FormatInt(chat.ID, 10)
	}
	return "unknown"
}
