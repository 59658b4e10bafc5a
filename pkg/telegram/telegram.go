package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"stock-backtest/config"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/ratelimit"
	"stock-backtest/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Telegram allows about 30 messages per second per bot.
const maxGlobalMessagesPerSecond = 30

// Sender is the subset of *telebot.Bot used for outgoing messages.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Edit(msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelegramRateLimiter sends messages through the bot while respecting a global
// and a per-chat budget.
type TelegramRateLimiter struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	sender        Sender
	globalLimiter *rate.Limiter
	chatLimiters  *ratelimit.LimiterStore
	wg            sync.WaitGroup
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logger.Logger, sender Sender) *TelegramRateLimiter {
	burst := cfg.UserRequestBurst
	if burst <= 0 {
		burst = 1
	}
	return &TelegramRateLimiter{
		cfg:           cfg,
		log:           log,
		sender:        sender,
		globalLimiter: rate.NewLimiter(rate.Limit(maxGlobalMessagesPerSecond), maxGlobalMessagesPerSecond),
		chatLimiters:  ratelimit.NewLimiterStore(rate.Limit(1), burst),
	}
}

func (t *TelegramRateLimiter) Send(ctx context.Context, chatID int64, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if err := t.wait(ctx, chatID); err != nil {
		return nil, err
	}
	return t.sender.Send(telebot.ChatID(chatID), what, opts...)
}

// Edit replaces the content of a message the bot sent earlier in chatID.
func (t *TelegramRateLimiter) Edit(ctx context.Context, chatID int64, msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if err := t.wait(ctx, chatID); err != nil {
		return nil, err
	}
	return t.sender.Edit(msg, what, opts...)
}

// SendAlert delivers a log alert to the configured operator chat.
func (t *TelegramRateLimiter) SendAlert(ctx context.Context, message string) error {
	if t.cfg.ChatID == 0 {
		return fmt.Errorf("telegram alert chat id is not configured")
	}
	_, err := t.Send(ctx, t.cfg.ChatID, message)
	return err
}

func (t *TelegramRateLimiter) wait(ctx context.Context, chatID int64) error {
	if err := t.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("global rate limit: %w", err)
	}
	if err := t.chatLimiters.GetLimiter(strconv.FormatInt(chatID, 10)).Wait(ctx); err != nil {
		return fmt.Errorf("chat rate limit: %w", err)
	}
	return nil
}

// StartCleanupExpired periodically drops per-chat limiters that went idle.
func (t *TelegramRateLimiter) StartCleanupExpired(ctx context.Context) {
	interval := t.cfg.RateLimitCleanupDuration
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
			case <-ctx.Done():
				t.log.Info("Stopping telegram rate limiter cleanup")
				return
			case <-ticker.C:
				removed := t.chatLimiters.Cleanup(t.cfg.RatelimitExpireDuration)
				t.log.Debug("Cleaned up idle chat limiters", logger.IntField("removed", removed))
			}
		}
	})
}

func (t *TelegramRateLimiter) StopCleanupExpired() {
	t.wg.Wait()
}
