package telegram

import (
	"context"
	"net/http"
	"strings"

	"stock-backtest/internal/dto"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/middleware"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) telebot.HandlerFunc {
	return middleware.WithContext(t.ctx, t.cfg.Telegram.TimeoutDuration, handler)
}

func (t *TelegramBotHandler) RegisterWebhook() {
	t.echo.POST("/api/v1/telegram/webhook", func(c echo.Context) error {
		var update telebot.Update
		if err := c.Bind(&update); err != nil {
			t.log.ErrorContext(t.ctx, "Cannot bind JSON", logger.ErrorField(err))
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
		}
		t.bot.ProcessUpdate(update)
		return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
	})
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.bot.Use(t.RateLimitMiddleware())

	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/help", t.WithContext(t.handleHelp))
	t.bot.Handle("/backtest", t.WithContext(t.handleBacktest))
	t.bot.Handle("/compare", t.WithContext(t.handleCompare))
	t.bot.Handle("/jobs", t.WithContext(t.handleJobs))
	t.bot.Handle(&btnDetailJob, t.WithContext(t.handleBtnDetailJob))
	t.bot.Handle(&btnActionRunJob, t.WithContext(t.handleBtnActionRunJob))
	t.bot.Handle(&btnActionBackToJobList, t.WithContext(t.handleBtnActionBackToJobList))
	t.bot.Handle(&btnDeleteMessage, t.WithContext(t.handleBtnDeleteMessage))
	t.bot.Handle(telebot.OnText, t.WithContext(t.handleTextMessage))
}

// RateLimitMiddleware drops updates from users that exceed their budget.
func (t *TelegramBotHandler) RateLimitMiddleware() telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			key := userKey(c)
			if !t.userLimiters.Allow(key) {
				t.log.Warn("Telegram user rate limited", logger.StringField("user", key))
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: messageRateLimited})
				}
				return c.Send(messageRateLimited)
			}
			return next(c)
		}
	}
}

func (t *TelegramBotHandler) send(ctx context.Context, c telebot.Context, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	return t.telegram.Send(ctx, c.Chat().ID, what, opts...)
}

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	_, err := t.send(ctx, c, messageStart, telebot.ModeMarkdownV2)
	return err
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	_, err := t.send(ctx, c, messageHelp, telebot.ModeMarkdownV2)
	return err
}

func (t *TelegramBotHandler) handleTextMessage(ctx context.Context, c telebot.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		return nil
	}
	_, err := t.send(ctx, c, messageUnknownText)
	return err
}

func (t *TelegramBotHandler) handleBtnDeleteMessage(ctx context.Context, c telebot.Context) error {
	if err := c.Respond(); err != nil {
		t.log.WarnContext(ctx, "Failed to answer callback", logger.ErrorField(err))
	}
	return c.Delete()
}
