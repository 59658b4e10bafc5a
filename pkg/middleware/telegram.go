package middleware

import (
	"context"
	"time"

	"gopkg.in/telebot.v3"
)

// WithContext gives each Telegram update its own deadline derived from rootCtx.
func WithContext(rootCtx context.Context, timeout time.Duration, handler func(ctx context.Context, c telebot.Context) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(rootCtx, timeout)
		defer cancel()

		return handler(ctx, c)
	}
}
