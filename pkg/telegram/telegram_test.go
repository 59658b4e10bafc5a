package telegram

import (
	"context"
	"strconv"
	"testing"
	"time"

	"stock-backtest/config"
	"stock-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type recordingSender struct {
	to   []string
	what []interface{}
}

func (r *recordingSender) Send(to telebot.Recipient, what interface{}, _ ...interface{}) (*telebot.Message, error) {
	r.to = append(r.to, to.Recipient())
	r.what = append(r.what, what)
	return &telebot.Message{}, nil
}

func (r *recordingSender) Edit(msg telebot.Editable, what interface{}, _ ...interface{}) (*telebot.Message, error) {
	_, chatID := msg.MessageSig()
	r.to = append(r.to, "edit:"+strconv.FormatInt(chatID, 10))
	r.what = append(r.what, what)
	return &telebot.Message{}, nil
}

func TestTelegramRateLimiter_SendAlert(t *testing.T) {
	sender := &recordingSender{}
	tl := NewTelegramRateLimiter(&config.TelegramConfig{ChatID: 42, UserRequestBurst: 2}, logger.NewNop(), sender)

	require.NoError(t, tl.SendAlert(context.Background(), "disk full"))
	assert.Equal(t, []string{"42"}, sender.to)
	assert.Equal(t, []interface{}{"disk full"}, sender.what)
}

func TestTelegramRateLimiter_SendAlertWithoutChat(t *testing.T) {
	tl := NewTelegramRateLimiter(&config.TelegramConfig{}, logger.NewNop(), &recordingSender{})
	assert.Error(t, tl.SendAlert(context.Background(), "x"))
}

func TestTelegramRateLimiter_RespectsContext(t *testing.T) {
	sender := &recordingSender{}
	tl := NewTelegramRateLimiter(&config.TelegramConfig{UserRequestBurst: 1}, logger.NewNop(), sender)

	_, err := tl.Send(context.Background(), 7, "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tl.Send(ctx, 7, "second")
	assert.Error(t, err, "second message inside the per-chat window must wait past the deadline")
	assert.Len(t, sender.to, 1)
}

func TestTelegramRateLimiter_Edit(t *testing.T) {
	sender := &recordingSender{}
	tl := NewTelegramRateLimiter(&config.TelegramConfig{UserRequestBurst: 1}, logger.NewNop(), sender)

	msg := &telebot.Message{ID: 10, Chat: &telebot.Chat{ID: 7}}
	_, err := tl.Edit(context.Background(), 7, msg, "updated")
	require.NoError(t, err)
	assert.Equal(t, []string{"edit:7"}, sender.to)
}
