package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling long-polls for commands until ctx is cancelled. Only messages
// from the configured chat are handled; replies go back to that chat.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			t.log.Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update, handler)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, update tgbotapi.Update, handler CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	if msg.Chat.ID != t.chatID {
		t.log.Warn("ignoring message from unknown chat", zap.Int64("chat_id", msg.Chat.ID))
		return
	}
	text := strings.TrimSpace(msg.Text)
	t.log.Info("received command", zap.String("text", text))

	reply := handler(ctx, text)
	if reply == "" {
		return
	}
	if err := t.sendTo(msg.Chat.ID, reply); err != nil {
		t.log.Error("send reply", zap.Error(err))
	}
}
