package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/pkg/logger"
)

// Notifier — best-effort канал уведомлений. Ошибки доставки не должны
// долетать до торгового конвейера, поэтому методы ничего не возвращают.
type Notifier interface {
	Send(ctx context.Context, msg string)
	SendF(ctx context.Context, format string, args ...any)
	// Forward пересылает исходное сообщение сигнала из канала-источника.
	Forward(ctx context.Context, messageID int, fromChannelID int64)
}

// Telegram — нотифайер в фиксированный чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(bot *tgbot.BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Send(ctx context.Context, msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("notify send failed: %v", err)
	}
}

func (t *Telegram) SendF(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}

func (t *Telegram) Forward(ctx context.Context, messageID int, fromChannelID int64) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	fwd := tgbot.NewForward(t.chatID, fromChannelID, messageID)
	if _, err := t.bot.Send(fwd); err != nil {
		logger.Warn("notify forward failed: %v", err)
	}
}

// Noop — заглушка, когда чат уведомлений не настроен. Выбирается один раз
// при сборке приложения.
type Noop struct{}

func (Noop) Send(context.Context, string) {}

func (Noop) SendF(context.Context, string, ...any) {}

func (Noop) Forward(context.Context, int, int64) {}
