package service

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/pkg/logger"
)

const inboxBuffer = 64

// Listener слушает канал с сигналами и складывает тексты постов в очередь.
// Сам он ничего не разбирает: фильтрация и парсинг — забота раннера.
type Listener struct {
	bot       *tgbot.BotAPI
	channelID int64
	inbox     chan models.InboundMessage
}

func NewListener(cfg *config.Config) (*Listener, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Listener{
		bot:       b,
		channelID: cfg.Telegram.ChannelID,
		inbox:     make(chan models.InboundMessage, inboxBuffer),
	}, nil
}

func (l *Listener) Bot() *tgbot.BotAPI { return l.bot }

func (l *Listener) Inbox() <-chan models.InboundMessage { return l.inbox }

func (l *Listener) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := l.bot.GetUpdatesChan(u)
	logger.Info("telegram listener started, channel=%d", l.channelID)
	for update := range updates {
		l.handleUpdate(ctx, update)
	}
	close(l.inbox)
}

func (l *Listener) Stop() {
	l.bot.StopReceivingUpdates()
}

func (l *Listener) handleUpdate(_ context.Context, update tgbot.Update) {
	post := update.ChannelPost
	if post == nil {
		return
	}
	if post.Chat == nil || post.Chat.ID != l.channelID {
		return
	}

	msg := models.InboundMessage{
		Text:      post.Text,
		MessageID: post.MessageID,
		ChannelID: post.Chat.ID,
	}
	select {
	case l.inbox <- msg:
	default:
		// переполненная очередь значит, что раннер завис; терять пост
		// лучше молча, чем блокировать long-poll
		logger.Warn("очередь сообщений переполнена, пост %d отброшен", post.MessageID)
	}
}
