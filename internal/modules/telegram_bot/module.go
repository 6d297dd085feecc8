package telegram

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/telegram_bot/service"
	"signal_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewListener, // func(*config.Config) (*service.Listener, error)
		),

		// очередь постов канала для раннера
		fx.Provide(
			func(l *service.Listener) <-chan models.InboundMessage {
				return l.Inbox()
			},
		),

		// уведомления: отдельный чат, если он задан, иначе заглушка
		fx.Provide(
			func(cfg *config.Config, l *service.Listener) notify.Notifier {
				if cfg.Telegram.ChatID == 0 {
					return notify.Noop{}
				}
				return notify.NewTelegram(l.Bot(), cfg.Telegram.ChatID)
			},
		),

		// Запуск основного цикла через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, l *service.Listener) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						go l.Start(context.Background())
						return nil
					},
					OnStop: func(ctx context.Context) error {
						l.Stop()
						return nil
					},
				})
			},
		),
	)
}
