package runner

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/ledger"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	statussvc "signal_bot/internal/modules/status/service"
	"signal_bot/internal/notify"
	"signal_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			ledger.New,
			NewRunner,
			func(cfg *config.Config, ex Exchange, ld *ledger.Ledger, n notify.Notifier, state *statussvc.State, m *statussvc.Metrics) *Reconciler {
				return NewReconciler(ex, ld, n, state, m, cfg.Trading.ReconcileInterval)
			},
		),
		fx.Invoke(run),
	)
}

func run(
	lc fx.Lifecycle,
	cfg *config.Config,
	r *Runner,
	rec *Reconciler,
	state *statussvc.State,
	messages <-chan models.InboundMessage,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := rec.Start(ctx); err != nil {
				return err
			}
			go func() {
				for msg := range messages {
					r.HandleMessage(ctx, msg)
				}
			}()
			mode := "PAPER"
			if cfg.Trading.Live {
				mode = "LIVE"
			}
			state.SetMode(mode, cfg.Telegram.ChannelID)
			state.SetReady(true)
			logger.Info("runner started, mode=%s, channel=%d", mode, cfg.Telegram.ChannelID)
			return nil
		},
		OnStop: func(context.Context) error {
			state.SetReady(false)
			cancel()
			rec.Stop()
			return nil
		},
	})
}
