package exchange

import (
	"go.uber.org/fx"

	appcfg "signal_bot/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(func(cfg *appcfg.Config) *Client {
			return NewClient(Config{
				APIKey:    cfg.Binance.APIKey,
				APISecret: cfg.Binance.APISecret,
				Live:      cfg.Trading.Live,
				Testnet:   cfg.Binance.Testnet,
			})
		}),
	)
}
