package okx_websocket

import (
	"context"

	health "swap_engine/internal/modules/health/service"
	"swap_engine/internal/modules/okx_websocket/service"

	"go.uber.org/fx"
)

// Module поднимает ленту цен OKX tickers.
func Module() fx.Option {
	return fx.Module("okx_websocket",
		fx.Provide(
			service.NewFeed,
			service.NewQuotes,
			func(s *health.State) service.ConnState { return s },
		),
		fx.Invoke(func(lc fx.Lifecycle, f *service.Feed) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go f.Run(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
