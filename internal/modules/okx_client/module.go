package okx_client

import (
	"swap_engine/internal/exchange"
	"swap_engine/internal/modules/okx_client/service"

	"go.uber.org/fx"
)

// Module отдаёт REST-клиент OKX под тремя интерфейсами.
func Module() fx.Option {
	return fx.Module("okx_client",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) exchange.Client { return c },
			func(c *service.Client) exchange.TradeClient { return c },
			func(c *service.Client) exchange.AccountClient { return c },
			func(c *service.Client) exchange.MarketClient { return c },
		),
	)
}
