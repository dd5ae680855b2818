package gateway

import (
	"swap_engine/internal/modules/gateway/service"
	ws "swap_engine/internal/modules/okx_websocket/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(
			service.NewGateway,
			func(q *ws.Quotes) service.PriceSource { return q },
		),
	)
}
