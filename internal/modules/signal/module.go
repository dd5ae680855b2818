package signal

import (
	"swap_engine/internal/modules/signal/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("signal",
		fx.Provide(
			service.NewAggregator,
		),
	)
}
