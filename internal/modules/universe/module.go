package universe

import (
	"swap_engine/internal/modules/universe/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("universe",
		fx.Provide(service.NewSelector),
	)
}
