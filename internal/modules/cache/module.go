package cache

import (
	"swap_engine/internal/modules/cache/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("cache",
		fx.Provide(
			service.NewCache,
		),
	)
}
