package portfolio

import (
	"swap_engine/internal/modules/portfolio/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("portfolio",
		fx.Provide(
			service.NewBook,
		),
	)
}
