package sizer

import (
	"swap_engine/internal/modules/sizer/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("sizer",
		fx.Provide(
			service.NewSizer,
		),
	)
}
