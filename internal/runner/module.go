package runner

import (
	health "swap_engine/internal/modules/health/service"
	"swap_engine/internal/notify"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewRunner,
			func(r *Runner) health.StatusSource { return r },
			func(r *Runner) notify.Commands { return r },
		),
	)
}
