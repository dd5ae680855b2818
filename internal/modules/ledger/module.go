package ledger

import (
	"swap_engine/internal/modules/ledger/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			service.NewInstruments,
			service.NewLedger,
		),
	)
}
