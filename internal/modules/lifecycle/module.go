package lifecycle

import (
	gateway "swap_engine/internal/modules/gateway/service"
	ledger "swap_engine/internal/modules/ledger/service"
	"swap_engine/internal/modules/lifecycle/service"
	signal "swap_engine/internal/modules/signal/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("lifecycle",
		fx.Provide(
			service.NewEvaluator,
			service.NewExecutor,
			func(g *gateway.Gateway) service.Orders { return g },
			func(a *signal.Aggregator) service.Signals { return a },
			func(l *ledger.Ledger) service.Allocation { return l },
		),
	)
}
