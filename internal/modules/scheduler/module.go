package scheduler

import (
	bootstrap "swap_engine/internal/modules/bootstrap/service"
	"swap_engine/internal/modules/config"
	gateway "swap_engine/internal/modules/gateway/service"
	ledger "swap_engine/internal/modules/ledger/service"
	ws "swap_engine/internal/modules/okx_websocket/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	"swap_engine/internal/modules/scheduler/service"
	universe "swap_engine/internal/modules/universe/service"
	"swap_engine/internal/notify"
	"swap_engine/internal/runner"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg      *config.Config
	Runner   *runner.Runner
	Boot     *bootstrap.Bootstrap
	Feed     *ws.Feed
	Selector *universe.Selector
	Gateway  *gateway.Gateway
	Ledger   *ledger.Ledger
	Book     *portfolio.Book
	Notify   notify.Notifier
	Log      *zap.Logger
}

func NewEngine(p Params) *service.Scheduler {
	return service.NewEngine(service.Deps{
		Cfg:      p.Cfg,
		Proc:     p.Runner,
		Sync:     p.Boot,
		Watch:    p.Feed,
		Selector: p.Selector,
		Gateway:  p.Gateway,
		Ledger:   p.Ledger,
		Book:     p.Book,
		Notify:   p.Notify,
		Log:      p.Log,
	})
}

func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(NewEngine),
	)
}
