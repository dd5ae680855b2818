package bootstrap

import (
	"swap_engine/internal/exchange"
	"swap_engine/internal/modules/bootstrap/service"
	"swap_engine/internal/modules/config"
	gateway "swap_engine/internal/modules/gateway/service"
	health "swap_engine/internal/modules/health/service"
	ledger "swap_engine/internal/modules/ledger/service"
	ws "swap_engine/internal/modules/okx_websocket/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	signal "swap_engine/internal/modules/signal/service"
	universe "swap_engine/internal/modules/universe/service"
	"swap_engine/internal/notify"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg      *config.Config
	Client   exchange.Client
	Insts    *ledger.Instruments
	Ledger   *ledger.Ledger
	Book     *portfolio.Book
	Selector *universe.Selector
	Gateway  *gateway.Gateway
	Feed     *ws.Feed
	Signals  *signal.Aggregator
	State    *health.State
	Notify   notify.Notifier
	Log      *zap.Logger
}

func NewBootstrap(p Params) *service.Bootstrap {
	return service.NewBootstrap(p.Cfg, p.Client, p.Client, p.Insts, p.Ledger, p.Book, p.Selector,
		p.Gateway, p.Feed, p.Signals, p.State, p.Notify, p.Log)
}

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(NewBootstrap),
	)
}
