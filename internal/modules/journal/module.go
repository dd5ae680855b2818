package journal

import (
	"context"

	"swap_engine/internal/modules/journal/service"
	"swap_engine/pkg/db"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Tx  db.TxManager `optional:"true"`
	Log *zap.Logger
}

// NewRecorder: без базы журнал ничего не пишет.
func NewRecorder(p Params) service.Recorder {
	if p.Tx == nil {
		p.Log.Info("[JOURNAL] db_dsn not set, trade journal disabled")
		return service.Nop{}
	}
	pg := service.NewPg(p.Tx, p.Log)
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return pg.EnsureSchema(ctx)
		},
	})
	return pg
}

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			NewRecorder,
		),
	)
}
