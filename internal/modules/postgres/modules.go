package postgres

import (
	"context"

	"swap_engine/internal/modules/config"
	"swap_engine/pkg/db"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewTxManager: пул к db_dsn. Пустой DSN — базы нет, отдаём nil.
func NewTxManager(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (db.TxManager, error) {
	if cfg.DB == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OKX.Timeout)
	defer cancel()

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create poolMaster")
	}

	if err = poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	log.Info("[PG] connected")
	return m, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewTxManager,
		),
	)
}
