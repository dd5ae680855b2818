package main

import (
	"context"
	"log"

	"swap_engine/internal/modules/bootstrap"
	bootsvc "swap_engine/internal/modules/bootstrap/service"
	"swap_engine/internal/modules/cache"
	"swap_engine/internal/modules/config"
	"swap_engine/internal/modules/gateway"
	"swap_engine/internal/modules/health"
	"swap_engine/internal/modules/journal"
	"swap_engine/internal/modules/ledger"
	"swap_engine/internal/modules/lifecycle"
	"swap_engine/internal/modules/okx_client"
	"swap_engine/internal/modules/okx_websocket"
	"swap_engine/internal/modules/portfolio"
	"swap_engine/internal/modules/postgres"
	"swap_engine/internal/modules/scheduler"
	schedsvc "swap_engine/internal/modules/scheduler/service"
	"swap_engine/internal/modules/signal"
	"swap_engine/internal/modules/sizer"
	"swap_engine/internal/modules/universe"
	"swap_engine/internal/notify"
	"swap_engine/internal/runner"
	"swap_engine/pkg/logger"
	"swap_engine/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const serviceName = "swap_engine"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(serviceName)
	return logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	tracing.SetServiceName(serviceName)
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
	if err != nil {
		return err
	}
	log.Info("[MAIN] jaeger tracing enabled", zap.String("host", cfg.Tracing.Host), zap.Int("port", cfg.Tracing.Port))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

// run: бутстрап, затем единственный поток планировщика до остановки приложения.
func run(
	lc fx.Lifecycle,
	boot *bootsvc.Bootstrap,
	sched *schedsvc.Scheduler,
	r *runner.Runner,
	n notify.Notifier,
	log *zap.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if tg, ok := n.(*notify.Telegram); ok {
				tg.Start(ctx, r)
			}
			go func() {
				defer close(done)
				if err := boot.Start(ctx); err != nil {
					log.Error("[MAIN] bootstrap incomplete, periodic sync will catch up", zap.Error(err))
				}
				sched.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			log.Info("[MAIN] stopped")
			_ = log.Sync()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		fx.Provide(newLogger),
		notify.Module(),
		health.Module(),
		postgres.Module(),
		journal.Module(),
		cache.Module(),
		okx_client.Module(),
		okx_websocket.Module(),
		portfolio.Module(),
		ledger.Module(),
		signal.Module(),
		sizer.Module(),
		gateway.Module(),
		lifecycle.Module(),
		universe.Module(),
		runner.Module(),
		bootstrap.Module(),
		scheduler.Module(),
		fx.Invoke(initTracing, run),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
