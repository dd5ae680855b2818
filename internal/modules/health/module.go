package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"swap_engine/internal/modules/config"
	"swap_engine/internal/modules/health/service"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MuxParams struct {
	fx.In

	State  *service.State
	Source service.StatusSource `optional:"true"`
}

func NewMux(p MuxParams) *http.ServeMux {
	state := p.State
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := struct {
			Ready        bool            `json:"ready"`
			WSConnected  bool            `json:"wsConnected"`
			UptimeSec    int64           `json:"uptimeSec"`
			LastTickUnix int64           `json:"lastTickUnix"`
			Engine       *service.Status `json:"engine,omitempty"`
		}{
			Ready:       state.Ready(),
			WSConnected: state.WSConnected(),
			UptimeSec:   int64(state.Uptime().Seconds()),
		}
		if t := state.LastTick(); !t.IsZero() {
			resp.LastTickUnix = t.Unix()
		}
		if p.Source != nil {
			st := p.Source.Status()
			resp.Engine = &st
		}
		b, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Health.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Health.Addr)
			if err != nil {
				return err
			}
			log.Info("[HEALTH] listening", zap.String("addr", cfg.Health.Addr))
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
