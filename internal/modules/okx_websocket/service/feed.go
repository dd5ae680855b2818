package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"swap_engine/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval   = 20 * time.Second
	reconnectDelay = time.Second
	priceMaxAge    = 30 * time.Second
)

// ConnState — куда отчитываться о состоянии соединения.
type ConnState interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type quote struct {
	last float64
	at   time.Time
}

// Feed держит последние цены по публичному каналу tickers.
type Feed struct {
	log   *zap.Logger
	url   string
	state ConnState

	dialer *websocket.Dialer

	mu     sync.RWMutex
	prices map[string]quote
	watch  map[string]struct{}

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	now func() time.Time
}

func NewFeed(cfg *config.Config, log *zap.Logger, state ConnState) *Feed {
	return &Feed{
		log:    log.Named("ws"),
		url:    cfg.OKX.WSPublicURL,
		state:  state,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		prices: make(map[string]quote),
		watch:  make(map[string]struct{}),
		now:    time.Now,
	}
}

// Price — последняя цена, если она свежая.
func (f *Feed) Price(instID string) (float64, bool) {
	f.mu.RLock()
	q, ok := f.prices[instID]
	f.mu.RUnlock()
	if !ok || q.last <= 0 || f.now().Sub(q.at) > priceMaxAge {
		return 0, false
	}
	return q.last, true
}

// Watch заменяет набор символов; на живом соединении досылает subscribe/unsubscribe.
func (f *Feed) Watch(symbols []string) {
	next := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		next[s] = struct{}{}
	}

	f.mu.Lock()
	var added, removed []string
	for s := range next {
		if _, ok := f.watch[s]; !ok {
			added = append(added, s)
		}
	}
	for s := range f.watch {
		if _, ok := next[s]; !ok {
			removed = append(removed, s)
			delete(f.prices, s)
		}
	}
	f.watch = next
	f.mu.Unlock()

	f.connMu.Lock()
	conn := f.conn
	f.connMu.Unlock()
	if conn == nil {
		return
	}
	if len(added) > 0 {
		if err := f.write(conn, subscription("subscribe", added)); err != nil {
			f.log.Warn("[WS] subscribe error", zap.Error(err))
		}
	}
	if len(removed) > 0 {
		if err := f.write(conn, subscription("unsubscribe", removed)); err != nil {
			f.log.Warn("[WS] unsubscribe error", zap.Error(err))
		}
	}
}

func (f *Feed) watched() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.watch))
	for s := range f.watch {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsOp struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

func subscription(op string, symbols []string) wsOp {
	args := make([]wsArg, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, wsArg{Channel: "tickers", InstID: s})
	}
	return wsOp{Op: op, Args: args}
}

func (f *Feed) write(conn *websocket.Conn, v any) error {
	b, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (f *Feed) writeText(conn *websocket.Conn, s string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// Run — цикл переподключения. Возвращается только по ctx.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.session(ctx); err != nil && ctx.Err() == nil {
			f.log.Warn("[WS] session ended", zap.Error(err))
		}
		f.state.SetWSConnected(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *Feed) session(ctx context.Context) error {
	f.log.Info("[WS] connect", zap.String("url", f.url))
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	defer func() {
		f.connMu.Lock()
		f.conn = nil
		f.connMu.Unlock()
	}()

	if syms := f.watched(); len(syms) > 0 {
		if err := f.write(conn, subscription("subscribe", syms)); err != nil {
			return err
		}
	}
	f.state.SetWSConnected(true)

	// keepalive: без ping OKX рвёт соединение через 30s тишины
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-t.C:
				if err := f.writeText(conn, "ping"); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.handle(msg)
	}
}

type tickerFrame struct {
	Event string `json:"event"`
	Code  string `json:"code"`
	Msg   string `json:"msg"`
	Arg   wsArg  `json:"arg"`
	Data  []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
		Ts     string `json:"ts"`
	} `json:"data"`
}

func (f *Feed) handle(msg []byte) {
	if string(msg) == "pong" {
		return
	}
	var frame tickerFrame
	if err := sonic.Unmarshal(msg, &frame); err != nil {
		return
	}
	if frame.Event == "error" {
		f.log.Warn("[WS] error event", zap.String("code", frame.Code), zap.String("msg", frame.Msg))
		return
	}
	if frame.Arg.Channel != "tickers" || len(frame.Data) == 0 {
		return
	}

	now := f.now()
	f.mu.Lock()
	for _, d := range frame.Data {
		last := parseFloat(d.Last)
		if last <= 0 {
			continue
		}
		if _, ok := f.watch[d.InstID]; !ok {
			continue
		}
		f.prices[d.InstID] = quote{last: last, at: now}
	}
	f.mu.Unlock()
	f.state.TouchTick(now)
}
