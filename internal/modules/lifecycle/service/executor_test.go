package service

import (
	"context"
	"testing"
	"time"

	"swap_engine/internal/exchange/exchangetest"
	"swap_engine/internal/models"
	cache "swap_engine/internal/modules/cache/service"
	"swap_engine/internal/modules/config"
	gateway "swap_engine/internal/modules/gateway/service"
	journal "swap_engine/internal/modules/journal/service"
	ledger "swap_engine/internal/modules/ledger/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	"swap_engine/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sol = "SOL-USDT-SWAP"

type stubSignals struct{ res models.SignalResult }

func (s *stubSignals) Evaluate(context.Context, string) models.SignalResult { return s.res }

type env struct {
	ex      *exchangetest.Fake
	book    *portfolio.Book
	ledger  *ledger.Ledger
	signals *stubSignals
	x       *Executor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Gateway.InitialBackoff = time.Millisecond
	cfg.Gateway.MaxBackoff = time.Millisecond

	ex := exchangetest.New()
	ex.AddInstrument(sol, 1, 1, 1, 0.01, 100)
	ex.Bal = models.Balance{TotalEq: 100000}

	log := zap.NewNop()
	n := notify.NewLog(log)
	book := portfolio.NewBook(cfg)
	insts := ledger.NewInstruments(cfg, ex, cache.NewCache())
	l := ledger.NewLedger(cfg, ex, ex, insts, book, n, log)
	gw := gateway.NewGateway(cfg, ex, ex, insts, book, journal.Nop{}, nil, log)
	signals := &stubSignals{}

	x := NewExecutor(cfg, NewEvaluator(cfg), gw, signals, insts, book, l, journal.Nop{}, n, log)
	x.now = func() time.Time { return now }

	_, err := l.Recompute(context.Background())
	require.NoError(t, err)
	return &env{ex: ex, book: book, ledger: l, signals: signals, x: x}
}

func TestOpenRecordsPositionWithTargets(t *testing.T) {
	e := newEnv(t)
	err := e.x.Open(context.Background(), OpenRequest{
		Symbol: sol, Coin: "SOL", Direction: models.Long, Contracts: 10, Price: 100,
		Leverage: 2, Strength: 0.85, Instrument: inst(),
	})
	require.NoError(t, err)

	p, ok := e.book.Get(sol)
	require.True(t, ok)
	assert.Equal(t, "ord-1", p.OpenOrderID)
	assert.Equal(t, 1.0, p.Remaining)
	assert.InDelta(t, 92.0, p.InitialStop, 1e-9)
	assert.InDelta(t, 115.0, p.TakeProfit[0], 1e-9)
	assert.InDelta(t, 175.0, p.TakeProfit[2], 1e-9)
	assert.InDelta(t, 500.0, p.Margin, 1e-9)
	assert.InDelta(t, 500.0, e.ledger.Snapshot().AutoMargin, 1e-9)
	assert.Equal(t, []string{sol + ":cross:long:2"}, e.ex.LeverageSets)
}

func TestOpenFailureLeavesBookEmpty(t *testing.T) {
	e := newEnv(t)
	err := e.x.Open(context.Background(), OpenRequest{
		Symbol: sol, Coin: "SOL", Direction: models.Long, Contracts: 0.5, Price: 100, Leverage: 2, Instrument: inst(),
	})
	require.Error(t, err)
	assert.False(t, e.book.Has(sol))
}

func TestManageStagedStopReducesOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := long(1)
	p.FirstStopDone = true
	e.book.Put(p)

	acted, err := e.x.Manage(ctx, sol, sig(models.Neutral, 0), 88)
	require.NoError(t, err)
	assert.True(t, acted)

	got, _ := e.book.Get(sol)
	assert.Equal(t, 6.0, got.Size)
	assert.InDelta(t, 0.6, got.Remaining, 1e-9)
	assert.True(t, got.SecondStopDone)
	require.Len(t, e.ex.Placed, 1)
	assert.Equal(t, "sell", e.ex.Placed[0].Side)
	assert.Equal(t, "long", e.ex.Placed[0].PosSide)
	assert.Equal(t, 4.0, e.ex.Placed[0].Size)

	acted, err = e.x.Manage(ctx, sol, sig(models.Neutral, 0), 87)
	require.NoError(t, err)
	assert.False(t, acted)

	acted, err = e.x.Manage(ctx, sol, sig(models.Neutral, 0), 85)
	require.NoError(t, err)
	assert.True(t, acted)
	assert.False(t, e.book.Has(sol))
	assert.Equal(t, 6.0, e.ex.Placed[1].Size)
}

func TestManageRemainingNeverIncreases(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.book.Put(long(1))

	prev := 1.0
	for _, px := range []float64{100, 92, 95, 88, 90, 86} {
		_, err := e.x.Manage(ctx, sol, sig(models.Neutral, 0), px)
		require.NoError(t, err)
		p, ok := e.book.Get(sol)
		if !ok {
			break
		}
		assert.LessOrEqual(t, p.Remaining, prev)
		assert.Greater(t, p.Remaining, 0.0)
		prev = p.Remaining
	}
}

func TestManageTracksPeak(t *testing.T) {
	e := newEnv(t)
	e.book.Put(long(2))

	acted, err := e.x.Manage(context.Background(), sol, sig(models.Neutral, 0), 103)
	require.NoError(t, err)
	assert.False(t, acted)

	p, _ := e.book.Get(sol)
	assert.True(t, p.PeakSet)
	assert.InDelta(t, 0.06, p.PeakProfit, 1e-9)
}

func TestManageFloatAddResetsStops(t *testing.T) {
	e := newEnv(t)
	p := long(1)
	p.FirstStopDone = true
	e.book.Put(p)

	s := sig(models.Long, 0.7)
	s.Support = models.Level{Price: 90, Strength: 0.75}
	acted, err := e.x.Manage(context.Background(), sol, s, 91)
	require.NoError(t, err)
	assert.True(t, acted)

	got, _ := e.book.Get(sol)
	assert.Equal(t, 11.0, got.Size)
	assert.Equal(t, 11.0, got.OriginalSize)
	assert.Equal(t, 1, got.FloatAddCount)
	avg := (10*100.0 + 91) / 11
	assert.InDelta(t, avg, got.OpenPrice, 1e-9)
	assert.InDelta(t, avg*0.92, got.CurrentStop, 1e-9)
	assert.Equal(t, now, got.LastAddTime)
}

func TestManageRolloverReopensWithHigherCount(t *testing.T) {
	e := newEnv(t)
	e.ex.SetPrice(sol, 116)
	e.ex.Books[sol] = models.BookTop{BidPx: 116, AskPx: 116.1}
	e.book.Put(long(2))
	e.signals.res = sig(models.Long, 0.85)

	acted, err := e.x.Manage(context.Background(), sol, sig(models.Long, 0.8), 116)
	require.NoError(t, err)
	assert.True(t, acted)

	require.Len(t, e.ex.Placed, 2)
	assert.Equal(t, "sell", e.ex.Placed[0].Side)
	assert.Equal(t, 10.0, e.ex.Placed[0].Size)
	assert.Equal(t, 115.88, e.ex.Placed[0].Price)
	assert.Equal(t, "buy", e.ex.Placed[1].Side)

	// прибыль (115.884-100)*10 = 158.84, в ролловер идёт половина, плечо 2
	got, ok := e.book.Get(sol)
	require.True(t, ok)
	assert.Equal(t, 1, got.RolloverCount)
	assert.Equal(t, 1.0, got.Size)
	assert.Equal(t, 116.0, got.OpenPrice)
	assert.Equal(t, "ord-2", got.OpenOrderID)
}

func TestManageRolloverStaysFlatWhenSignalFlips(t *testing.T) {
	e := newEnv(t)
	e.book.Put(long(2))
	e.signals.res = sig(models.Short, 0.9)

	acted, err := e.x.Manage(context.Background(), sol, sig(models.Long, 0.8), 116)
	require.NoError(t, err)
	assert.True(t, acted)
	assert.False(t, e.book.Has(sol))
	assert.Len(t, e.ex.Placed, 1)
}

func TestManageWithoutPosition(t *testing.T) {
	e := newEnv(t)
	acted, err := e.x.Manage(context.Background(), sol, sig(models.Long, 0.9), 100)
	require.NoError(t, err)
	assert.False(t, acted)
}
