package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"swap_engine/internal/errs"
	"swap_engine/internal/exchange/exchangetest"
	"swap_engine/internal/models"
	cache "swap_engine/internal/modules/cache/service"
	"swap_engine/internal/modules/config"
	journal "swap_engine/internal/modules/journal/service"
	ledger "swap_engine/internal/modules/ledger/service"
	portfolio "swap_engine/internal/modules/portfolio/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sym = "ETH-USDT-SWAP"

type tickerPrices struct{ ex *exchangetest.Fake }

func (p tickerPrices) Last(ctx context.Context, instID string) (float64, error) {
	t, err := p.ex.Ticker(ctx, instID)
	return t.Last, err
}

type fixture struct {
	ex    *exchangetest.Fake
	book  *portfolio.Book
	insts *ledger.Instruments
	gw    *Gateway
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Gateway.InitialBackoff = time.Millisecond
	cfg.Gateway.MaxBackoff = 2 * time.Millisecond

	ex := exchangetest.New()
	ex.AddInstrument(sym, 0.1, 1, 1, 0.01, 100)
	book := portfolio.NewBook(cfg)
	insts := ledger.NewInstruments(cfg, ex, cache.NewCache())

	f := &fixture{ex: ex, book: book, insts: insts, now: time.Unix(1_700_000_000, 0)}
	f.gw = NewGateway(cfg, ex, ex, insts, book, journal.Nop{}, tickerPrices{ex: ex}, zap.NewNop())
	f.gw.now = func() time.Time { return f.now }
	return f
}

func openIntent(qty, px float64) models.OrderIntent {
	return models.OrderIntent{
		Symbol: sym, Side: "buy", PosSide: "long", TdMode: "cross",
		Quantity: qty, Price: px, Leverage: 3, Direction: models.Long, Purpose: models.PurposeOpen,
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(in *models.OrderIntent){
		"zero qty":      func(in *models.OrderIntent) { in.Quantity = 0 },
		"not lot":       func(in *models.OrderIntent) { in.Quantity = 2.5 },
		"zero price":    func(in *models.OrderIntent) { in.Price = 0 },
		"leverage":      func(in *models.OrderIntent) { in.Leverage = 101 },
		"side":          func(in *models.OrderIntent) { in.Side = "long" },
		"td mode":       func(in *models.OrderIntent) { in.TdMode = "cash" },
		"cross posSide": func(in *models.OrderIntent) { in.PosSide = "net" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := openIntent(2, 100)
			mutate(&in)
			_, err := f.gw.Submit(ctx, in)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindValidation), err.Error())
		})
	}
	assert.Zero(t, f.ex.PlaceCalls)
	assert.Empty(t, f.ex.LeverageSets)
}

func TestSubmitPlacesLimitOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.gw.Submit(ctx, openIntent(2, 100.004))
	require.NoError(t, err)
	assert.Equal(t, "ord-1", id)

	require.Len(t, f.ex.Placed, 1)
	req := f.ex.Placed[0]
	assert.Equal(t, "limit", req.OrdType)
	assert.Equal(t, 100.0, req.Price)
	assert.Equal(t, 2.0, req.Size)
	assert.Len(t, req.ClOrdID, 32)
	assert.False(t, strings.Contains(req.ClOrdID, "-"))

	pending := f.gw.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.PurposeOpen, pending[0].Purpose)
	assert.True(t, f.gw.HasPending(sym))

	_, err = f.gw.Submit(ctx, openIntent(1, 100))
	require.NoError(t, err)
	assert.Equal(t, []string{sym + ":cross:long:3"}, f.ex.LeverageSets)
}

func TestSubmitCloseDoesNotTouchLeverage(t *testing.T) {
	f := newFixture(t)
	in := openIntent(1, 100)
	in.Side, in.Purpose = "sell", models.PurposeClose
	_, err := f.gw.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, f.ex.LeverageSets)
}

func TestSubmitRetriesTransient(t *testing.T) {
	f := newFixture(t)
	f.ex.PlaceErrs = []error{
		errs.Connection("place_order", assert.AnError),
		errs.Rejection("place_order", "50011", "rate limit"),
	}
	id, err := f.gw.Submit(context.Background(), openIntent(1, 100))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 3, f.ex.PlaceCalls)
}

func TestSubmitDoesNotRetryRejection(t *testing.T) {
	f := newFixture(t)
	f.ex.PlaceErrs = []error{errs.Rejection("place_order", "51008", "insufficient balance")}
	_, err := f.gw.Submit(context.Background(), openIntent(1, 100))
	require.Error(t, err)
	assert.Equal(t, "51008", errs.CodeOf(err))
	assert.Equal(t, 1, f.ex.PlaceCalls)
	assert.Empty(t, f.gw.Pending())
}

func TestSubmitLotRejectionRefreshesInstrument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inst, err := f.insts.Get(ctx, sym)
	require.NoError(t, err)
	require.Equal(t, 1.0, inst.LotSz)

	inst.LotSz, inst.MinSz = 2, 2
	f.ex.Insts[sym] = inst
	f.ex.PlaceErrs = []error{errs.Rejection("place_order", "51121", "lot size")}
	_, err = f.gw.Submit(ctx, openIntent(3, 100))
	require.Error(t, err)

	fresh, err := f.insts.Get(ctx, sym)
	require.NoError(t, err)
	assert.Equal(t, 2.0, fresh.LotSz)
}

func TestSubmitOtherRejectionKeepsInstrument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inst, err := f.insts.Get(ctx, sym)
	require.NoError(t, err)

	inst.LotSz, inst.MinSz = 2, 2
	f.ex.Insts[sym] = inst
	f.ex.PlaceErrs = []error{errs.Rejection("place_order", "51008", "insufficient balance")}
	_, err = f.gw.Submit(ctx, openIntent(3, 100))
	require.Error(t, err)

	cached, err := f.insts.Get(ctx, sym)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cached.LotSz)
}

func TestSubmitGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.ex.PlaceErrs = append(f.ex.PlaceErrs, errs.Connection("place_order", assert.AnError))
	}
	_, err := f.gw.Submit(context.Background(), openIntent(1, 100))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConnection))
	assert.Equal(t, 3, f.ex.PlaceCalls)
}

func TestMonitorPendingCancelsExpiredAndRemovesPhantom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.gw.Submit(ctx, openIntent(2, 100))
	require.NoError(t, err)
	f.book.Put(&models.Position{Symbol: sym, Coin: "ETH", Side: models.Long, Size: 2, OriginalSize: 2, OpenOrderID: id})

	f.now = f.now.Add(11 * time.Hour)
	assert.Zero(t, f.gw.MonitorPending(ctx))
	assert.Empty(t, f.ex.Cancelled)

	f.now = f.now.Add(time.Hour + time.Second)
	assert.Equal(t, 1, f.gw.MonitorPending(ctx))
	assert.Equal(t, []string{id}, f.ex.Cancelled)
	assert.Empty(t, f.gw.Pending())
	assert.False(t, f.book.Has(sym))
}

func TestMonitorPendingExpiresOrderWithUnknownState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.gw.Submit(ctx, openIntent(2, 100))
	require.NoError(t, err)
	f.book.Put(&models.Position{Symbol: sym, Coin: "ETH", Side: models.Long, Size: 2, OriginalSize: 2, OpenOrderID: id})
	f.ex.GetOrderErr = errs.Connection("get_order", assert.AnError)

	f.now = f.now.Add(time.Hour)
	assert.Zero(t, f.gw.MonitorPending(ctx))
	assert.True(t, f.gw.HasPending(sym))

	f.now = f.now.Add(12 * time.Hour)
	assert.Equal(t, 1, f.gw.MonitorPending(ctx))
	assert.Equal(t, []string{id}, f.ex.Cancelled)
	assert.False(t, f.gw.HasPending(sym))
	assert.True(t, f.book.Has(sym), "fill is unknown, left to position sync")
}

func TestMonitorPendingCancelsOnAdverseMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.gw.Submit(ctx, openIntent(1, 100))
	require.NoError(t, err)

	f.ex.SetPrice(sym, 96)
	assert.Zero(t, f.gw.MonitorPending(ctx))

	f.ex.SetPrice(sym, 94)
	assert.Equal(t, 1, f.gw.MonitorPending(ctx))
	assert.Len(t, f.ex.Cancelled, 1)
}

func TestMonitorPendingForgetsFilledAndTrimsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	filled, _ := f.gw.Submit(ctx, openIntent(2, 100))
	f.ex.SetOrderState(filled, "filled", 2)

	unknown, _ := f.gw.Submit(ctx, models.OrderIntent{
		Symbol: "BTC-USDT-SWAP", Side: "sell", PosSide: "short", TdMode: "cross",
		Quantity: 4, Price: 100, Leverage: 2, Direction: models.Short, Purpose: models.PurposeOpen,
	})
	require.Empty(t, unknown, "unknown instrument must not be placed")

	f.book.Put(&models.Position{Symbol: sym, Side: models.Long, Size: 2, OriginalSize: 2, OpenOrderID: filled})
	assert.Equal(t, 1, f.gw.MonitorPending(ctx))
	assert.True(t, f.book.Has(sym))

	second, _ := f.gw.Submit(ctx, openIntent(4, 100))
	f.book.Put(&models.Position{Symbol: sym, Side: models.Long, Size: 4, OriginalSize: 4, CtVal: 0.1, OpenPrice: 100, Leverage: 2, OpenOrderID: second})
	f.ex.SetOrderState(second, "canceled", 1)
	assert.Equal(t, 1, f.gw.MonitorPending(ctx))

	pos, ok := f.book.Get(sym)
	require.True(t, ok)
	assert.Equal(t, 1.0, pos.Size)
	assert.InDelta(t, 5.0, pos.Margin, 1e-9)
}

func TestCleanupLeverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.gw.Submit(ctx, openIntent(1, 100))
	require.NoError(t, err)

	assert.Zero(t, f.gw.CleanupLeverage(0))
	f.now = f.now.Add(25 * time.Hour)
	assert.Equal(t, 1, f.gw.CleanupLeverage(0))

	_, err = f.gw.Submit(ctx, openIntent(1, 100))
	require.NoError(t, err)
	assert.Len(t, f.ex.LeverageSets, 2)
}

func TestBestExitPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ex.Books[sym] = models.BookTop{BidPx: 100, AskPx: 101}

	assert.InDelta(t, 99.9, f.gw.BestExitPrice(ctx, sym, models.Long, 100.5), 1e-9)
	assert.InDelta(t, 101.101, f.gw.BestExitPrice(ctx, sym, models.Short, 100.5), 1e-9)
	assert.Equal(t, 50.0, f.gw.BestExitPrice(ctx, "NOPE-USDT-SWAP", models.Long, 50))
}
