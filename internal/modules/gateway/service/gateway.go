package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"swap_engine/internal/errs"
	"swap_engine/internal/exchange"
	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	journal "swap_engine/internal/modules/journal/service"
	ledger "swap_engine/internal/modules/ledger/service"
	portfolio "swap_engine/internal/modules/portfolio/service"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// staleSpec — отказы, после которых спецификация инструмента перечитывается.
var staleSpec = map[string]bool{
	"51002": true,
	"51003": true,
	"51004": true,
	"51005": true,
	"51121": true,
}

// PriceSource — текущая цена символа.
type PriceSource interface {
	Last(ctx context.Context, instID string) (float64, error)
}

// Gateway — единственная точка отправки ордеров на биржу.
type Gateway struct {
	cfg     config.GatewayConfig
	pending config.PendingConfig

	trade   exchange.TradeClient
	market  exchange.MarketClient
	insts   *ledger.Instruments
	book    *portfolio.Book
	journal journal.Recorder
	prices  PriceSource
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	leverage map[leverageKey]leverageEntry
	orders   map[string]models.PendingOrder
}

func NewGateway(
	cfg *config.Config,
	trade exchange.TradeClient,
	market exchange.MarketClient,
	insts *ledger.Instruments,
	book *portfolio.Book,
	rec journal.Recorder,
	prices PriceSource,
	log *zap.Logger,
) *Gateway {
	return &Gateway{
		cfg:      cfg.Gateway,
		pending:  cfg.Pending,
		trade:    trade,
		market:   market,
		insts:    insts,
		book:     book,
		journal:  rec,
		prices:   prices,
		log:      log.Named("gateway"),
		now:      time.Now,
		leverage: make(map[leverageKey]leverageEntry),
		orders:   make(map[string]models.PendingOrder),
	}
}

// Submit проверяет, приводит к шагам биржи и выставляет лимитный ордер.
// Ошибки валидации и неповторяемые отказы биржи не ретраятся.
func (g *Gateway) Submit(ctx context.Context, in models.OrderIntent) (string, error) {
	if in.TdMode == "" {
		in.TdMode = g.cfg.TdMode
	}

	inst, err := g.insts.Get(ctx, in.Symbol)
	if err != nil {
		g.logFailure(in, err)
		return "", errors.Wrapf(err, "gateway: instrument %s", in.Symbol)
	}

	if err := validate(in, inst); err != nil {
		g.logFailure(in, err)
		return "", err
	}

	px := helper.RoundToTick(in.Price, inst.TickSz)
	sz := helper.FloorToLot(in.Quantity, inst.LotSz)
	if sz < inst.MinSz || sz <= 0 {
		err := errs.Validation("submit", "size %s below minSz %s after lot rounding",
			helper.FormatNum(sz), helper.FormatNum(inst.MinSz))
		g.logFailure(in, err)
		return "", err
	}
	if px <= 0 {
		err := errs.Validation("submit", "price %s collapsed to zero at tick %s",
			helper.FormatNum(in.Price), helper.FormatNum(inst.TickSz))
		g.logFailure(in, err)
		return "", err
	}

	if in.Purpose.Increases() {
		if err := g.ensureLeverage(ctx, in.Symbol, in.Leverage, in.TdMode, in.PosSide); err != nil {
			g.logFailure(in, err)
			return "", err
		}
	}

	req := models.OrderRequest{
		InstID:  in.Symbol,
		ClOrdID: strings.ReplaceAll(uuid.NewString(), "-", ""),
		TdMode:  in.TdMode,
		Side:    in.Side,
		PosSide: in.PosSide,
		OrdType: "limit",
		Size:    sz,
		Price:   px,
	}

	ordID, err := g.place(ctx, req)
	if err != nil {
		if staleSpec[errs.CodeOf(err)] {
			g.insts.Invalidate(in.Symbol)
		}
		g.logFailure(in, err)
		return "", err
	}

	po := models.PendingOrder{
		OrderID:   ordID,
		ClOrdID:   req.ClOrdID,
		Symbol:    in.Symbol,
		Side:      in.Side,
		PosSide:   in.PosSide,
		Price:     px,
		Size:      sz,
		Direction: in.Direction,
		Purpose:   in.Purpose,
		PlacedAt:  g.now(),
		Leverage:  in.Leverage,
	}
	g.mu.Lock()
	g.orders[ordID] = po
	g.mu.Unlock()

	g.log.Info("[GATEWAY] order placed",
		zap.String("symbol", in.Symbol),
		zap.String("ord_id", ordID),
		zap.String("side", in.Side),
		zap.String("pos_side", in.PosSide),
		zap.Float64("size", sz),
		zap.Float64("price", px),
		zap.Int("leverage", in.Leverage),
		zap.String("purpose", string(in.Purpose)),
		zap.String("reason", in.Reason),
	)
	g.journal.Record(ctx, journal.Event{
		Time:    po.PlacedAt,
		Symbol:  in.Symbol,
		Kind:    journal.KindOrder,
		Side:    in.Side,
		Size:    sz,
		Price:   px,
		Reason:  string(in.Purpose) + ": " + in.Reason,
		OrderID: ordID,
	})
	return ordID, nil
}

func (g *Gateway) place(ctx context.Context, req models.OrderRequest) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.cfg.InitialBackoff
	policy.MaxInterval = g.cfg.MaxBackoff

	notify := func(err error, d time.Duration) {
		g.log.Warn("[GATEWAY] place order retry",
			zap.String("symbol", req.InstID), zap.Duration("backoff", d), zap.Error(err))
	}

	operation := func() (string, error) {
		ordID, err := g.trade.PlaceOrder(ctx, req)
		if err == nil {
			return ordID, nil
		}
		if errs.Transient(err) {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(max(1, g.cfg.MaxAttempts))),
		backoff.WithNotify(notify))
}

func (g *Gateway) logFailure(in models.OrderIntent, err error) {
	fields := []zap.Field{
		zap.String("symbol", in.Symbol),
		zap.String("side", in.Side),
		zap.String("pos_side", in.PosSide),
		zap.Float64("size", in.Quantity),
		zap.Float64("price", in.Price),
		zap.Int("leverage", in.Leverage),
		zap.String("purpose", string(in.Purpose)),
		zap.String("kind", errs.KindOf(err).String()),
		zap.Error(err),
	}
	if code := errs.CodeOf(err); code != "" {
		explanation, suggestion := errs.Explain(code)
		fields = append(fields,
			zap.String("code", code),
			zap.String("explanation", explanation),
			zap.String("suggestion", suggestion))
	}
	g.log.Error("[GATEWAY] order failed", fields...)
}

// BestExitPrice — цена закрытия с небольшим запасом от лучшей цены стакана.
func (g *Gateway) BestExitPrice(ctx context.Context, symbol string, side models.Direction, last float64) float64 {
	book, err := g.market.OrderBookTop(ctx, symbol)
	if err != nil {
		g.log.Debug("[GATEWAY] order book unavailable, using last", zap.String("symbol", symbol), zap.Error(err))
		return last
	}
	if side == models.Short {
		if book.AskPx > 0 {
			return book.AskPx * 1.001
		}
		return last
	}
	if book.BidPx > 0 {
		return book.BidPx * 0.999
	}
	return last
}
