package service

import (
	"context"
	"math"
	"time"

	"swap_engine/internal/exchange"
	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	ledger "swap_engine/internal/modules/ledger/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	universe "swap_engine/internal/modules/universe/service"
	"swap_engine/internal/notify"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const positionMode = "long_short_mode"

// Ready отмечает готовность для /readyz.
type Ready interface {
	SetReady(v bool)
}

type Watcher interface {
	Watch(symbols []string)
}

// PendingChecker — есть ли живой ордер по символу.
type PendingChecker interface {
	HasPending(symbol string) bool
}

// Bootstrap синхронизирует движок с биржей на старте и периодически.
type Bootstrap struct {
	exit     config.ExitConfig
	account  exchange.AccountClient
	market   exchange.MarketClient
	insts    *ledger.Instruments
	ledger   *ledger.Ledger
	book     *portfolio.Book
	selector *universe.Selector
	pending  PendingChecker
	watch    Watcher
	candles  CandleSource
	ready    Ready
	notify   notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewBootstrap(
	cfg *config.Config,
	account exchange.AccountClient,
	market exchange.MarketClient,
	insts *ledger.Instruments,
	l *ledger.Ledger,
	book *portfolio.Book,
	selector *universe.Selector,
	pending PendingChecker,
	watch Watcher,
	candles CandleSource,
	ready Ready,
	n notify.Notifier,
	log *zap.Logger,
) *Bootstrap {
	return &Bootstrap{
		exit:     cfg.Exit,
		account:  account,
		market:   market,
		insts:    insts,
		ledger:   l,
		book:     book,
		selector: selector,
		pending:  pending,
		watch:    watch,
		candles:  candles,
		ready:    ready,
		notify:   n,
		log:      log.Named("bootstrap"),
		now:      time.Now,
	}
}

// Start: режим позиций, загрузка инструментов/баланса/позиций, перехват ручных позиций,
// пересчёт аллокации, выбор символов, прогрев. В конце движок помечается готовым.
func (b *Bootstrap) Start(ctx context.Context) error {
	if err := b.account.SetPositionMode(ctx, positionMode); err != nil {
		// 59000: режим нельзя сменить при открытых позициях/ордерах
		b.log.Warn("[BOOT] set position mode failed", zap.Error(err))
	}

	var positions []models.ExchangePosition
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := b.market.Instruments(gctx)
		if err != nil {
			return errors.Wrap(err, "instruments")
		}
		b.insts.Warm(list)
		b.log.Info("[BOOT] instruments loaded", zap.Int("count", len(list)))
		return nil
	})
	g.Go(func() error {
		return b.ledger.UpdateBalance(gctx)
	})
	g.Go(func() error {
		list, err := b.account.Positions(gctx)
		if err != nil {
			return errors.Wrap(err, "positions")
		}
		positions = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "bootstrap: load")
	}

	taken := 0
	for _, ep := range positions {
		if b.takeOver(ctx, ep) {
			taken++
		}
	}

	snap, err := b.ledger.Recompute(ctx)
	if err != nil {
		b.log.Warn("[BOOT] allocation recompute failed", zap.Error(err))
	}

	if _, err := b.selector.Select(ctx); err != nil {
		b.log.Warn("[BOOT] symbol selection failed, using defaults", zap.Error(err))
	}
	symbols := b.book.WatchList()
	if b.watch != nil {
		b.watch.Watch(symbols)
	}
	b.Warmup(ctx, symbols)

	if b.ready != nil {
		b.ready.SetReady(true)
	}
	b.log.Info("[BOOT] ready",
		zap.Float64("equity", snap.Equity),
		zap.Float64("tradable", snap.Tradable),
		zap.Int("manual_positions", taken),
		zap.Int("symbols", len(symbols)),
	)
	b.notify.Sendf("🚀 Engine started: equity %.2f, tradable %.2f, manual positions %d, symbols %d",
		snap.Equity, snap.Tradable, taken, len(symbols))
	return nil
}

// SyncPositions сверяет книгу с биржей.
func (b *Bootstrap) SyncPositions(ctx context.Context) error {
	list, err := b.account.Positions(ctx)
	if err != nil {
		return errors.Wrap(err, "sync positions")
	}
	live := make(map[string]models.ExchangePosition, len(list))
	for _, ep := range list {
		if ep.Pos == 0 {
			continue
		}
		if _, dup := live[ep.InstID]; dup {
			b.log.Warn("[BOOT] both sides open on exchange, keeping first", zap.String("symbol", ep.InstID))
			continue
		}
		live[ep.InstID] = ep
	}

	for _, pos := range b.book.All() {
		ep, ok := live[pos.Symbol]
		if !ok {
			if b.pending != nil && b.pending.HasPending(pos.Symbol) {
				continue
			}
			b.book.Remove(pos.Symbol)
			b.log.Info("[BOOT] position gone from exchange", zap.String("symbol", pos.Symbol), zap.Bool("manual", pos.Manual))
			continue
		}
		delete(live, pos.Symbol)

		size := math.Abs(ep.Pos)
		if size == pos.Size {
			continue
		}
		b.book.Update(pos.Symbol, func(p *models.Position) {
			p.Size = size
			if p.OriginalSize > 0 {
				p.Remaining = math.Min(p.Remaining, size/p.OriginalSize)
			}
			p.Reprice()
		})
		b.log.Info("[BOOT] position size refreshed",
			zap.String("symbol", pos.Symbol),
			zap.Float64("was", pos.Size),
			zap.Float64("now", size),
		)
	}

	adopted := 0
	for _, ep := range list {
		if _, fresh := live[ep.InstID]; fresh && !b.book.Has(ep.InstID) && b.takeOver(ctx, ep) {
			adopted++
		}
	}
	if adopted > 0 && b.watch != nil {
		b.watch.Watch(b.book.WatchList())
	}

	_, err = b.ledger.Recompute(ctx)
	return err
}

// takeOver заводит позицию с биржи как ручную.
func (b *Bootstrap) takeOver(ctx context.Context, ep models.ExchangePosition) bool {
	if ep.Pos == 0 || b.book.Has(ep.InstID) {
		return false
	}
	var ctVal float64
	if inst, err := b.insts.Get(ctx, ep.InstID); err == nil {
		ctVal = inst.CtVal
	} else {
		b.log.Warn("[BOOT] instrument for manual position", zap.String("symbol", ep.InstID), zap.Error(err))
	}

	pos := ManualPosition(ep, ctVal, b.now())
	pos.ResetTargets(b.exit.StopLossInit, b.exit.TakeProfits)
	b.book.Put(pos)

	b.log.Info("[BOOT] manual position taken over",
		zap.String("symbol", pos.Symbol),
		zap.String("side", string(pos.Side)),
		zap.Float64("size", pos.Size),
		zap.Float64("avgPx", pos.OpenPrice),
		zap.Int("leverage", pos.Leverage),
		zap.Float64("margin", pos.Margin),
	)
	b.notify.Sendf("👋 Took over manual position %s %s %.6g @ %.6g x%d",
		pos.Symbol, pos.Side, pos.Size, pos.OpenPrice, pos.Leverage)
	return true
}

// ManualPosition переводит биржевую позицию в модель книги.
func ManualPosition(ep models.ExchangePosition, ctVal float64, now time.Time) *models.Position {
	side := models.Long
	switch ep.PosSide {
	case "long":
	case "short":
		side = models.Short
	default:
		if ep.Pos < 0 {
			side = models.Short
		}
	}

	lev := int(math.Round(ep.Lever))
	if lev < 1 {
		lev = 1
	}
	size := math.Abs(ep.Pos)

	pos := &models.Position{
		Symbol:       ep.InstID,
		Coin:         helper.CoinOf(ep.InstID),
		Side:         side,
		Size:         size,
		OriginalSize: size,
		Leverage:     lev,
		OpenPrice:    ep.AvgPx,
		CtVal:        ctVal,
		EntryTime:    now,
		Remaining:    1,
		Manual:       true,
	}
	pos.Reprice()
	if ep.NotionalUsd > 0 {
		pos.Notional = ep.NotionalUsd
	}
	pos.Margin = ep.Margin
	if pos.Margin <= 0 {
		pos.Margin = pos.Notional / float64(lev)
	}
	return pos
}
