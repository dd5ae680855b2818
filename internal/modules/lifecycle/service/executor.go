package service

import (
	"context"
	"math"
	"time"

	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	journal "swap_engine/internal/modules/journal/service"
	ledger "swap_engine/internal/modules/ledger/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	signal "swap_engine/internal/modules/signal/service"
	"swap_engine/internal/notify"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Orders — то, что нужно исполнителю от шлюза.
type Orders interface {
	Submit(ctx context.Context, in models.OrderIntent) (string, error)
	BestExitPrice(ctx context.Context, symbol string, side models.Direction, last float64) float64
}

// Signals — повторная оценка сигнала при ролловере.
type Signals interface {
	Evaluate(ctx context.Context, symbol string) models.SignalResult
}

type Allocation interface {
	Snapshot() models.AllocationSnapshot
	Recompute(ctx context.Context) (models.AllocationSnapshot, error)
}

// Executor исполняет решения через шлюз и ведёт книгу позиций.
type Executor struct {
	eval     *Evaluator
	exit     config.ExitConfig
	rollover config.RolloverConfig
	entry    config.EntryConfig
	tdMode   string

	orders  Orders
	signals Signals
	insts   *ledger.Instruments
	book    *portfolio.Book
	alloc   Allocation
	journal journal.Recorder
	notify  notify.Notifier
	log     *zap.Logger
	now     func() time.Time
}

func NewExecutor(
	cfg *config.Config,
	eval *Evaluator,
	orders Orders,
	signals Signals,
	insts *ledger.Instruments,
	book *portfolio.Book,
	alloc Allocation,
	rec journal.Recorder,
	n notify.Notifier,
	log *zap.Logger,
) *Executor {
	return &Executor{
		eval:     eval,
		exit:     cfg.Exit,
		rollover: cfg.Rollover,
		entry:    cfg.Entry,
		tdMode:   cfg.Gateway.TdMode,
		orders:   orders,
		signals:  signals,
		insts:    insts,
		book:     book,
		alloc:    alloc,
		journal:  rec,
		notify:   n,
		log:      log.Named("lifecycle"),
		now:      time.Now,
	}
}

// Manage оценивает позицию по символу и исполняет решение. true — было действие.
func (x *Executor) Manage(ctx context.Context, symbol string, sig models.SignalResult, price float64) (bool, error) {
	pos, ok := x.book.Get(symbol)
	if !ok {
		return false, nil
	}
	inst, err := x.insts.Get(ctx, symbol)
	if err != nil {
		return false, errors.Wrapf(err, "lifecycle: instrument %s", symbol)
	}
	snap := x.alloc.Snapshot()
	mkt := Market{
		Price:        price,
		Instrument:   inst,
		Equity:       snap.Equity,
		Tradable:     snap.Tradable,
		CoinNotional: x.book.CoinNotional(pos.Coin),
		Now:          x.now(),
	}

	d := x.eval.Evaluate(pos, sig, mkt)
	x.book.Update(symbol, func(p *models.Position) {
		p.PeakProfit = d.Peak
		p.PeakSet = true
	})
	if !d.Acts() {
		return false, nil
	}

	x.log.Info("[LIFECYCLE] decision",
		zap.String("symbol", symbol),
		zap.String("action", d.Action.String()),
		zap.Float64("qty", d.Quantity),
		zap.Float64("ratio", d.Ratio),
		zap.String("reason", d.Reason),
	)
	return true, x.Apply(ctx, pos, d, mkt)
}

func (x *Executor) Apply(ctx context.Context, pos *models.Position, d Decision, mkt Market) error {
	switch d.Action {
	case PartialClose:
		return x.reduce(ctx, pos, d, mkt)
	case FullClose:
		_, err := x.closeAll(ctx, pos, d.Reason, mkt, closeKind(d))
		return err
	case Rollover:
		return x.roll(ctx, pos, d, mkt)
	case FloatAdd, AddOn:
		return x.add(ctx, pos, d, mkt)
	}
	return nil
}

func closeKind(d Decision) journal.Kind {
	if d.Stage > 0 || d.Tier == 0 {
		return journal.KindStop
	}
	return journal.KindClose
}

func (x *Executor) closeIntent(pos *models.Position, qty, price float64, purpose models.OrderPurpose, reason string) models.OrderIntent {
	return models.OrderIntent{
		Symbol:    pos.Symbol,
		Side:      pos.Side.CloseSide(),
		PosSide:   string(pos.Side),
		TdMode:    x.tdMode,
		Quantity:  qty,
		Price:     price,
		Leverage:  max(1, pos.Leverage),
		Direction: pos.Side,
		Purpose:   purpose,
		Reason:    reason,
	}
}

// closeAll закрывает позицию целиком; возвращает цену выхода.
func (x *Executor) closeAll(ctx context.Context, pos *models.Position, reason string, mkt Market, kind journal.Kind) (float64, error) {
	px := x.orders.BestExitPrice(ctx, pos.Symbol, pos.Side, mkt.Price)
	ordID, err := x.orders.Submit(ctx, x.closeIntent(pos, pos.Size, px, models.PurposeClose, reason))
	if err != nil {
		return 0, errors.Wrapf(err, "close %s", pos.Symbol)
	}
	x.book.Remove(pos.Symbol)

	pnl := pos.AccountProfitRatio(px)
	x.log.Info("[LIFECYCLE] position closed",
		zap.String("symbol", pos.Symbol), zap.String("reason", reason),
		zap.Float64("exit", px), zap.Float64("account_ratio", pnl))
	x.record(ctx, pos, kind, pos.Size, px, reason, ordID)
	x.notify.Sendf("🔴 Closed %s %s %.6g @ %.6g (%.1f%%): %s", pos.Symbol, pos.Side, pos.Size, px, pnl*100, reason)
	x.recompute(ctx)
	return px, nil
}

func (x *Executor) reduce(ctx context.Context, pos *models.Position, d Decision, mkt Market) error {
	px := x.orders.BestExitPrice(ctx, pos.Symbol, pos.Side, mkt.Price)
	ordID, err := x.orders.Submit(ctx, x.closeIntent(pos, d.Quantity, px, models.PurposeReduce, d.Reason))
	if err != nil {
		return errors.Wrapf(err, "reduce %s", pos.Symbol)
	}

	var remaining float64
	x.book.Update(pos.Symbol, func(p *models.Position) {
		p.Size -= d.Quantity
		if p.OriginalSize > 0 {
			p.Remaining = math.Min(p.Remaining, p.Size/p.OriginalSize)
		}
		switch d.Stage {
		case 1:
			p.FirstStopDone = true
		case 2:
			p.SecondStopDone = true
		}
		p.Reprice()
		remaining = p.Remaining
	})

	x.log.Info("[LIFECYCLE] position reduced",
		zap.String("symbol", pos.Symbol), zap.Float64("qty", d.Quantity),
		zap.Float64("remaining", remaining), zap.String("reason", d.Reason))
	x.record(ctx, pos, journal.KindPartial, d.Quantity, px, d.Reason, ordID)
	x.notify.Sendf("🟠 Reduced %s by %.6g @ %.6g, remaining %.0f%%: %s", pos.Symbol, d.Quantity, px, remaining*100, d.Reason)
	x.recompute(ctx)
	return nil
}

// roll: закрыть всё, часть прибыли пустить в новую позицию той же стороны.
func (x *Executor) roll(ctx context.Context, pos *models.Position, d Decision, mkt Market) error {
	exit, err := x.closeAll(ctx, pos, "rollover: "+d.Reason, mkt, journal.KindRollover)
	if err != nil {
		return err
	}

	ctVal := mkt.Instrument.CtVal
	if ctVal <= 0 {
		ctVal = 1
	}
	profit := (exit - pos.OpenPrice) * pos.Side.Sign() * pos.Size * ctVal
	share := math.Max(x.rollover.MinRatio, x.rollover.UseProfitRatio*(1-float64(pos.RolloverCount)*x.rollover.RatioDecay))
	basis := profit * share
	if basis <= 0 {
		x.log.Info("[LIFECYCLE] rollover without profit, staying flat", zap.String("symbol", pos.Symbol), zap.Float64("profit", profit))
		return nil
	}

	fresh := x.signals.Evaluate(ctx, pos.Symbol)
	if !fresh.Tradable || fresh.Direction != pos.Side {
		x.log.Info("[LIFECYCLE] rollover signal gone, staying flat",
			zap.String("symbol", pos.Symbol), zap.String("direction", string(fresh.Direction)))
		return nil
	}
	entry, ok := signal.EntryPrice(x.entry, fresh, mkt.Price)
	if !ok {
		return nil
	}
	lev := max(1, pos.Leverage)
	contracts := helper.FloorToLot(basis*float64(lev)/mkt.Instrument.PerContract(entry), mkt.Instrument.LotSz)
	if contracts < mkt.Instrument.MinSz || contracts <= 0 {
		x.log.Info("[LIFECYCLE] rollover basis below minSz, staying flat",
			zap.String("symbol", pos.Symbol), zap.Float64("basis", basis), zap.Float64("contracts", contracts))
		return nil
	}

	return x.Open(ctx, OpenRequest{
		Symbol:        pos.Symbol,
		Coin:          pos.Coin,
		Direction:     pos.Side,
		Contracts:     contracts,
		Price:         entry,
		Leverage:      lev,
		Strength:      fresh.Strength,
		RolloverCount: pos.RolloverCount + 1,
		Purpose:       models.PurposeRollover,
		Reason:        d.Reason,
		Instrument:    mkt.Instrument,
	})
}

func (x *Executor) add(ctx context.Context, pos *models.Position, d Decision, mkt Market) error {
	ordID, err := x.orders.Submit(ctx, models.OrderIntent{
		Symbol:    pos.Symbol,
		Side:      pos.Side.OpenSide(),
		PosSide:   string(pos.Side),
		TdMode:    x.tdMode,
		Quantity:  d.Quantity,
		Price:     mkt.Price,
		Leverage:  max(1, pos.Leverage),
		Direction: pos.Side,
		Purpose:   models.PurposeAdd,
		Reason:    d.Reason,
	})
	if err != nil {
		return errors.Wrapf(err, "add %s", pos.Symbol)
	}

	var avg, size float64
	x.book.Update(pos.Symbol, func(p *models.Position) {
		grown := p.Size + d.Quantity
		p.OpenPrice = (p.Size*p.OpenPrice + d.Quantity*mkt.Price) / grown
		if p.Remaining >= 1-remainingEps {
			p.OriginalSize = grown
		}
		p.Size = grown
		p.LastAddTime = x.now()
		if d.Action == FloatAdd {
			p.FloatAddCount++
			s := p.Side.Sign()
			p.InitialStop = p.OpenPrice * (1 - s*x.exit.StopLossInit)
			p.CurrentStop = p.InitialStop
		} else {
			p.ExposureAdds++
		}
		p.Reprice()
		avg, size = p.OpenPrice, p.Size
	})

	x.log.Info("[LIFECYCLE] position increased",
		zap.String("symbol", pos.Symbol), zap.String("action", d.Action.String()),
		zap.Float64("qty", d.Quantity), zap.Float64("size", size), zap.Float64("avg_price", avg))
	x.record(ctx, pos, journal.KindAdd, d.Quantity, mkt.Price, d.Reason, ordID)
	x.notify.Sendf("🟢 Added %.6g to %s @ %.6g, avg %.6g: %s", d.Quantity, pos.Symbol, mkt.Price, avg, d.Reason)
	x.recompute(ctx)
	return nil
}

// OpenRequest — вход в новую позицию (Flat → Open).
type OpenRequest struct {
	Symbol        string
	Coin          string
	Direction     models.Direction
	Contracts     float64
	Price         float64
	Leverage      int
	Strength      float64
	RolloverCount int
	Purpose       models.OrderPurpose
	Reason        string
	Instrument    models.Instrument
}

// Open выставляет ордер и заводит позицию в книге, как только шлюз вернул id.
func (x *Executor) Open(ctx context.Context, req OpenRequest) error {
	if req.Purpose == "" {
		req.Purpose = models.PurposeOpen
	}
	ordID, err := x.orders.Submit(ctx, models.OrderIntent{
		Symbol:    req.Symbol,
		Side:      req.Direction.OpenSide(),
		PosSide:   string(req.Direction),
		TdMode:    x.tdMode,
		Quantity:  req.Contracts,
		Price:     req.Price,
		Leverage:  req.Leverage,
		Direction: req.Direction,
		Purpose:   req.Purpose,
		Reason:    req.Reason,
	})
	if err != nil {
		return errors.Wrapf(err, "open %s", req.Symbol)
	}

	pos := &models.Position{
		Symbol:         req.Symbol,
		Coin:           req.Coin,
		Side:           req.Direction,
		Size:           req.Contracts,
		OriginalSize:   req.Contracts,
		Leverage:       req.Leverage,
		OpenPrice:      req.Price,
		CtVal:          req.Instrument.CtVal,
		EntryTime:      x.now(),
		Remaining:      1,
		RolloverCount:  req.RolloverCount,
		SignalStrength: req.Strength,
		OpenOrderID:    ordID,
	}
	pos.ResetTargets(x.exit.StopLossInit, x.exit.TakeProfits)
	pos.Reprice()
	x.book.Put(pos)

	kind := journal.KindOpen
	if req.Purpose == models.PurposeRollover {
		kind = journal.KindRollover
	}
	x.log.Info("[LIFECYCLE] position opened",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Direction)),
		zap.Float64("contracts", req.Contracts),
		zap.Float64("price", req.Price),
		zap.Int("leverage", req.Leverage),
		zap.Float64("margin", pos.Margin),
		zap.Int("rollover", req.RolloverCount),
	)
	x.record(ctx, pos, kind, req.Contracts, req.Price, req.Reason, ordID)
	x.notify.Sendf("🔵 Opened %s %s %.6g @ %.6g x%d (strength %.2f, rollover %d)",
		req.Symbol, req.Direction, req.Contracts, req.Price, req.Leverage, req.Strength, req.RolloverCount)
	x.recompute(ctx)
	return nil
}

func (x *Executor) record(ctx context.Context, pos *models.Position, kind journal.Kind, size, price float64, reason, ordID string) {
	x.journal.Record(ctx, journal.Event{
		Time:    x.now(),
		Symbol:  pos.Symbol,
		Kind:    kind,
		Side:    string(pos.Side),
		Size:    size,
		Price:   price,
		Reason:  reason,
		OrderID: ordID,
	})
}

func (x *Executor) recompute(ctx context.Context) {
	if _, err := x.alloc.Recompute(ctx); err != nil {
		x.log.Warn("[LIFECYCLE] allocation recompute failed", zap.Error(err))
	}
}
