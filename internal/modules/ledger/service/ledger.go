package service

import (
	"context"
	"math"
	"sync"
	"time"

	"swap_engine/internal/errs"
	"swap_engine/internal/exchange"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	portfolio "swap_engine/internal/modules/portfolio/service"
	"swap_engine/internal/notify"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Ledger — учёт капитала: equity, маржа позиций и ордеров, свободный остаток.
// Снимок пересчитывается целиком; при ошибке остаётся предыдущий.
type Ledger struct {
	risk  config.RiskConfig
	floor float64

	account exchange.AccountClient
	trade   exchange.TradeClient
	insts   *Instruments
	book    *portfolio.Book
	notify  notify.Notifier
	log     *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	snap    models.AllocationSnapshot
	initial float64
	pending float64
}

func NewLedger(
	cfg *config.Config,
	account exchange.AccountClient,
	trade exchange.TradeClient,
	insts *Instruments,
	book *portfolio.Book,
	n notify.Notifier,
	log *zap.Logger,
) *Ledger {
	return &Ledger{
		risk:    cfg.Risk,
		floor:   cfg.Ledger.LowBalanceFloor,
		account: account,
		trade:   trade,
		insts:   insts,
		book:    book,
		notify:  n,
		log:     log.Named("ledger"),
		now:     time.Now,
	}
}

func (l *Ledger) Snapshot() models.AllocationSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

func (l *Ledger) LowBalance() bool { return l.Snapshot().LowBalance }

// Recompute: баланс, маржа позиций книги, маржа открытых ордеров.
func (l *Ledger) Recompute(ctx context.Context) (models.AllocationSnapshot, error) {
	bal, err := l.account.Balance(ctx)
	if err != nil {
		return l.Snapshot(), errors.Wrap(err, "ledger: balance")
	}
	pending, err := l.pendingMargin(ctx)
	if err != nil {
		return l.Snapshot(), errors.Wrap(err, "ledger: open orders")
	}
	return l.apply(bal.TotalEq, &pending), nil
}

// UpdateBalance обновляет только equity, маржа ордеров берётся из прошлого пересчёта.
func (l *Ledger) UpdateBalance(ctx context.Context) error {
	bal, err := l.account.Balance(ctx)
	if err != nil {
		return errors.Wrap(err, "ledger: balance")
	}
	l.apply(bal.TotalEq, nil)
	return nil
}

// CheckLowBalance переоценивает режим по текущему снимку и книге.
func (l *Ledger) CheckLowBalance() bool {
	l.mu.RLock()
	eq := l.snap.Equity
	l.mu.RUnlock()
	return l.apply(eq, nil).LowBalance
}

func (l *Ledger) apply(equity float64, pending *float64) models.AllocationSnapshot {
	manual, auto := l.book.Margins()

	l.mu.Lock()
	if pending != nil {
		l.pending = *pending
	}
	if l.initial <= 0 && equity > 0 {
		l.initial = equity
		l.log.Info("[LEDGER] initial equity captured", zap.Float64("equity", equity))
	}
	prevLow := l.snap.LowBalance

	snap := models.AllocationSnapshot{
		Equity:        equity,
		InitialEquity: l.initial,
		ManualMargin:  manual,
		AutoMargin:    auto,
		PendingMargin: l.pending,
		ComputedAt:    l.now(),
	}
	snap.Tradable = math.Max(0, equity-snap.TotalMargin())
	snap.LowBalance = snap.Tradable < l.floor
	l.snap = snap
	l.mu.Unlock()

	if snap.LowBalance != prevLow {
		if snap.LowBalance {
			l.log.Warn("[LEDGER] low-balance mode on", zap.Float64("tradable", snap.Tradable), zap.Float64("floor", l.floor))
			l.notify.Sendf("⚠️ Low balance: tradable %.2f USDT < %.2f, only existing positions are managed", snap.Tradable, l.floor)
		} else {
			l.log.Info("[LEDGER] low-balance mode off", zap.Float64("tradable", snap.Tradable))
			l.notify.Sendf("✅ Balance restored: tradable %.2f USDT", snap.Tradable)
		}
	}
	return snap
}

// pendingMargin — маржа неисполненной части открытых ордеров.
func (l *Ledger) pendingMargin(ctx context.Context) (float64, error) {
	orders, err := l.trade.OpenOrders(ctx)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, o := range orders {
		if !o.Open() || o.Price <= 0 {
			continue
		}
		ctVal := 1.0
		if inst, err := l.insts.Get(ctx, o.InstID); err == nil && inst.CtVal > 0 {
			ctVal = inst.CtVal
		}
		lev := o.Leverage
		if lev < 1 {
			lev = 1
		}
		sum += (o.Size - o.FilledSz) * ctVal * o.Price / lev
	}
	return sum, nil
}

func (l *Ledger) lossRatio() (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.initial <= 0 {
		return 0, false
	}
	return (l.snap.Equity - l.initial) / l.initial, true
}

// CheckFatalDrawdown останавливает торговлю при потере половины начального капитала.
func (l *Ledger) CheckFatalDrawdown() error {
	ratio, ok := l.lossRatio()
	if !ok || ratio > -l.risk.FatalLoss {
		return nil
	}
	if l.book.Running() {
		l.book.Stop()
		l.log.Error("[LEDGER] fatal drawdown, trading stopped", zap.Float64("loss_ratio", ratio))
		l.notify.Sendf("🛑 Fatal drawdown %.2f%%: trading stopped", ratio*100)
	}
	return errs.FatalDrawdown(ratio)
}

// DrawdownExceeded — просадка счёта закрывает новые входы.
func (l *Ledger) DrawdownExceeded() bool {
	ratio, ok := l.lossRatio()
	return ok && -ratio >= l.risk.MaxAccountDrawdown
}
