package service

import (
	"context"
	"time"

	"swap_engine/internal/modules/config"
	gateway "swap_engine/internal/modules/gateway/service"
	ledger "swap_engine/internal/modules/ledger/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	universe "swap_engine/internal/modules/universe/service"
	"swap_engine/internal/notify"

	"go.uber.org/zap"
)

// Processor — конвейер одного символа.
type Processor interface {
	ProcessSymbol(ctx context.Context, symbol string) error
	PerformanceReport(ctx context.Context) string
}

type Syncer interface {
	SyncPositions(ctx context.Context) error
}

// Watcher — подписка живых цен на выбранные символы.
type Watcher interface {
	Watch(symbols []string)
}

type Deps struct {
	Cfg      *config.Config
	Proc     Processor
	Sync     Syncer
	Watch    Watcher
	Selector *universe.Selector
	Gateway  *gateway.Gateway
	Ledger   *ledger.Ledger
	Book     *portfolio.Book
	Notify   notify.Notifier
	Log      *zap.Logger
}

// tasks держит зависимости задач движка.
type tasks struct {
	Deps
	cfg   config.SchedulerConfig
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// NewEngine собирает планировщик со всеми задачами движка.
func NewEngine(d Deps) *Scheduler {
	s := NewScheduler(d.Cfg.Scheduler.Tick, d.Book.Running, d.Log)
	t := &tasks{Deps: d, cfg: d.Cfg.Scheduler, log: d.Log.Named("tasks"), sleep: sleepCtx, now: time.Now}
	t.register(s)
	return s
}

func (t *tasks) register(s *Scheduler) {
	c := t.cfg
	s.Register("monitor_high", t.tierInterval(c.High, c.LowBalanceHigh), t.monitorTier("high", true, func(x portfolio.Tiers) []string { return x.High }))
	s.Register("monitor_medium", t.tierInterval(c.Medium, c.LowBalanceMedium), t.monitorTier("medium", false, func(x portfolio.Tiers) []string { return x.Medium }))
	s.Register("monitor_low", t.tierInterval(c.Low, c.LowBalanceLow), t.monitorTier("low", false, func(x portfolio.Tiers) []string { return x.Low }))
	s.Register("monitor_pending", Every(t.Cfg.Pending.MonitorInterval), t.monitorPending)
	s.Register("select_symbols", Every(c.SelectSymbols), t.selectSymbols)
	s.Register("update_balance", Every(c.UpdateBalance), t.Ledger.UpdateBalance)
	s.Register("sync_positions", Every(c.SyncPositions), t.Sync.SyncPositions)
	s.Register("recalculate_assets", Every(c.RecalculateAssets), t.recalculate)
	s.Register("check_low_balance", Every(c.CheckLowBalance), t.checkLowBalance)
	s.Register("cleanup_leverage", Every(c.CleanupLeverage), t.cleanupLeverage)
	s.Register("performance_report", Every(c.PerformanceReport), t.performanceReport)
}

func (t *tasks) tierInterval(normal, lowBalance time.Duration) Interval {
	return func() time.Duration {
		if t.Ledger.LowBalance() {
			return lowBalance
		}
		return normal
	}
}

// monitorTier: символы корзины по одному с паузой.
// Все позиции ведёт корзина с positions=true, остальные их пропускают.
func (t *tasks) monitorTier(tier string, positions bool, pick func(portfolio.Tiers) []string) TaskFunc {
	return func(ctx context.Context) error {
		symbols := t.tierSymbols(positions, pick(t.Book.Tiers()))
		for i, sym := range symbols {
			if !t.Book.Running() || ctx.Err() != nil {
				return nil
			}
			start := t.now()
			if err := t.Proc.ProcessSymbol(ctx, sym); err != nil {
				t.log.Warn("[TASKS] symbol failed", zap.String("tier", tier), zap.String("symbol", sym), zap.Error(err))
			}
			if took := t.now().Sub(start); took > t.cfg.SlowSymbol {
				t.log.Warn("[TASKS] slow symbol", zap.String("tier", tier), zap.String("symbol", sym), zap.Duration("took", took))
			}
			if i < len(symbols)-1 && t.cfg.SymbolPause > 0 {
				t.sleep(ctx, t.cfg.SymbolPause)
			}
		}
		return nil
	}
}

// tierSymbols: позиции идут после символов корзины; в low balance только позиции.
func (t *tasks) tierSymbols(positions bool, tier []string) []string {
	held := t.Book.Symbols()
	if t.Ledger.LowBalance() {
		if positions {
			return held
		}
		return nil
	}

	skip := make(map[string]bool, len(held))
	for _, sym := range held {
		skip[sym] = true
	}
	out := make([]string, 0, len(tier)+len(held))
	if positions {
		out = append(out, tier...)
		for _, sym := range tier {
			delete(skip, sym)
		}
		for _, sym := range held {
			if skip[sym] {
				out = append(out, sym)
			}
		}
		return out
	}
	for _, sym := range tier {
		if !skip[sym] {
			out = append(out, sym)
		}
	}
	return out
}

func (t *tasks) monitorPending(ctx context.Context) error {
	if n := t.Gateway.MonitorPending(ctx); n > 0 {
		t.log.Info("[TASKS] pending orders settled", zap.Int("count", n))
		return t.recalculate(ctx)
	}
	return nil
}

func (t *tasks) selectSymbols(ctx context.Context) error {
	_, err := t.Selector.Select(ctx)
	if t.Watch != nil {
		t.Watch.Watch(t.Book.WatchList())
	}
	return err
}

func (t *tasks) recalculate(ctx context.Context) error {
	_, err := t.Ledger.Recompute(ctx)
	return err
}

// checkLowBalance заодно проверяет фатальную просадку.
func (t *tasks) checkLowBalance(context.Context) error {
	t.Ledger.CheckLowBalance()
	return t.Ledger.CheckFatalDrawdown()
}

func (t *tasks) cleanupLeverage(context.Context) error {
	if n := t.Gateway.CleanupLeverage(0); n > 0 {
		t.log.Info("[TASKS] leverage cache cleaned", zap.Int("removed", n))
	}
	return nil
}

func (t *tasks) performanceReport(ctx context.Context) error {
	t.Notify.Send(t.Proc.PerformanceReport(ctx))
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
