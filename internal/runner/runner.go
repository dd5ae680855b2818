package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	gateway "swap_engine/internal/modules/gateway/service"
	ledger "swap_engine/internal/modules/ledger/service"
	lifecycle "swap_engine/internal/modules/lifecycle/service"
	portfolio "swap_engine/internal/modules/portfolio/service"
	signal "swap_engine/internal/modules/signal/service"
	sizer "swap_engine/internal/modules/sizer/service"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Runner — конвейер одного символа: сигнал → позиция → вход.
type Runner struct {
	risk  config.RiskConfig
	entry config.EntryConfig

	signals lifecycle.Signals
	prices  gateway.PriceSource
	exec    *lifecycle.Executor
	sizer   *sizer.Sizer
	ledger  *ledger.Ledger
	insts   *ledger.Instruments
	gw      *gateway.Gateway
	book    *portfolio.Book
	log     *zap.Logger
	now     func() time.Time
}

func NewRunner(
	cfg *config.Config,
	signals lifecycle.Signals,
	prices gateway.PriceSource,
	exec *lifecycle.Executor,
	sz *sizer.Sizer,
	l *ledger.Ledger,
	insts *ledger.Instruments,
	gw *gateway.Gateway,
	book *portfolio.Book,
	log *zap.Logger,
) *Runner {
	return &Runner{
		risk:    cfg.Risk,
		entry:   cfg.Entry,
		signals: signals,
		prices:  prices,
		exec:    exec,
		sizer:   sz,
		ledger:  l,
		insts:   insts,
		gw:      gw,
		book:    book,
		log:     log.Named("runner"),
		now:     time.Now,
	}
}

// ProcessSymbol проходит весь цикл по символу. Паника не роняет движок.
func (r *Runner) ProcessSymbol(ctx context.Context, symbol string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("[RUNNER] panic",
				zap.String("symbol", symbol),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("runner: panic on %s: %v", symbol, rec)
		}
	}()

	if !r.book.Running() {
		return nil
	}
	has := r.book.Has(symbol)
	if r.ledger.LowBalance() && !has {
		return nil
	}
	if !helper.IsSwap(symbol) {
		r.log.Debug("[RUNNER] not a swap, skip", zap.String("symbol", symbol))
		return nil
	}

	sig := r.signals.Evaluate(ctx, symbol)
	if reason, failed := sig.Failures["market_data"]; failed || len(sig.Candles) == 0 {
		r.log.Warn("[RUNNER] no market data", zap.String("symbol", symbol), zap.String("reason", reason))
		return nil
	}

	price := r.currentPrice(ctx, symbol, sig)
	if price <= 0 {
		return nil
	}

	if has {
		acted, err := r.exec.Manage(ctx, symbol, sig, price)
		if err != nil {
			return errors.Wrapf(err, "runner: manage %s", symbol)
		}
		if acted {
			return nil
		}
	}

	return r.tryOpen(ctx, symbol, sig, price, has)
}

func (r *Runner) currentPrice(ctx context.Context, symbol string, sig models.SignalResult) float64 {
	if r.prices != nil {
		px, err := r.prices.Last(ctx, symbol)
		if err == nil && px > 0 {
			return px
		}
		if err != nil {
			r.log.Debug("[RUNNER] live price unavailable, using last close", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return sig.LastClose
}

func (r *Runner) tryOpen(ctx context.Context, symbol string, sig models.SignalResult, price float64, has bool) error {
	if r.ledger.LowBalance() || r.ledger.DrawdownExceeded() {
		return nil
	}
	if !sig.Tradable || sig.Direction == models.Neutral {
		return nil
	}
	// одна позиция на символ; живой ордер на вход тоже считается
	if has || r.gw.HasPending(symbol) {
		return nil
	}

	snap := r.ledger.Snapshot()
	coin := helper.CoinOf(symbol)
	coinNotional := r.book.CoinNotional(coin)
	if snap.Equity > 0 && coinNotional/snap.Equity > r.risk.CoinCap {
		r.log.Info("[RUNNER] coin exposure at cap",
			zap.String("symbol", symbol),
			zap.Float64("coinNotional", coinNotional),
			zap.Float64("equity", snap.Equity),
		)
		return nil
	}
	if snap.Tradable < r.risk.MinTradable {
		return nil
	}

	entry, ok := signal.EntryPrice(r.entry, sig, price)
	if !ok {
		return nil
	}

	inst, err := r.insts.Get(ctx, symbol)
	if err != nil {
		return errors.Wrapf(err, "runner: instrument %s", symbol)
	}

	res := r.sizer.Size(sizer.Input{
		Symbol:       symbol,
		Price:        entry,
		Strength:     sig.Strength,
		Direction:    sig.Direction,
		Volatility:   sig.Volatility,
		Instrument:   inst,
		Equity:       snap.Equity,
		Tradable:     snap.Tradable,
		CoinNotional: coinNotional,
	})
	if res.Contracts <= 0 {
		return nil
	}

	err = r.exec.Open(ctx, lifecycle.OpenRequest{
		Symbol:     symbol,
		Coin:       coin,
		Direction:  sig.Direction,
		Contracts:  res.Contracts,
		Price:      entry,
		Leverage:   res.Leverage,
		Strength:   sig.Strength,
		Purpose:    models.PurposeOpen,
		Reason:     fmt.Sprintf("signal %.2f", sig.Strength),
		Instrument: inst,
	})
	if err != nil {
		return errors.Wrapf(err, "runner: open %s", symbol)
	}
	return nil
}
