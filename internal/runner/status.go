package runner

import (
	"context"
	"fmt"
	"strings"

	health "swap_engine/internal/modules/health/service"

	"go.uber.org/zap"
)

func (r *Runner) Status() health.Status {
	snap := r.ledger.Snapshot()
	return health.Status{
		Running:    r.book.Running(),
		LowBalance: snap.LowBalance,
		Positions:  r.book.Len(),
		Pending:    len(r.gw.Pending()),
		Equity:     snap.Equity,
		Tradable:   snap.Tradable,
	}
}

func (r *Runner) PositionsReport() string {
	positions := r.book.All()
	if len(positions) == 0 {
		return "No open positions"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Positions (%d):\n", len(positions))
	for _, p := range positions {
		tag := ""
		if p.Manual {
			tag = " [manual]"
		}
		fmt.Fprintf(&b, "%s %s %.6g @ %.6g x%d, margin %.2f, remaining %.0f%%, rollover %d%s\n",
			p.Symbol, p.Side, p.Size, p.OpenPrice, p.Leverage, p.Margin, p.Remaining*100, p.RolloverCount, tag)
	}
	return b.String()
}

func (r *Runner) StatusReport() string {
	st := r.Status()
	snap := r.ledger.Snapshot()
	return fmt.Sprintf(
		"running=%t lowBalance=%t\nequity %.2f (initial %.2f), tradable %.2f\nmargin manual %.2f auto %.2f pending %.2f\npositions %d, pending orders %d",
		st.Running, st.LowBalance,
		snap.Equity, snap.InitialEquity, snap.Tradable,
		snap.ManualMargin, snap.AutoMargin, snap.PendingMargin,
		st.Positions, st.Pending,
	)
}

// PerformanceReport — heartbeat с нереализованным PnL по открытым позициям.
func (r *Runner) PerformanceReport(ctx context.Context) string {
	snap := r.ledger.Snapshot()
	var unrealized float64
	var b strings.Builder
	for _, p := range r.book.All() {
		px, err := r.prices.Last(ctx, p.Symbol)
		if err != nil || px <= 0 {
			continue
		}
		pnl := p.PriceProfitRatio(px) * p.Notional
		unrealized += pnl
		fmt.Fprintf(&b, "\n%s %s %+.2f (%+.2f%%)", p.Symbol, p.Side, pnl, p.AccountProfitRatio(px)*100)
	}

	var change float64
	if snap.InitialEquity > 0 {
		change = (snap.Equity - snap.InitialEquity) / snap.InitialEquity * 100
	}
	r.log.Info("[RUNNER] heartbeat",
		zap.Float64("equity", snap.Equity),
		zap.Float64("change_pct", change),
		zap.Float64("unrealized", unrealized),
		zap.Int("positions", r.book.Len()),
	)
	return fmt.Sprintf("💓 equity %.2f (%+.2f%%), tradable %.2f, unrealized %+.2f, positions %d%s",
		snap.Equity, change, snap.Tradable, unrealized, r.book.Len(), b.String())
}
