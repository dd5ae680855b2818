package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type leverageKey struct {
	instID  string
	mgnMode string
	posSide string
}

type leverageEntry struct {
	lever int
	at    time.Time
}

// ensureLeverage ставит плечо, только если закешированное значение отличается.
func (g *Gateway) ensureLeverage(ctx context.Context, instID string, lever int, mgnMode, posSide string) error {
	key := leverageKey{instID: instID, mgnMode: mgnMode, posSide: posSide}

	g.mu.Lock()
	cur, ok := g.leverage[key]
	g.mu.Unlock()
	if ok && cur.lever == lever {
		return nil
	}

	if err := g.trade.SetLeverage(ctx, instID, lever, mgnMode, posSide); err != nil {
		return errors.Wrapf(err, "set leverage %s %dx", instID, lever)
	}

	g.mu.Lock()
	g.leverage[key] = leverageEntry{lever: lever, at: g.now()}
	g.mu.Unlock()
	g.log.Info("[GATEWAY] leverage set",
		zap.String("symbol", instID), zap.Int("leverage", lever),
		zap.String("mgn_mode", mgnMode), zap.String("pos_side", posSide))
	return nil
}

// CleanupLeverage выкидывает записи старше maxAge; 0 — берём из конфига.
func (g *Gateway) CleanupLeverage(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = g.cfg.LeverageTTL
	}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k, e := range g.leverage {
		if now.Sub(e.at) > maxAge {
			delete(g.leverage, k)
			n++
		}
	}
	if n > 0 {
		g.log.Debug("[GATEWAY] leverage cache cleaned", zap.Int("removed", n))
	}
	return n
}
