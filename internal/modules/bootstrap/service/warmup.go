package service

import (
	"context"
	"sync/atomic"

	"swap_engine/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CandleSource отдаёт свечи через кэш агрегатора.
type CandleSource interface {
	Candles(ctx context.Context, symbol string) ([]models.Candle, error)
}

// warmupLimit — параллельных запросов свечей, чтобы не словить rate limit.
const warmupLimit = 8

// Warmup заранее прогревает кэш свечей по выбранным символам.
// Ошибки по отдельным символам не мешают старту.
func (b *Bootstrap) Warmup(ctx context.Context, symbols []string) int {
	if b.candles == nil || len(symbols) == 0 {
		return 0
	}
	b.notify.Sendf("🔥 Warmup: %d symbols", len(symbols))

	var ok atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupLimit)
	for _, sym := range symbols {
		g.Go(func() error {
			bars, err := b.candles.Candles(gctx, sym)
			if err != nil {
				b.log.Warn("[BOOT] warmup failed", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			if len(bars) > 0 {
				ok.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(ok.Load())
	b.log.Info("[BOOT] warmup done", zap.Int("symbols", len(symbols)), zap.Int("warmed", n))
	return n
}
