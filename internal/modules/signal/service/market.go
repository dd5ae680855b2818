package service

import (
	"context"

	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	cache "swap_engine/internal/modules/cache/service"

	"github.com/pkg/errors"
)

const (
	lendingHigh    = 1.2
	lendingLow     = 0.8
	takerImbalance = 1.2
	sentimentStep  = 0.3
	confidenceStep = 0.2
)

// marketScore — кредитное плечо маржи и перекос тейкеров по монете.
// Отказ одного источника не обнуляет второй.
func (a *Aggregator) marketScore(ctx context.Context, coin string) Score {
	ratio, ratioErr := cache.Get(a.cache, "leverage_ratio:"+coin, a.cfg.Cache.LeverageRatio, func() (float64, error) {
		return a.market.LendingRatio(ctx, coin)
	})
	taker, takerErr := cache.Get(a.cache, "taker:"+coin, a.cfg.Cache.TakerVolume, func() (models.TakerVolume, error) {
		return a.market.TakerVolume(ctx, coin)
	})
	if ratioErr != nil && takerErr != nil {
		return failed(errors.Wrap(ratioErr, "lending ratio and taker volume unavailable"))
	}

	var sc Score
	if ratioErr == nil {
		switch {
		case ratio > lendingHigh:
			sc.Value += sentimentStep
			sc.Confidence += confidenceStep
		case ratio > 0 && ratio < lendingLow:
			sc.Value -= sentimentStep
			sc.Confidence += confidenceStep
		}
	}
	if takerErr == nil {
		switch {
		case taker.Buy > taker.Sell*takerImbalance:
			sc.Value += sentimentStep
			sc.Confidence += confidenceStep
		case taker.Sell > taker.Buy*takerImbalance:
			sc.Value -= sentimentStep
			sc.Confidence += confidenceStep
		}
	}
	sc.Value = helper.Clamp(sc.Value, -1, 1)
	sc.Confidence = helper.Clamp(sc.Confidence, 0, 1)
	return sc
}
