package service

import (
	"context"
	"math"

	"swap_engine/internal/models"
	cache "swap_engine/internal/modules/cache/service"
)

const premiumThreshold = 0.001

// fundingScore: отрицательный funding — шорты платят лонгам, сигнал в лонг.
func (a *Aggregator) fundingScore(ctx context.Context, symbol string) Score {
	fr, err := cache.Get(a.cache, "funding:"+symbol, a.cfg.Cache.FundingRate, func() (models.FundingRate, error) {
		return a.market.FundingRate(ctx, symbol)
	})
	if err != nil {
		return failed(err)
	}
	return fundingFrom(fr, a.cfg.Signal.FundingThreshold)
}

func fundingFrom(fr models.FundingRate, threshold float64) Score {
	var sig float64
	switch {
	case fr.Rate < -threshold:
		sig = 1
	case fr.Rate > threshold:
		sig = -1
	default:
		return Score{}
	}
	conf := math.Min(math.Abs(fr.Rate)*1000, 1)
	if math.Abs(fr.Premium) > premiumThreshold &&
		((fr.Premium > 0 && sig > 0) || (fr.Premium < 0 && sig < 0)) {
		conf = math.Min(conf*1.2, 1)
	}
	return Score{Value: sig, Confidence: conf}
}
