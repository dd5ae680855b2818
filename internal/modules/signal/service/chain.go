package service

import (
	"swap_engine/internal/indicators"
	cache "swap_engine/internal/modules/cache/service"
)

// chainScore — прокси on-chain активности по свечам: цена держится у MA20 и есть объём.
func (a *Aggregator) chainScore(symbol string, s series) Score {
	ok, err := cache.Get(a.cache, "chain:"+symbol, a.cfg.Cache.Chain, func() (bool, error) {
		return chainProxy(s), nil
	})
	if err != nil {
		return failed(err)
	}
	return boolScore(ok)
}

func chainProxy(s series) bool {
	if s.len() < 20 {
		return true
	}
	ma20 := indicators.MeanLast(s.close, 20)
	avgVol := indicators.MeanLast(s.volume, 20)
	return s.lastClose() > ma20*0.98 && indicators.Last(s.volume) > avgVol*0.8
}

// sentimentScore — внешнего фида настроений нет, работаем в деградированном режиме.
func (a *Aggregator) sentimentScore(coin string) Score {
	ok, err := cache.Get(a.cache, "sentiment:"+coin, a.cfg.Cache.Sentiment, func() (bool, error) {
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	return boolScore(ok)
}
